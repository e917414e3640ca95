// Package hlsfetch implements HLS media-playlist parsing and the
// concurrent, bounded-retry segment fetcher. The playlist parser is
// hand-written against the standard library: no library in this module's
// dependency surface parses M3U8 media playlists (gohlslib's top-level
// client owns reorder/gap-skip/classification decisions this module must
// make itself, so only its low-level codec packages are used elsewhere;
// m3u8_rs is a Rust-only dependency with no Go equivalent in the stack).
package hlsfetch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Segment is one media-playlist segment entry.
type Segment struct {
	URI             string
	Duration        time.Duration
	Sequence        uint64
	Discontinuity   bool
	Title           string
	ProgramDateTime *time.Time
	MapURI          string // EXT-X-MAP URI in effect for this segment, if any

	DaterangeID    string
	DaterangeClass string
	DaterangeStart *time.Time
	DaterangeEnd   *time.Time
}

// MediaPlaylist is a parsed HLS media playlist.
type MediaPlaylist struct {
	TargetDuration time.Duration
	MediaSequence  uint64
	Segments       []Segment
	EndList        bool
}

// ParseMediaPlaylist parses an M3U8 media playlist from r.
func ParseMediaPlaylist(r io.Reader) (*MediaPlaylist, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	pl := &MediaPlaylist{}

	var (
		pendingDuration      time.Duration
		pendingTitle         string
		pendingDiscontinuity bool
		pendingPDT           *time.Time
		pendingDaterange     *pendingDaterangeState
		currentMapURI        string
		seq                  uint64
		sawExtM3U            bool
		sawFirstSequence     bool
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "#EXTM3U":
			sawExtM3U = true

		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			secs, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:"))
			if err != nil {
				return nil, fmt.Errorf("parsing EXT-X-TARGETDURATION: %w", err)
			}
			pl.TargetDuration = time.Duration(secs) * time.Second

		case strings.HasPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"):
			n, err := strconv.ParseUint(strings.TrimPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing EXT-X-MEDIA-SEQUENCE: %w", err)
			}
			pl.MediaSequence = n
			if !sawFirstSequence {
				seq = n
				sawFirstSequence = true
			}

		case strings.HasPrefix(line, "#EXTINF:"):
			dur, title, err := parseExtInf(line)
			if err != nil {
				return nil, err
			}
			pendingDuration = dur
			pendingTitle = title

		case line == "#EXT-X-DISCONTINUITY":
			pendingDiscontinuity = true

		case strings.HasPrefix(line, "#EXT-X-PROGRAM-DATE-TIME:"):
			ts, err := time.Parse(time.RFC3339Nano, strings.TrimPrefix(line, "#EXT-X-PROGRAM-DATE-TIME:"))
			if err != nil {
				return nil, fmt.Errorf("parsing EXT-X-PROGRAM-DATE-TIME: %w", err)
			}
			pendingPDT = &ts

		case strings.HasPrefix(line, "#EXT-X-MAP:"):
			attrs := parseAttributeList(strings.TrimPrefix(line, "#EXT-X-MAP:"))
			currentMapURI = unquote(attrs["URI"])

		case strings.HasPrefix(line, "#EXT-X-DATERANGE:"):
			attrs := parseAttributeList(strings.TrimPrefix(line, "#EXT-X-DATERANGE:"))
			state := &pendingDaterangeState{
				id:    unquote(attrs["ID"]),
				class: unquote(attrs["CLASS"]),
			}
			if v, ok := attrs["START-DATE"]; ok {
				if ts, err := time.Parse(time.RFC3339Nano, unquote(v)); err == nil {
					state.start = &ts
				}
			}
			if v, ok := attrs["END-DATE"]; ok {
				if ts, err := time.Parse(time.RFC3339Nano, unquote(v)); err == nil {
					state.end = &ts
				}
			}
			pendingDaterange = state

		case line == "#EXT-X-ENDLIST":
			pl.EndList = true

		case strings.HasPrefix(line, "#"):
			// Unrecognized tag: ignored, per the liberal-parser convention
			// for forward compatibility with unknown EXT-X- extensions.

		default:
			// A URI line: the entry accumulated above.
			segment := Segment{
				URI:             line,
				Duration:        pendingDuration,
				Sequence:        seq,
				Discontinuity:   pendingDiscontinuity,
				Title:           pendingTitle,
				ProgramDateTime: pendingPDT,
				MapURI:          currentMapURI,
			}
			if pendingDaterange != nil {
				segment.DaterangeID = pendingDaterange.id
				segment.DaterangeClass = pendingDaterange.class
				segment.DaterangeStart = pendingDaterange.start
				segment.DaterangeEnd = pendingDaterange.end
			}
			pl.Segments = append(pl.Segments, segment)

			seq++
			pendingDuration = 0
			pendingTitle = ""
			pendingDiscontinuity = false
			pendingPDT = nil
			pendingDaterange = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning playlist: %w", err)
	}
	if !sawExtM3U {
		return nil, fmt.Errorf("not an M3U8 playlist: missing #EXTM3U")
	}

	return pl, nil
}

type pendingDaterangeState struct {
	id, class  string
	start, end *time.Time
}

func parseExtInf(line string) (time.Duration, string, error) {
	rest := strings.TrimPrefix(line, "#EXTINF:")
	parts := strings.SplitN(rest, ",", 2)
	seconds, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("parsing EXTINF duration: %w", err)
	}
	title := ""
	if len(parts) > 1 {
		title = parts[1]
	}
	return time.Duration(seconds * float64(time.Second)), title, nil
}

// parseAttributeList parses a NAME=VALUE,NAME="VALUE" attribute list,
// respecting quoted commas.
func parseAttributeList(s string) map[string]string {
	out := make(map[string]string)
	var key strings.Builder
	var val strings.Builder
	inValue := false
	inQuotes := false

	flush := func() {
		if key.Len() > 0 {
			out[key.String()] = val.String()
		}
		key.Reset()
		val.Reset()
		inValue = false
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			val.WriteRune(r)
		case r == '=' && !inValue && !inQuotes:
			inValue = true
		case r == ',' && !inQuotes:
			flush()
		default:
			if inValue {
				val.WriteRune(r)
			} else {
				key.WriteRune(r)
			}
		}
	}
	flush()
	return out
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
