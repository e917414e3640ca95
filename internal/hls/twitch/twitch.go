// Package twitch implements Twitch's stitched-ad tagging convention for
// HLS media playlists: #EXT-X-DATERANGE entries marking ad insertions, and
// the PREFETCH_SEGMENT discontinuity heuristic.
package twitch

import (
	"strings"
	"time"
)

// Segment is the subset of a media-playlist segment entry the ad processor
// needs; callers adapt their parsed playlist type into this shape.
type Segment struct {
	ProgramDateTime *time.Time
	Discontinuity   bool
	Title           string
	DaterangeID     string
	DaterangeClass  string
	DaterangeStart  *time.Time
	DaterangeEnd    *time.Time
}

// Processed is a Segment annotated with the ad verdict.
type Processed struct {
	Segment Segment
	IsAd    bool
}

type adRange struct {
	startMs int64
	endMs   int64
}

// Processor tracks active ad date-ranges across successive playlist
// refreshes of a single run.
type Processor struct {
	adRanges      map[string]adRange
	discontinuity bool
}

// NewProcessor constructs an empty Processor.
func NewProcessor() *Processor {
	return &Processor{adRanges: make(map[string]adRange)}
}

// IsTwitchPlaylist reports whether baseURL looks like a Twitch edge URL.
func IsTwitchPlaylist(baseURL string) bool {
	return strings.Contains(baseURL, "ttvnw.net")
}

// ProcessPlaylist tags every segment in segments as ad or not, updating the
// processor's tracked ad ranges first (insert new ranges, then prune
// expired ones against the window's minimum PROGRAM-DATE-TIME).
func (p *Processor) ProcessPlaylist(segments []Segment) []Processed {
	for _, seg := range segments {
		if seg.DaterangeID == "" || seg.DaterangeEnd == nil || seg.DaterangeStart == nil {
			continue
		}
		isAdRange := seg.DaterangeClass == "twitch-stitched-ad" || strings.HasPrefix(seg.DaterangeID, "stitched-ad-")
		if !isAdRange {
			continue
		}
		p.adRanges[seg.DaterangeID] = adRange{
			startMs: seg.DaterangeStart.UnixMilli(),
			endMs:   seg.DaterangeEnd.UnixMilli(),
		}
	}

	var minPDTMs int64
	haveMinPDT := false
	for _, seg := range segments {
		if seg.ProgramDateTime == nil {
			continue
		}
		ms := seg.ProgramDateTime.UnixMilli()
		if !haveMinPDT || ms < minPDTMs {
			minPDTMs = ms
			haveMinPDT = true
		}
	}
	if haveMinPDT {
		for id, dr := range p.adRanges {
			if dr.endMs < minPDTMs {
				delete(p.adRanges, id)
			}
		}
	}

	out := make([]Processed, 0, len(segments))
	for _, seg := range segments {
		isAd := false

		if seg.ProgramDateTime != nil {
			pdtMs := seg.ProgramDateTime.UnixMilli()
			for _, dr := range p.adRanges {
				if pdtMs >= dr.startMs && pdtMs < dr.endMs {
					isAd = true
					break
				}
			}
		}

		if seg.Discontinuity {
			p.discontinuity = true
		} else if p.discontinuity {
			if seg.Title == "PREFETCH_SEGMENT" {
				isAd = true
			}
			p.discontinuity = false
		}

		out = append(out, Processed{Segment: seg, IsAd: isAd})
	}

	return out
}
