package hlsfetch

import (
	"strings"
	"testing"
)

const samplePlaylist = `#EXTM3U
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:100
#EXT-X-PROGRAM-DATE-TIME:2026-07-31T10:00:00.000Z
#EXTINF:6.006,
segment100.ts
#EXT-X-DISCONTINUITY
#EXT-X-DATERANGE:ID="stitched-ad-1",CLASS="twitch-stitched-ad",START-DATE="2026-07-31T10:00:06.000Z",END-DATE="2026-07-31T10:00:36.000Z"
#EXTINF:6.006,
segment101.ts
#EXTINF:6.006,
segment102.ts
#EXT-X-ENDLIST
`

func TestParseMediaPlaylist(t *testing.T) {
	pl, err := ParseMediaPlaylist(strings.NewReader(samplePlaylist))
	if err != nil {
		t.Fatalf("ParseMediaPlaylist: %v", err)
	}
	if pl.MediaSequence != 100 {
		t.Fatalf("expected media sequence 100, got %d", pl.MediaSequence)
	}
	if !pl.EndList {
		t.Fatalf("expected EndList true")
	}
	if len(pl.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(pl.Segments))
	}

	first := pl.Segments[0]
	if first.URI != "segment100.ts" || first.Sequence != 100 {
		t.Fatalf("unexpected first segment: %+v", first)
	}
	if first.ProgramDateTime == nil {
		t.Fatalf("expected PDT on first segment")
	}

	second := pl.Segments[1]
	if !second.Discontinuity {
		t.Fatalf("expected discontinuity on second segment")
	}
	if second.DaterangeID != "stitched-ad-1" || second.DaterangeClass != "twitch-stitched-ad" {
		t.Fatalf("unexpected daterange on second segment: %+v", second)
	}
	if second.DaterangeStart == nil || second.DaterangeEnd == nil {
		t.Fatalf("expected daterange start/end parsed")
	}
}

func TestParseMediaPlaylistRejectsMissingHeader(t *testing.T) {
	_, err := ParseMediaPlaylist(strings.NewReader("not a playlist\n"))
	if err == nil {
		t.Fatalf("expected error for missing #EXTM3U")
	}
}
