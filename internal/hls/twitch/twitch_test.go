package twitch

import (
	"testing"
	"time"
)

func at(sec int) *time.Time {
	t := time.Unix(int64(sec), 0).UTC()
	return &t
}

func TestProcessPlaylistTagsAdsByDaterange(t *testing.T) {
	p := NewProcessor()

	segments := []Segment{
		{ProgramDateTime: at(0)},
		{
			ProgramDateTime: at(10),
			DaterangeID:     "stitched-ad-1",
			DaterangeClass:  "twitch-stitched-ad",
			DaterangeStart:  at(10),
			DaterangeEnd:    at(20),
		},
		{ProgramDateTime: at(15)},
		{ProgramDateTime: at(25)},
	}

	out := p.ProcessPlaylist(segments)
	if out[0].IsAd {
		t.Fatal("segment at t=0 should not be tagged ad")
	}
	if !out[2].IsAd {
		t.Fatal("segment at t=15 (within ad range) should be tagged ad")
	}
	if out[3].IsAd {
		t.Fatal("segment at t=25 (after ad range end) should not be tagged ad")
	}
}

func TestProcessPlaylistPrefetchAfterDiscontinuity(t *testing.T) {
	p := NewProcessor()
	segments := []Segment{
		{ProgramDateTime: at(0)},
		{ProgramDateTime: at(1), Discontinuity: true},
		{ProgramDateTime: at(2), Title: "PREFETCH_SEGMENT"},
		{ProgramDateTime: at(3)},
	}

	out := p.ProcessPlaylist(segments)
	if out[0].IsAd || out[1].IsAd {
		t.Fatal("segments before/at discontinuity should not be tagged")
	}
	if !out[2].IsAd {
		t.Fatal("first segment after discontinuity with PREFETCH_SEGMENT title should be tagged ad")
	}
	if out[3].IsAd {
		t.Fatal("subsequent segment should not inherit the ad tag")
	}
}

func TestProcessPlaylistPrunesExpiredRanges(t *testing.T) {
	p := NewProcessor()
	p.ProcessPlaylist([]Segment{
		{
			ProgramDateTime: at(0),
			DaterangeID:     "stitched-ad-old",
			DaterangeClass:  "twitch-stitched-ad",
			DaterangeStart:  at(0),
			DaterangeEnd:    at(5),
		},
	})
	if len(p.adRanges) != 1 {
		t.Fatalf("expected 1 tracked range, got %d", len(p.adRanges))
	}

	// A later window whose minimum PDT is past the old range's end should prune it.
	p.ProcessPlaylist([]Segment{{ProgramDateTime: at(100)}})
	if len(p.adRanges) != 0 {
		t.Fatalf("expected expired range to be pruned, got %d remaining", len(p.adRanges))
	}
}

func TestIsTwitchPlaylist(t *testing.T) {
	if !IsTwitchPlaylist("https://video-edge-abc.ttvnw.net/playlist.m3u8") {
		t.Fatal("expected ttvnw.net URL to be detected as Twitch")
	}
	if IsTwitchPlaylist("https://example.com/playlist.m3u8") {
		t.Fatal("expected non-Twitch URL to not be detected")
	}
}
