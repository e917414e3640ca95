// Package classify determines the container type of an HLS segment: TS,
// an fMP4 init segment, or an fMP4 media segment. Detection order mirrors
// the reference adapter: URL extension first (authoritative when
// present), then content sniffing, which only needs to disambiguate MP4
// init-vs-media and handle extensionless CDN URLs.
package classify

import (
	"bytes"
	"strings"
)

// Kind is the detected segment container type.
type Kind int

const (
	KindTS Kind = iota
	KindInitSegment
	KindMediaSegment
)

func (k Kind) String() string {
	switch k {
	case KindTS:
		return "ts"
	case KindInitSegment:
		return "init_segment"
	case KindMediaSegment:
		return "media_segment"
	default:
		return "unknown"
	}
}

const sniffWindow = 1024

// Classify determines the segment kind from its URL and the first bytes of
// its body, applying rules in order until one matches:
//
//  1. URL extension: .ts -> TS; .m4s -> MediaSegment; .mp4/.cmfv -> init iff
//     the filename contains "init" or "header", else media.
//  2. Content sniff at the first 1 KiB: "moov" anywhere -> init; a
//     top-level "ftyp"/"styp"/"moof" box at offset 4 -> media.
//  3. TS signature: data[0] == 0x47 && data[188] == 0x47 -> TS.
//  4. Fallback: TS.
func Classify(url string, body []byte) Kind {
	if kind, ok := classifyByExtension(url); ok {
		return kind
	}
	if kind, ok := classifyByContent(body); ok {
		return kind
	}
	if kind, ok := classifyByTSSignature(body); ok {
		return kind
	}
	return KindTS
}

func classifyByExtension(url string) (Kind, bool) {
	lower := strings.ToLower(url)
	// Strip any query string before inspecting the extension/filename.
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}

	switch {
	case strings.HasSuffix(lower, ".ts"):
		return KindTS, true
	case strings.HasSuffix(lower, ".m4s"):
		return KindMediaSegment, true
	case strings.HasSuffix(lower, ".mp4"), strings.HasSuffix(lower, ".cmfv"):
		filename := lower
		if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
			filename = filename[idx+1:]
		}
		if strings.Contains(filename, "init") || strings.Contains(filename, "header") {
			return KindInitSegment, true
		}
		return KindMediaSegment, true
	default:
		return 0, false
	}
}

func classifyByContent(body []byte) (Kind, bool) {
	window := body
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}

	if bytes.Contains(window, []byte("moov")) {
		return KindInitSegment, true
	}

	if len(body) >= 8 {
		boxType := body[4:8]
		if bytes.Equal(boxType, []byte("ftyp")) || bytes.Equal(boxType, []byte("styp")) {
			return KindMediaSegment, true
		}
		if bytes.Equal(boxType, []byte("moof")) {
			return KindMediaSegment, true
		}
	}

	return 0, false
}

func classifyByTSSignature(body []byte) (Kind, bool) {
	const tsPacketSize = 188
	if len(body) > tsPacketSize && body[0] == 0x47 && body[tsPacketSize] == 0x47 {
		return KindTS, true
	}
	return 0, false
}
