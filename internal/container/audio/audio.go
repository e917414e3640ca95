// Package audio extracts AAC codec configuration from FLV AAC sequence
// headers and raw ADTS-framed streams, wrapping mediacommon's
// AudioSpecificConfig codec for the parsing and marshaling itself.
package audio

import (
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
)

// ParseAudioSpecificConfig decodes the raw AudioSpecificConfig bytes
// carried by an FLV AAC sequence header (the tag body after the 2-byte
// SoundFormat/AACPacketType prefix) or an fMP4 `esds` box.
func ParseAudioSpecificConfig(data []byte) (mpeg4audio.AudioSpecificConfig, error) {
	var cfg mpeg4audio.AudioSpecificConfig
	if err := cfg.Unmarshal(data); err != nil {
		return mpeg4audio.AudioSpecificConfig{}, fmt.Errorf("audio: parsing AudioSpecificConfig: %w", err)
	}
	return cfg, nil
}

// BuildAudioSpecificConfig marshals cfg back into its canonical wire form,
// for writing an AAC sequence header or fMP4 `esds` box from scratch (used
// when the source only ever supplies ADTS-framed audio and no FLV/fMP4
// sequence header).
func BuildAudioSpecificConfig(cfg mpeg4audio.AudioSpecificConfig) ([]byte, error) {
	b, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("audio: marshaling AudioSpecificConfig: %w", err)
	}
	return b, nil
}

// StripADTSHeader removes a leading ADTS header, if present, and returns the
// raw AAC payload. Data without the ADTS sync word (0xFFF) is returned
// unchanged, since it is assumed to already be a raw AAC frame.
func StripADTSHeader(data []byte) []byte {
	if len(data) < 7 || data[0] != 0xFF || data[1]&0xF0 != 0xF0 {
		return data
	}
	headerLen := 7
	if data[1]&0x01 == 0 { // protection_absent == 0: 2-byte CRC follows the header
		headerLen = 9
	}
	if len(data) <= headerLen {
		return data
	}
	return data[headerLen:]
}

// ExtractADTSFrames splits a buffer of back-to-back ADTS frames into their
// raw (header-stripped) AAC payloads. Non-ADTS input is returned as a
// single frame unchanged.
func ExtractADTSFrames(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	if len(data) < 7 || data[0] != 0xFF || data[1]&0xF0 != 0xF0 {
		return [][]byte{data}
	}

	var frames [][]byte
	offset := 0
	for offset+7 <= len(data) {
		if data[offset] != 0xFF || data[offset+1]&0xF0 != 0xF0 {
			offset++
			continue
		}

		protectionAbsent := data[offset+1]&0x01 != 0
		headerSize := 7
		if !protectionAbsent {
			headerSize = 9
		}

		frameLen := int(data[offset+3]&0x03)<<11 | int(data[offset+4])<<3 | int(data[offset+5]>>5)
		if frameLen < headerSize || offset+frameLen > len(data) {
			break
		}

		if raw := data[offset+headerSize : offset+frameLen]; len(raw) > 0 {
			frames = append(frames, raw)
		}
		offset += frameLen
	}
	return frames
}
