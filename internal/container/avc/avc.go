// Package avc extracts and describes H.264/H.265 parameter sets (SPS/PPS,
// VPS/SPS/PPS) from the codec-config records carried by FLV AVC/HEVC
// sequence headers and fMP4 init segments, so the writer and diagnostics
// surface resolution and profile information without a full decode.
package avc

import (
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"
)

// H264ParamSets holds one H.264 stream's parameter sets as raw NAL payloads
// (no start code, no length prefix).
type H264ParamSets struct {
	SPS []byte
	PPS []byte
}

// ExtractH264ParamSets scans an Annex B access unit for SPS and PPS NAL
// units, returning the most recently seen copy of each.
func ExtractH264ParamSets(annexB []byte) (H264ParamSets, bool) {
	var au h264.AnnexB
	if err := au.Unmarshal(annexB); err != nil {
		return H264ParamSets{}, false
	}

	var out H264ParamSets
	for _, nalu := range au {
		if len(nalu) == 0 {
			continue
		}
		switch h264.NALUType(nalu[0] & 0x1F) {
		case h264.NALUTypeSPS:
			out.SPS = nalu
		case h264.NALUTypePPS:
			out.PPS = nalu
		}
	}
	if out.SPS == nil || out.PPS == nil {
		return H264ParamSets{}, false
	}
	return out, true
}

// ParseAVCDecoderConfigurationRecord parses the fixed AVCDecoderConfigurationRecord
// layout carried by an FLV AVC sequence header (ISO 14496-15 §5.2.4.1):
// version, profile/compat/level, a length-size field, one SPS, and one PPS.
// Only the first SPS/PPS entry is returned; FLV muxers in practice never
// emit more than one of each.
func ParseAVCDecoderConfigurationRecord(record []byte) (sps, pps []byte, err error) {
	if len(record) < 6 || record[0] != 1 {
		return nil, nil, fmt.Errorf("avc: not an AVCDecoderConfigurationRecord (len=%d)", len(record))
	}

	numSPS := int(record[5] & 0x1F)
	off := 6
	for i := 0; i < numSPS; i++ {
		if off+2 > len(record) {
			return nil, nil, fmt.Errorf("avc: truncated SPS length at offset %d", off)
		}
		l := int(record[off])<<8 | int(record[off+1])
		off += 2
		if off+l > len(record) {
			return nil, nil, fmt.Errorf("avc: truncated SPS payload at offset %d", off)
		}
		if i == 0 {
			sps = record[off : off+l]
		}
		off += l
	}

	if off >= len(record) {
		return nil, nil, fmt.Errorf("avc: missing PPS count")
	}
	numPPS := int(record[off])
	off++
	for i := 0; i < numPPS; i++ {
		if off+2 > len(record) {
			return nil, nil, fmt.Errorf("avc: truncated PPS length at offset %d", off)
		}
		l := int(record[off])<<8 | int(record[off+1])
		off += 2
		if off+l > len(record) {
			return nil, nil, fmt.Errorf("avc: truncated PPS payload at offset %d", off)
		}
		if i == 0 {
			pps = record[off : off+l]
		}
		off += l
	}

	if sps == nil || pps == nil {
		return nil, nil, fmt.Errorf("avc: record carried no SPS/PPS")
	}
	return sps, pps, nil
}

// H264Dimensions decodes sps and returns the coded picture width/height.
func H264Dimensions(sps []byte) (width, height int, err error) {
	var s h264.SPS
	if err := s.Unmarshal(sps); err != nil {
		return 0, 0, fmt.Errorf("avc: parsing h264 SPS: %w", err)
	}
	return s.Width(), s.Height()
}

// H265ParamSets holds one H.265/HEVC stream's parameter sets as raw NAL
// payloads (no start code).
type H265ParamSets struct {
	VPS []byte
	SPS []byte
	PPS []byte
}

// H265 NAL unit types, ITU-T H.265 Table 7-1. mediacommon's h265 package
// does not export an Annex B splitter analogous to h264.AnnexB, so access
// units are split here directly.
const (
	h265NALTypeVPS = 32
	h265NALTypeSPS = 33
	h265NALTypePPS = 34
)

// ExtractH265ParamSets scans an Annex B access unit for VPS, SPS, and PPS
// NAL units, returning the most recently seen copy of each.
func ExtractH265ParamSets(annexB []byte) (H265ParamSets, bool) {
	var out H265ParamSets
	for _, nalu := range splitAnnexB(annexB) {
		if len(nalu) == 0 {
			continue
		}
		switch (nalu[0] >> 1) & 0x3F {
		case h265NALTypeVPS:
			out.VPS = nalu
		case h265NALTypeSPS:
			out.SPS = nalu
		case h265NALTypePPS:
			out.PPS = nalu
		}
	}
	if out.VPS == nil || out.SPS == nil || out.PPS == nil {
		return H265ParamSets{}, false
	}
	return out, true
}

// H265Dimensions decodes sps and returns the coded picture width/height.
func H265Dimensions(sps []byte) (width, height int, err error) {
	var s h265.SPS
	if err := s.Unmarshal(sps); err != nil {
		return 0, 0, fmt.Errorf("avc: parsing h265 SPS: %w", err)
	}
	return s.Width(), s.Height()
}

// splitAnnexB splits Annex B formatted data (3- or 4-byte start codes) into
// individual NAL units.
func splitAnnexB(data []byte) [][]byte {
	if len(data) < 4 {
		return nil
	}

	var nalus [][]byte
	start := -1
	for i := 0; i < len(data)-2; i++ {
		if data[i] != 0x00 || data[i+1] != 0x00 {
			continue
		}
		startCodeLen := 0
		switch {
		case data[i+2] == 0x01:
			startCodeLen = 3
		case i+3 < len(data) && data[i+2] == 0x00 && data[i+3] == 0x01:
			startCodeLen = 4
		default:
			continue
		}
		if start >= 0 {
			nalus = append(nalus, data[start:i])
		}
		start = i + startCodeLen
		i += startCodeLen - 1
	}
	if start >= 0 && start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}
