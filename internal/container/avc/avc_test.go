package avc

import "testing"

func annexB(nalus ...[]byte) []byte {
	var out []byte
	for _, n := range nalus {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, n...)
	}
	return out
}

func TestExtractH264ParamSets(t *testing.T) {
	sps := []byte{0x67, 0x01, 0x02, 0x03}
	pps := []byte{0x68, 0x04, 0x05}
	idr := []byte{0x65, 0x06, 0x07}

	ps, ok := ExtractH264ParamSets(annexB(sps, pps, idr))
	if !ok {
		t.Fatal("expected param sets to be extracted")
	}
	if string(ps.SPS) != string(sps) || string(ps.PPS) != string(pps) {
		t.Fatalf("got SPS=%x PPS=%x, want SPS=%x PPS=%x", ps.SPS, ps.PPS, sps, pps)
	}
}

func TestExtractH264ParamSetsMissingPPS(t *testing.T) {
	sps := []byte{0x67, 0x01}
	idr := []byte{0x65, 0x02}
	if _, ok := ExtractH264ParamSets(annexB(sps, idr)); ok {
		t.Fatal("expected extraction to fail without PPS")
	}
}

func TestExtractH265ParamSets(t *testing.T) {
	vps := []byte{0x40, 0x01}
	sps := []byte{0x42, 0x01, 0x02}
	pps := []byte{0x44, 0x01}
	idr := []byte{0x26, 0x01}

	ps, ok := ExtractH265ParamSets(annexB(vps, sps, pps, idr))
	if !ok {
		t.Fatal("expected param sets to be extracted")
	}
	if string(ps.VPS) != string(vps) || string(ps.SPS) != string(sps) || string(ps.PPS) != string(pps) {
		t.Fatalf("got VPS=%x SPS=%x PPS=%x", ps.VPS, ps.SPS, ps.PPS)
	}
}

func TestParseAVCDecoderConfigurationRecord(t *testing.T) {
	sps := []byte{0x67, 0xaa, 0xbb}
	pps := []byte{0x68, 0xcc}

	record := []byte{
		0x01,             // version
		0x64, 0x00, 0x1f, // profile, compat, level
		0xff,                               // lengthSizeMinusOne | reserved
		0xe1,                               // numSPS (reserved bits | 1)
		0x00, byte(len(sps)),
	}
	record = append(record, sps...)
	record = append(record, 0x01) // numPPS
	record = append(record, 0x00, byte(len(pps)))
	record = append(record, pps...)

	gotSPS, gotPPS, err := ParseAVCDecoderConfigurationRecord(record)
	if err != nil {
		t.Fatalf("ParseAVCDecoderConfigurationRecord: %v", err)
	}
	if string(gotSPS) != string(sps) || string(gotPPS) != string(pps) {
		t.Fatalf("got SPS=%x PPS=%x, want SPS=%x PPS=%x", gotSPS, gotPPS, sps, pps)
	}
}

func TestParseAVCDecoderConfigurationRecordRejectsBadVersion(t *testing.T) {
	if _, _, err := ParseAVCDecoderConfigurationRecord([]byte{0x02, 0, 0, 0, 0, 0}); err == nil {
		t.Fatal("expected an error for an unrecognized record version")
	}
}
