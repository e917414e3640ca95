// Package av1 implements the byte-level AV1 bitstream primitives the
// pipeline needs: OBU header framing, LEB128 variable-length integers, the
// AV1 Codec Configuration Record, and sequence-header parsing for
// resolution extraction. It does not decode pixel data.
package av1

import "fmt"

// Leb128OverflowError is returned when a LEB128 value would not fit in 64
// bits: the 10th byte still has its continuation bit set, or carries
// payload bits above bit 63.
type Leb128OverflowError struct{}

func (e *Leb128OverflowError) Error() string { return "av1: LEB128 overflow: value exceeds 64 bits" }

// UnexpectedEOFError is returned when a decoder runs out of input before
// finishing a fixed-size or length-prefixed structure.
type UnexpectedEOFError struct {
	Expected, Actual int
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("av1: unexpected end of data: expected %d bytes, got %d", e.Expected, e.Actual)
}

// InvalidOBUError is returned when an OBU header or payload fails a
// structural check (reserved bit set, forbidden type, etc).
type InvalidOBUError struct {
	Reason string
}

func (e *InvalidOBUError) Error() string { return "av1: invalid OBU: " + e.Reason }

// InvalidIVFSignatureError is returned when an IVF stream does not open
// with the expected "DKIF" magic.
type InvalidIVFSignatureError struct {
	Got [4]byte
}

func (e *InvalidIVFSignatureError) Error() string {
	return fmt.Sprintf("av1: invalid IVF signature: expected \"DKIF\", got %q", e.Got[:])
}

// InvalidIVFCodecError is returned when an IVF stream's FourCC is not
// "AV01".
type InvalidIVFCodecError struct {
	Got [4]byte
}

func (e *InvalidIVFCodecError) Error() string {
	return fmt.Sprintf("av1: invalid IVF codec: expected \"AV01\", got %q", e.Got[:])
}

// UnsupportedIVFVersionError is returned for any IVF version other than 0.
type UnsupportedIVFVersionError struct {
	Version uint16
}

func (e *UnsupportedIVFVersionError) Error() string {
	return fmt.Sprintf("av1: unsupported IVF version: %d", e.Version)
}

// InvalidIVFTimebaseError is returned when an IVF header declares a zero
// numerator or denominator.
type InvalidIVFTimebaseError struct {
	Numerator, Denominator uint32
}

func (e *InvalidIVFTimebaseError) Error() string {
	return fmt.Sprintf("av1: invalid IVF timebase: %d/%d", e.Numerator, e.Denominator)
}

// FrameUnitSizeMismatchError is returned when an Annex B frame unit's
// declared length prefix does not match the bytes actually consumed.
type FrameUnitSizeMismatchError struct {
	Declared, Consumed uint64
}

func (e *FrameUnitSizeMismatchError) Error() string {
	return fmt.Sprintf("av1: Annex B frame unit size mismatch: declared %d, consumed %d", e.Declared, e.Consumed)
}

// TemporalUnitSizeMismatchError is the temporal-unit analogue of
// FrameUnitSizeMismatchError.
type TemporalUnitSizeMismatchError struct {
	Declared, Consumed uint64
}

func (e *TemporalUnitSizeMismatchError) Error() string {
	return fmt.Sprintf("av1: Annex B temporal unit size mismatch: declared %d, consumed %d", e.Declared, e.Consumed)
}
