// Package flvread turns a byte stream into a sequence of flv.Data units,
// the producer side of the FLV operator chain.
package flvread

import (
	"bufio"
	"fmt"
	"io"

	"github.com/srec-dev/srec-go/internal/container/flv"
)

// Reader decodes an FLV byte stream into flv.Data units.
type Reader struct {
	r         *bufio.Reader
	sawHeader bool
}

// New wraps r.
func New(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next decoded unit, or io.EOF when the stream ends
// cleanly after a back-pointer (no trailing partial tag).
func (d *Reader) Next() (flv.Data, error) {
	if !d.sawHeader {
		return d.readFileHeader()
	}
	return d.readTag()
}

func (d *Reader) readFileHeader() (flv.Data, error) {
	buf := make([]byte, flv.FileHeaderSize+flv.PrevTagSizeSize)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return flv.Data{}, fmt.Errorf("reading FLV file header: %w", err)
	}
	header, err := flv.DecodeHeader(buf[:flv.FileHeaderSize])
	if err != nil {
		return flv.Data{}, err
	}
	d.sawHeader = true
	return flv.NewHeaderData(header), nil
}

func (d *Reader) readTag() (flv.Data, error) {
	headerBuf := make([]byte, flv.TagHeaderSize)
	if _, err := io.ReadFull(d.r, headerBuf); err != nil {
		return flv.Data{}, err
	}
	tagHeader, err := flv.DecodeTagHeader(headerBuf)
	if err != nil {
		return flv.Data{}, err
	}

	body := make([]byte, tagHeader.DataSize)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return flv.Data{}, fmt.Errorf("reading tag body: %w", err)
	}

	backPointerBuf := make([]byte, flv.PrevTagSizeSize)
	if _, err := io.ReadFull(d.r, backPointerBuf); err != nil {
		return flv.Data{}, fmt.Errorf("reading back-pointer: %w", err)
	}
	// The back-pointer is read and discarded: it is not compared against
	// tagHeader.ExpectedBackPointer(), so a mismatch neither fails the read
	// nor produces a warning.

	return flv.NewTagData(flv.Tag{Header: tagHeader, Data: body}), nil
}
