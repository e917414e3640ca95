package config

import (
	"encoding/json"

	"github.com/srec-dev/srec-go/pkg/bytesize"
)

// ByteSize is a size value accepting humanized units ("500MB", "2GiB", or
// a raw byte count), used for writer.max_size and similar config fields.
type ByteSize int64

func ParseByteSize(s string) (ByteSize, error) {
	size, err := bytesize.Parse(s)
	if err != nil {
		return 0, err
	}
	return ByteSize(size), nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*b = ByteSize(n)
		return nil
	}
	return b.UnmarshalText([]byte(s))
}

func (b ByteSize) MarshalJSON() ([]byte, error) { return json.Marshal(b.String()) }
func (b ByteSize) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b ByteSize) Bytes() int64 { return int64(b) }
func (b ByteSize) Int64() int64 { return int64(b) }
func (b ByteSize) String() string {
	return bytesize.Format(bytesize.Size(b))
}
