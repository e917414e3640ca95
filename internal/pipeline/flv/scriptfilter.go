package flv

import (
	"bytes"

	"github.com/srec-dev/srec-go/internal/container/flv"
)

// onMetaDataMarker is the AMF0-encoded string "onMetaData" that opens a
// compliant FLV script-data tag body.
var onMetaDataMarker = []byte{0x02, 0x00, 0x0A, 'o', 'n', 'M', 'e', 't', 'a', 'D', 'a', 't', 'a'}

// ScriptFilter drops script tags that are not a compliant onMetaData
// payload; audio and video tags pass through untouched.
type ScriptFilter struct{}

// NewScriptFilter constructs a ScriptFilter.
func NewScriptFilter() *ScriptFilter { return &ScriptFilter{} }

func (s *ScriptFilter) Process(in flv.Data) ([]flv.Data, error) {
	if !in.IsTag() || in.Tag.Header.TagType != flv.TagTypeScript {
		return []flv.Data{in}, nil
	}
	if isOnMetaData(in.Tag.Data) {
		return []flv.Data{in}, nil
	}
	return nil, nil
}

func (s *ScriptFilter) Flush() ([]flv.Data, error) { return nil, nil }

func isOnMetaData(body []byte) bool {
	return bytes.HasPrefix(body, onMetaDataMarker)
}
