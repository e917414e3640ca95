package flv

import (
	"log/slog"

	"github.com/srec-dev/srec-go/internal/container/audio"
	"github.com/srec-dev/srec-go/internal/container/avc"
	"github.com/srec-dev/srec-go/internal/container/flv"
)

// CodecProbe logs the resolution and audio parameters carried by a run's
// first AVC and AAC sequence headers; it is a pass-through observer and
// never alters or drops a unit.
type CodecProbe struct {
	logger      *slog.Logger
	loggedVideo bool
	loggedAudio bool
}

// NewCodecProbe constructs a CodecProbe. A nil logger disables logging.
func NewCodecProbe(logger *slog.Logger) *CodecProbe {
	return &CodecProbe{logger: logger}
}

func (p *CodecProbe) Process(d flv.Data) ([]flv.Data, error) {
	if d.IsTag() && isSequenceInitTag(d) {
		switch d.Tag.Header.TagType {
		case flv.TagTypeVideo:
			p.probeVideo(d)
		case flv.TagTypeAudio:
			p.probeAudio(d)
		}
	}
	return []flv.Data{d}, nil
}

func (p *CodecProbe) Flush() ([]flv.Data, error) { return nil, nil }

func (p *CodecProbe) probeVideo(d flv.Data) {
	if p.loggedVideo || len(d.Tag.Data) < 6 {
		return
	}
	codecID := d.Tag.Data[0] & 0x0F
	if codecID != 7 { // only the legacy AVC codec ID carries an AVCDecoderConfigurationRecord here
		return
	}
	sps, _, err := avc.ParseAVCDecoderConfigurationRecord(d.Tag.Data[5:])
	if err != nil {
		return
	}
	p.loggedVideo = true
	if p.logger == nil {
		return
	}
	if width, height, err := avc.H264Dimensions(sps); err == nil {
		p.logger.Info("detected video parameters", "codec", "h264", "width", width, "height", height)
	} else {
		p.logger.Debug("h264 sequence header seen but SPS did not parse", "error", err)
	}
}

func (p *CodecProbe) probeAudio(d flv.Data) {
	if p.loggedAudio || len(d.Tag.Data) < 3 {
		return
	}
	soundFormat := (d.Tag.Data[0] >> 4) & 0x0F
	if soundFormat != 10 { // AAC
		return
	}
	cfg, err := audio.ParseAudioSpecificConfig(d.Tag.Data[2:])
	if err != nil {
		return
	}
	p.loggedAudio = true
	if p.logger != nil {
		p.logger.Info("detected audio parameters", "codec", "aac", "sample_rate", cfg.SampleRate, "channels", cfg.ChannelCount)
	}
}
