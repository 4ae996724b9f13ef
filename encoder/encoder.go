// Package encoder turns captured PCM16 blocks into a finished audio
// container for upload. The container is picked once per take by walking a
// preference-ordered list and taking the first format this build can
// actually construct.
package encoder

import (
	"errors"
	"fmt"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Format string

const (
	FormatOpus Format = "opus"
	FormatFLAC Format = "flac"
	FormatWAV  Format = "wav"
)

// Preferred is the default negotiation order: an opus container when an
// encoder for it is linked in, then FLAC, then plain WAV as the generic
// fallback every backend accepts.
var Preferred = []Format{FormatOpus, FormatFLAC, FormatWAV}

var ErrUnsupported = errors.New("unsupported audio format")

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New constructs an encoder for a single format.
func New(f Format) (Encoder, error) {
	switch f {
	case FormatFLAC:
		return NewFLAC()
	case FormatWAV:
		return NewWAV(), nil
	case FormatOpus:
		// No opus encoder is linked into this build; negotiation moves on.
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
}

// Negotiate returns the first constructible encoder from prefs, or from
// Preferred when prefs is empty. This is evaluated once at capture start,
// never retried mid-take.
func Negotiate(prefs []Format) (Encoder, Format, error) {
	if len(prefs) == 0 {
		prefs = Preferred
	}
	for _, f := range prefs {
		enc, err := New(f)
		if err == nil {
			return enc, f, nil
		}
		if !errors.Is(err, ErrUnsupported) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: no usable format in %v", ErrUnsupported, prefs)
}
