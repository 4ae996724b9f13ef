// Package playback fetches synthesized speech by reference and plays it on
// the default output device. Playback is always best-effort: every failure
// wraps ErrPlayback and callers are expected to log and move on.
package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrPlayback = errors.New("playback failed")

// 10 minutes of 48kHz stereo PCM16 is well under this.
const maxAudioBytes = 64 << 20

type sink interface {
	play(samples []int16, sampleRate, channels int) error
}

type Player struct {
	http *http.Client
	out  sink
}

func New() *Player {
	return &Player{
		http: &http.Client{Timeout: 30 * time.Second},
		out:  newSink(),
	}
}

// Play fetches a WAV by reference, decodes it and plays it to completion.
// Concurrent plays are allowed and not mixed down; the OS mixer handles
// overlap.
func (p *Player) Play(ctx context.Context, ref string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetching %s: %v", ErrPlayback, ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fetching %s: status %d", ErrPlayback, ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrPlayback, ref, err)
	}

	samples, rate, channels, err := decodeWAV(data)
	if err != nil {
		return err
	}
	if err := p.out.play(samples, rate, channels); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

// decodeWAV handles the PCM16 RIFF files the backend emits: a fmt chunk
// followed (not necessarily immediately) by a data chunk.
func decodeWAV(data []byte) (samples []int16, sampleRate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("%w: not a RIFF/WAVE file", ErrPlayback)
	}

	var pcm []byte
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body // tolerate truncated final chunk
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, fmt.Errorf("%w: short fmt chunk", ErrPlayback)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, 0, 0, fmt.Errorf("%w: unsupported WAV format %d", ErrPlayback, format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return nil, 0, 0, fmt.Errorf("%w: unsupported bit depth %d", ErrPlayback, bits)
			}
		case "data":
			pcm = data[body : body+size]
		}
		if size%2 == 1 {
			size++ // chunks are word-aligned
		}
		pos = body + size
	}

	if sampleRate == 0 || channels == 0 {
		return nil, 0, 0, fmt.Errorf("%w: missing fmt chunk", ErrPlayback)
	}
	if len(pcm) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: missing data chunk", ErrPlayback)
	}

	samples = make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples, sampleRate, channels, nil
}
