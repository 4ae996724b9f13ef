package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"parlo/encoder"
)

var (
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrEmptyCapture      = errors.New("empty capture")
)

// Take is one sealed recording: the finished container plus the format it
// was negotiated into. Immutable after Stop returns it.
type Take struct {
	Format encoder.Format
	Data   []byte
	Frames uint64
}

// Recorder owns the exclusive device handle between Open and Stop/Close.
// PCM flows from the device callback through a block channel into an encode
// goroutine, so the audio thread never waits on the encoder.
type Recorder struct {
	ctx    Context
	device *DeviceInfo
	config CaptureConfig
	prefs  []encoder.Format

	mu         sync.Mutex
	capture    CaptureDevice
	enc        encoder.Encoder
	format     encoder.Format
	blocks     chan []int16
	encodeDone chan struct{}
	sampleBuf  []int16
	frames     uint64
	started    bool
}

// NewRecorder does not touch the device; Open does.
func NewRecorder(ctx Context, device *DeviceInfo, config CaptureConfig, prefs ...encoder.Format) *Recorder {
	return &Recorder{ctx: ctx, device: device, config: config, prefs: prefs}
}

// Open acquires the capture device. Idempotent while open.
func (r *Recorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		return nil
	}
	cap, err := r.ctx.NewCapture(r.device, r.config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	r.capture = cap
	return nil
}

// Start negotiates the container once and begins buffering. No-op if
// already started.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture == nil {
		return fmt.Errorf("%w: recorder not open", ErrDeviceUnavailable)
	}
	if r.started {
		return nil
	}

	enc, format, err := encoder.Negotiate(r.prefs)
	if err != nil {
		return err
	}
	r.enc = enc
	r.format = format
	r.frames = 0
	r.sampleBuf = nil
	r.blocks = make(chan []int16, 64)
	r.encodeDone = make(chan struct{})

	go func(enc encoder.Encoder, blocks <-chan []int16, done chan<- struct{}) {
		defer close(done)
		for block := range blocks {
			enc.EncodeBlock(block)
		}
	}(enc, r.blocks, r.encodeDone)

	r.capture.SetCallback(r.onData)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		close(r.blocks)
		<-r.encodeDone
		r.enc = nil
		return err
	}
	r.started = true
	return nil
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.frames += uint64(frameCount)
	for i := 0; i+1 < len(data); i += 2 {
		r.sampleBuf = append(r.sampleBuf, int16(binary.LittleEndian.Uint16(data[i:])))
	}
	var out [][]int16
	for len(r.sampleBuf) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, r.sampleBuf[:encoder.BlockSize])
		r.sampleBuf = r.sampleBuf[encoder.BlockSize:]
		out = append(out, block)
	}
	blocks := r.blocks
	r.mu.Unlock()

	for _, block := range out {
		blocks <- block
	}
}

// Stop seals the take and releases the device handle on every path. A take
// with zero buffered frames returns ErrEmptyCapture.
func (r *Recorder) Stop() (*Take, error) {
	r.mu.Lock()
	if !r.started {
		r.release()
		r.mu.Unlock()
		return nil, ErrEmptyCapture
	}
	cap := r.capture
	r.mu.Unlock()

	// Stop joins the device thread, so it must run without r.mu held:
	// a mid-flight callback needs the lock to finish.
	cap.Stop()
	cap.ClearCallback()

	r.mu.Lock()
	r.started = false
	// Flush the partial trailing block.
	if len(r.sampleBuf) > 0 {
		partial := make([]int16, len(r.sampleBuf))
		copy(partial, r.sampleBuf)
		r.sampleBuf = nil
		r.blocks <- partial
	}
	close(r.blocks)
	enc, format, frames, encodeDone := r.enc, r.format, r.frames, r.encodeDone
	r.enc = nil
	r.release()
	r.mu.Unlock()

	<-encodeDone

	if err := enc.Close(); err != nil {
		return nil, err
	}
	if frames == 0 {
		return nil, ErrEmptyCapture
	}
	return &Take{Format: format, Data: enc.Bytes(), Frames: frames}, nil
}

// Close tears down without producing a take.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.started {
		r.release()
		r.mu.Unlock()
		return
	}
	cap := r.capture
	r.mu.Unlock()

	cap.Stop()
	cap.ClearCallback()

	r.mu.Lock()
	r.started = false
	close(r.blocks)
	encodeDone := r.encodeDone
	r.enc = nil
	r.release()
	r.mu.Unlock()

	<-encodeDone
}

// release drops the device handle; caller holds r.mu.
func (r *Recorder) release() {
	if r.capture != nil {
		r.capture.Close()
		r.capture = nil
	}
}
