package audio

import (
	"encoding/binary"
	"errors"
	"testing"

	"parlo/encoder"
)

func pcmChunk(samples ...int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func newTestRecorder(ctx *FakeContext) *Recorder {
	return NewRecorder(ctx, nil, CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	}, encoder.FormatWAV)
}

func TestRecorderSealsChunksInOrder(t *testing.T) {
	chunks := [][]byte{
		pcmChunk(1, 2, 3),
		pcmChunk(4, 5),
		pcmChunk(6, 7, 8, 9),
	}
	ctx := &FakeContext{Chunks: chunks}
	r := newTestRecorder(ctx)

	if err := r.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	take, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if take.Format != encoder.FormatWAV {
		t.Errorf("format = %q, want wav", take.Format)
	}
	var want []byte
	for _, c := range chunks {
		want = append(want, c...)
	}
	got := take.Data[44:] // past the WAV header
	if string(got) != string(want) {
		t.Errorf("take data = %v, want concatenation of fed chunks %v", got, want)
	}
	if take.Frames != 9 {
		t.Errorf("frames = %d, want 9", take.Frames)
	}
}

func TestRecorderEmptyCapture(t *testing.T) {
	ctx := &FakeContext{} // no chunks
	r := newTestRecorder(ctx)

	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	take, err := r.Stop()
	if !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("err = %v, want ErrEmptyCapture", err)
	}
	if take != nil {
		t.Error("expected nil take for empty capture")
	}
}

func TestRecorderStartIdempotent(t *testing.T) {
	ctx := &FakeContext{Chunks: [][]byte{pcmChunk(1, 2)}}
	r := newTestRecorder(ctx)

	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Errorf("second Start: %v, want no-op nil", err)
	}
	if opened, _ := ctx.Closed(); opened != 1 {
		t.Errorf("opened %d devices, want 1", opened)
	}
	r.Close()
}

func TestRecorderOpenFailure(t *testing.T) {
	ctx := &FakeContext{OpenErr: ErrFakeDevice}
	r := newTestRecorder(ctx)

	err := r.Open()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want ErrDeviceUnavailable", err)
	}
}

func TestRecorderReleasesDevice(t *testing.T) {
	ctx := &FakeContext{Chunks: [][]byte{pcmChunk(1)}}
	r := newTestRecorder(ctx)

	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	opened, closed := ctx.Closed()
	if opened != 1 || closed != 1 {
		t.Errorf("opened=%d closed=%d, want 1/1 after Stop", opened, closed)
	}

	// A fresh take reacquires the device.
	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	r.Close()
	opened, closed = ctx.Closed()
	if opened != 2 || closed != 2 {
		t.Errorf("opened=%d closed=%d, want 2/2 after Close", opened, closed)
	}
}

func TestRecorderReleasesOnEmptyCapture(t *testing.T) {
	ctx := &FakeContext{}
	r := newTestRecorder(ctx)

	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatal(err)
	}
	if opened, closed := ctx.Closed(); opened != closed {
		t.Errorf("device handle leaked: opened=%d closed=%d", opened, closed)
	}
}

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Jabra Elite 75t", true},
		{"Built-in Microphone", false},
		{"USB Audio Device", false},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
