package encoder

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sineBlock(n int) []int16 {
	block := make([]int16, n)
	for i := range block {
		block[i] = int16(math.Sin(2*math.Pi*440*float64(i)/SampleRate) * 16000)
	}
	return block
}

func TestNegotiateSkipsOpus(t *testing.T) {
	enc, format, err := Negotiate(nil)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if format == FormatOpus {
		t.Fatal("negotiation selected opus with no opus encoder linked in")
	}
	if format != FormatFLAC {
		t.Errorf("format = %q, want flac as first fallback", format)
	}
	if enc == nil {
		t.Fatal("nil encoder")
	}
}

func TestNegotiateExplicitPrefs(t *testing.T) {
	_, format, err := Negotiate([]Format{FormatWAV})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if format != FormatWAV {
		t.Errorf("format = %q, want wav", format)
	}
}

func TestNegotiateNothingUsable(t *testing.T) {
	_, _, err := Negotiate([]Format{FormatOpus, Format("mp3")})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestWAVHeader(t *testing.T) {
	enc := NewWAV()
	block := sineBlock(BlockSize)
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := enc.Bytes()
	if len(b) != wavHeaderSize+len(block)*2 {
		t.Fatalf("len = %d, want %d", len(b), wavHeaderSize+len(block)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	dataSize := binary.LittleEndian.Uint32(b[40:44])
	if dataSize != uint32(len(block)*2) {
		t.Errorf("data size = %d, want %d", dataSize, len(block)*2)
	}
	if chunkSize := binary.LittleEndian.Uint32(b[4:8]); chunkSize != 36+dataSize {
		t.Errorf("chunk size = %d, want %d", chunkSize, 36+dataSize)
	}
	if enc.TotalFrames() != uint64(len(block)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(block))
	}
}

func TestWAVDataSectionExact(t *testing.T) {
	enc := NewWAV()
	blocks := [][]int16{{1, -2, 3}, {4, 5}, {-6}}
	var want []byte
	for _, blk := range blocks {
		if err := enc.EncodeBlock(blk); err != nil {
			t.Fatalf("EncodeBlock: %v", err)
		}
		for _, s := range blk {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(s))
			want = append(want, b[:]...)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	got := enc.Bytes()[wavHeaderSize:]
	if string(got) != string(want) {
		t.Errorf("data section = %v, want %v", got, want)
	}
}

func TestFLACEncoder(t *testing.T) {
	enc, err := NewFLAC()
	if err != nil {
		t.Fatalf("NewFLAC: %v", err)
	}

	var totalFed uint64
	for i := 0; i < 4; i++ {
		block := sineBlock(BlockSize)
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}
	// Partial trailing block, as produced when a take is sealed.
	partial := sineBlock(BlockSize / 3)
	if err := enc.EncodeBlock(partial); err != nil {
		t.Fatalf("EncodeBlock partial: %v", err)
	}
	totalFed += uint64(len(partial))

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}
	out := enc.Bytes()
	if len(out) < 4 || string(out[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFLACEncoderEmpty(t *testing.T) {
	enc, err := NewFLAC()
	if err != nil {
		t.Fatalf("NewFLAC: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}
