package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu         sync.Mutex
	calls      int
	samples    []int16
	sampleRate int
	channels   int
	err        error
}

func (s *fakeSink) play(samples []int16, sampleRate, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.samples = samples
	s.sampleRate = sampleRate
	s.channels = channels
	return s.err
}

func testPlayer(s sink) *Player {
	return &Player{
		http: &http.Client{Timeout: 5 * time.Second},
		out:  s,
	}
}

func wavFile(samples []int16, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 2
	b := make([]byte, 44+dataSize)
	copy(b[0:4], "RIFF")
	binary.LittleEndian.PutUint32(b[4:8], uint32(36+dataSize))
	copy(b[8:12], "WAVE")
	copy(b[12:16], "fmt ")
	binary.LittleEndian.PutUint32(b[16:20], 16)
	binary.LittleEndian.PutUint16(b[20:22], 1)
	binary.LittleEndian.PutUint16(b[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(b[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(b[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(b[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(b[34:36], 16)
	copy(b[36:40], "data")
	binary.LittleEndian.PutUint32(b[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[44+i*2:], uint16(s))
	}
	return b
}

func TestPlayFetchesAndDecodes(t *testing.T) {
	want := []int16{100, -200, 300, -400}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wavFile(want, 16000, 1))
	}))
	defer srv.Close()

	s := &fakeSink{}
	p := testPlayer(s)
	if err := p.Play(context.Background(), srv.URL+"/audio/x_tts.wav"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if s.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", s.calls)
	}
	if s.sampleRate != 16000 || s.channels != 1 {
		t.Errorf("rate/channels = %d/%d", s.sampleRate, s.channels)
	}
	if len(s.samples) != len(want) {
		t.Fatalf("samples = %d, want %d", len(s.samples), len(want))
	}
	for i := range want {
		if s.samples[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, s.samples[i], want[i])
		}
	}
}

func TestPlayHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := testPlayer(&fakeSink{})
	err := p.Play(context.Background(), srv.URL+"/audio/missing.wav")
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("err = %v, want ErrPlayback", err)
	}
}

func TestPlayNotWAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3 frames or whatever"))
	}))
	defer srv.Close()

	s := &fakeSink{}
	p := testPlayer(s)
	err := p.Play(context.Background(), srv.URL)
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("err = %v, want ErrPlayback", err)
	}
	if s.calls != 0 {
		t.Error("sink must not be touched on decode failure")
	}
}

func TestPlaySinkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wavFile([]int16{1, 2}, 8000, 1))
	}))
	defer srv.Close()

	p := testPlayer(&fakeSink{err: errors.New("device busy")})
	err := p.Play(context.Background(), srv.URL)
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("err = %v, want ErrPlayback", err)
	}
}

func TestDecodeWAVRejectsFloat(t *testing.T) {
	b := wavFile([]int16{1}, 8000, 1)
	binary.LittleEndian.PutUint16(b[20:22], 3) // IEEE float
	if _, _, _, err := decodeWAV(b); !errors.Is(err, ErrPlayback) {
		t.Fatalf("err = %v, want ErrPlayback", err)
	}
}

func TestDecodeWAVStereo(t *testing.T) {
	samples, rate, channels, err := decodeWAV(wavFile([]int16{1, 2, 3, 4}, 22050, 2))
	if err != nil {
		t.Fatal(err)
	}
	if rate != 22050 || channels != 2 || len(samples) != 4 {
		t.Errorf("got rate=%d channels=%d n=%d", rate, channels, len(samples))
	}
}

func TestPlayCue(t *testing.T) {
	s := &fakeSink{}
	p := testPlayer(s)
	p.PlayCue(CueStart)

	deadline := time.Now().Add(time.Second)
	for {
		s.mu.Lock()
		calls := s.calls
		s.mu.Unlock()
		if calls == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cue never reached the sink")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.mu.Lock()
	rate, channels := s.sampleRate, s.channels
	s.mu.Unlock()
	if rate != cueSampleRate || channels != 1 {
		t.Errorf("cue rate/channels = %d/%d", rate, channels)
	}
}
