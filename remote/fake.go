package remote

import (
	"context"
	"sync"
	"time"

	"parlo/audio"
)

// Fake is a scripted Client for tests. Results and errors are configured up
// front; calls are recorded with their arguments. When Delay is set, each
// primary call waits it out or fails with the context's error, mirroring the
// real client's timeout behavior.
type Fake struct {
	AudioResult Result
	AudioErr    error
	TextResult  Result
	TextErr     error
	SpeakResult Result
	SpeakErr    error
	Delay       time.Duration

	mu         sync.Mutex
	AudioCalls []AudioCall
	TextCalls  []TextCall
	SpeakCalls []SpeakCall
}

type AudioCall struct {
	Take *audio.Take
	Src  string
	Tgt  string
}

type TextCall struct {
	Text string
	Src  string
	Tgt  string
}

type SpeakCall struct {
	Text string
	Lang string
}

func (f *Fake) wait(ctx context.Context) error {
	if f.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ErrUnreachable
	}
}

func (f *Fake) TranslateAudio(ctx context.Context, take *audio.Take, src, tgt string) (Result, error) {
	f.mu.Lock()
	f.AudioCalls = append(f.AudioCalls, AudioCall{Take: take, Src: src, Tgt: tgt})
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return Result{}, err
	}
	if f.AudioErr != nil {
		return Result{}, f.AudioErr
	}
	return f.AudioResult, nil
}

func (f *Fake) TranslateText(ctx context.Context, text, src, tgt string) (Result, error) {
	f.mu.Lock()
	f.TextCalls = append(f.TextCalls, TextCall{Text: text, Src: src, Tgt: tgt})
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return Result{}, err
	}
	if f.TextErr != nil {
		return Result{}, f.TextErr
	}
	return f.TextResult, nil
}

func (f *Fake) SpeakText(ctx context.Context, text, lang string) (Result, error) {
	f.mu.Lock()
	f.SpeakCalls = append(f.SpeakCalls, SpeakCall{Text: text, Lang: lang})
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return Result{}, err
	}
	if f.SpeakErr != nil {
		return Result{}, f.SpeakErr
	}
	return f.SpeakResult, nil
}
