// Package session owns the state machine behind one speech-translation
// session: language pair, transcript, translation, and the
// Idle/Recording/Processing lifecycle tying microphone capture to the
// remote calls.
//
// The two primary flows (audio-translate and text-translate) are mutually
// exclusive; Processing is the lock. Speak is a side-flow and deliberately
// bypasses it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"parlo/audio"
	"parlo/log"
	"parlo/remote"
)

type State int

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return "unknown"
}

// ErrBusy is returned when an operation needs the session but a primary
// flow is in flight.
var ErrBusy = errors.New("translation in flight")

// Capture is the slice of the recorder the controller drives.
type Capture interface {
	Open() error
	Start() error
	Stop() (*audio.Take, error)
	Close()
}

// Player plays a synthesized-audio reference.
type Player interface {
	Play(ctx context.Context, ref string) error
}

type Config struct {
	Source        string
	Target        string
	RemoteTimeout time.Duration // 0 means DefaultRemoteTimeout
}

// DefaultRemoteTimeout bounds a primary flow; a backend that never answers
// would otherwise pin the session in Processing forever.
const DefaultRemoteTimeout = 60 * time.Second

// Snapshot is the read surface handed to the presentation layer.
type Snapshot struct {
	Source      string
	Target      string
	Transcript  string
	Translation string
	State       State
}

type Controller struct {
	capture Capture
	client  remote.Client
	player  Player
	timeout time.Duration

	mu          sync.Mutex
	state       State
	source      string
	target      string
	transcript  string
	translation string
	done        int // completed translations, for the session-end log line
}

func New(capture Capture, client remote.Client, player Player, cfg Config) *Controller {
	timeout := cfg.RemoteTimeout
	if timeout == 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Controller{
		capture: capture,
		client:  client,
		player:  player,
		timeout: timeout,
		source:  cfg.Source,
		target:  cfg.Target,
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Source:      c.source,
		Target:      c.target,
		Transcript:  c.transcript,
		Translation: c.translation,
		State:       c.state,
	}
}

// StartRecording opens the microphone and enters Recording. A fresh take
// discards the previous transcript and translation. Calling it while
// already Recording (or while Processing, where the UI disables the
// control) is a no-op.
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return nil
	}
	if err := c.capture.Open(); err != nil {
		log.Errorf("microphone open: %v", err)
		return err
	}
	if err := c.capture.Start(); err != nil {
		c.capture.Close()
		log.Errorf("capture start: %v", err)
		return err
	}
	c.transcript = ""
	c.translation = ""
	c.state = Recording
	log.Info("recording_start")
	return nil
}

// StopRecording seals the take and runs the audio-translate flow. An empty
// take is absorbed: straight back to Idle, no remote call, no error. The
// call blocks until the backend answers or the timeout fires.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	if c.state != Recording {
		c.mu.Unlock()
		return nil
	}
	take, err := c.capture.Stop()
	if err != nil {
		c.state = Idle
		c.mu.Unlock()
		if errors.Is(err, audio.ErrEmptyCapture) {
			log.Info("empty_capture")
			return nil
		}
		log.Errorf("capture stop: %v", err)
		return err
	}
	c.state = Processing
	src, tgt := c.source, c.target
	c.mu.Unlock()
	log.Info("recording_stop")

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	res, err := c.client.TranslateAudio(ctx, take, src, tgt)

	c.mu.Lock()
	c.state = Idle
	if err != nil {
		c.mu.Unlock()
		log.Errorf("translate audio: %v", err)
		return err
	}
	c.transcript = res.Transcript
	c.translation = res.Translation
	c.done++
	c.mu.Unlock()

	log.TranslationText(src, tgt, res.Transcript, res.Translation)
	if res.AudioURL != "" {
		c.autoplay(res.AudioURL)
	}
	return nil
}

// Retranslate re-submits the current (possibly hand-edited) transcript.
// Empty or whitespace transcript is a local no-op. Only the translation is
// overwritten; on failure it is left untouched.
func (c *Controller) Retranslate() error {
	c.mu.Lock()
	if c.state == Processing {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	text := strings.TrimSpace(c.transcript)
	if text == "" {
		c.mu.Unlock()
		return nil
	}
	c.state = Processing
	src, tgt := c.source, c.target
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	res, err := c.client.TranslateText(ctx, text, src, tgt)

	c.mu.Lock()
	c.state = Idle
	if err != nil {
		c.mu.Unlock()
		log.Errorf("translate text: %v", err)
		return err
	}
	c.translation = res.Translation
	c.done++
	c.mu.Unlock()

	log.TranslationText(src, tgt, text, res.Translation)
	return nil
}

// SwapLanguages exchanges the language pair and the transcript/translation
// pair in one step, so the translation becomes the new source without a
// round trip. Rejected while a primary flow is in flight.
func (c *Controller) SwapLanguages() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Processing {
		return ErrBusy
	}
	c.source, c.target = c.target, c.source
	c.transcript, c.translation = c.translation, c.transcript
	return nil
}

// Speak synthesizes text in the given language and plays it. A side-flow:
// it never touches recordingState and may overlap a primary flow or other
// Speak calls. Empty text is a local no-op.
func (c *Controller) Speak(text, lang string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	res, err := c.client.SpeakText(ctx, text, lang)
	if err != nil {
		log.Errorf("speak text: %v", err)
		return err
	}
	if res.AudioURL == "" {
		err := errors.New("speak-text returned no audio reference")
		log.Errorf("speak text: %v", err)
		return err
	}
	c.autoplay(res.AudioURL)
	return nil
}

// SetTranscript applies a hand edit. Edits are only meaningful in Idle;
// they do not re-translate — the translation goes stale until Retranslate.
func (c *Controller) SetTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		c.transcript = text
	}
}

// SetLanguages replaces the pair. Ignored while a primary flow is in
// flight, so an in-flight request's codes stay consistent.
func (c *Controller) SetLanguages(src, tgt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Processing {
		return
	}
	if src != "" {
		c.source = src
	}
	if tgt != "" {
		c.target = tgt
	}
}

// Completed reports how many primary flows finished successfully.
func (c *Controller) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Close releases the capture unit. Safe in any state.
func (c *Controller) Close() {
	c.capture.Close()
	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
}

// autoplay is fire-and-forget: playback never blocks a result and its
// failures are logged, not surfaced.
func (c *Controller) autoplay(ref string) {
	go func() {
		if err := c.player.Play(context.Background(), ref); err != nil {
			log.Warnf("playback: %v", err)
		}
	}()
}
