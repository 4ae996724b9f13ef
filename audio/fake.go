package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// FakeContext scripts capture for tests: each Start feeds Chunks through
// the callback from a background goroutine, then goes quiet until Stop.
type FakeContext struct {
	Chunks  [][]byte // raw PCM16 fed per Start, in order
	OpenErr error    // returned by NewCapture when set
	StartErr error   // returned by CaptureDevice.Start when set

	mu       sync.Mutex
	captures []*FakeCapture
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake mic"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	c := &FakeCapture{chunks: f.Chunks, startErr: f.StartErr}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// Closed reports how many capture devices were handed out and how many of
// them were released again.
func (f *FakeContext) Closed() (opened, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.captures {
		if c.closed.Load() {
			closed++
		}
	}
	return len(f.captures), closed
}

type FakeCapture struct {
	chunks   [][]byte
	startErr error

	callback atomic.Pointer[DataCallback]
	closed   atomic.Bool

	mu       sync.Mutex
	feedDone chan struct{}
}

func (c *FakeCapture) Start() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedDone = make(chan struct{})
	go func(done chan<- struct{}) {
		defer close(done)
		for _, chunk := range c.chunks {
			cb := c.callback.Load()
			if cb == nil {
				return
			}
			data := make([]byte, len(chunk))
			copy(data, chunk)
			(*cb)(data, uint32(len(chunk)/2))
		}
	}(c.feedDone)
	return nil
}

// Stop joins the feed goroutine, matching the real backends: after Stop
// returns no callback is running or will run.
func (c *FakeCapture) Stop() {
	c.mu.Lock()
	done := c.feedDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *FakeCapture) Close() {
	c.Stop()
	c.closed.Store(true)
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *FakeCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *FakeCapture) DeviceName() string { return "fake mic" }

// ErrFakeDevice is a convenience for scripting open failures.
var ErrFakeDevice = errors.New("fake device failure")
