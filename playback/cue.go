package playback

import (
	"math"
	"sync"
)

// Recording cues: a short high tick when capture starts, a slightly longer
// medium tick when it stops.

type Cue int

const (
	CueStart Cue = iota
	CueEnd
)

const (
	cueSampleRate = 44100

	startFreq   = 1200.0
	startVolume = 0.5
	startDecay  = 60.0

	endFreq   = 900.0
	endVolume = 0.5
	endDecay  = 40.0
)

var (
	startSamples []int16
	endSamples   []int16
	cueOnce      sync.Once
)

func initCues() {
	startSamples = generateTick(cueSampleRate, startFreq, 0.2, startVolume, startDecay)
	endSamples = generateTick(cueSampleRate, endFreq, 0.2, endVolume, endDecay)
}

func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

// PlayCue plays a recording cue in the background.
func (p *Player) PlayCue(c Cue) {
	cueOnce.Do(initCues)
	samples := startSamples
	if c == CueEnd {
		samples = endSamples
	}
	go p.out.play(samples, cueSampleRate, 1)
}
