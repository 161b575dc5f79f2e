// Package audio plays short cues while a search runs
package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/parameter"
)

const (
	sampleRate = beep.SampleRate(parameter.AudioSampleRate)
)

// SoundManager plays a tone whenever the search finds a better match
// A manager that failed to initialize stays silent; callers never need to check
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSoundManager creates a silent sound manager
func NewSoundManager() *SoundManager {
	return &SoundManager{
		mixer: &beep.Mixer{},
	}
}

// Initialize sets up the audio device
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	err := speaker.Init(sampleRate, sampleRate.N(parameter.AudioBufferDuration))
	if err != nil {
		return errors.Wrap(err, "speaker init")
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Enabled reports whether the audio device is active
func (sm *SoundManager) Enabled() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.initialized
}

// PlayImprovement queues the improvement tone
func (sm *SoundManager) PlayImprovement() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	t, err := tone(parameter.AudioCueFrequency)
	if err != nil {
		return
	}

	speaker.Lock()
	sm.mixer.Add(t)
	speaker.Unlock()
}

// Cleanup stops all sounds and closes the audio device
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}

	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	sm.initialized = false
}

// tone builds a finite sine burst of the cue length
func tone(freq float64) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil, err
	}
	return beep.Take(sampleRate.N(parameter.AudioCueDuration), sine), nil
}
