package parameter

import "time"

// Audio cue
const (
	// AudioSampleRate is the speaker sample rate
	AudioSampleRate = 44100

	// AudioBufferDuration is the speaker buffer length
	AudioBufferDuration = 100 * time.Millisecond

	// AudioCueFrequency is the tone played when the best match improves
	AudioCueFrequency = 880.0

	// AudioCueDuration is the tone length
	AudioCueDuration = 50 * time.Millisecond
)
