// Package audio plays each combatant's theme while it holds the weapon.
package audio

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
)

// ErrNoTrack is returned when a combatant has no playable theme.
var ErrNoTrack = errors.New("no track")

// Track streams one OGG Vorbis theme with on-demand decoding and loops it
// for as long as it is read. A track that failed to load yields silence.
type Track struct {
	mu sync.Mutex

	path string

	// Decoded audio stream from the OGG file
	streamer beep.StreamSeekCloser
	format   beep.Format

	// Resampled stream (if the file rate differs from the output rate)
	resampled beep.Streamer

	volume float64
	loaded bool
}

// LoadTrack opens path for streaming. On failure it still returns a silent
// track together with the error, so callers can log and carry on.
func LoadTrack(path string, volume float64, sampleRate int) (*Track, error) {
	t := &Track{path: path, volume: clampVolume(volume)}

	file, err := os.Open(path)
	if err != nil {
		return t, fmt.Errorf("open track %s: %w", path, err)
	}

	// Sets up streaming, NOT a full decode
	streamer, format, err := vorbis.Decode(file)
	if err != nil {
		file.Close()
		return t, fmt.Errorf("decode track %s: %w", path, err)
	}

	t.attach(streamer, format, sampleRate)
	log.Printf("✅ Theme loaded: %s (%d Hz, %d channels)", path, format.SampleRate, format.NumChannels)
	return t, nil
}

// NewTrack wraps an already decoded stream.
func NewTrack(streamer beep.StreamSeekCloser, format beep.Format, volume float64, sampleRate int) *Track {
	t := &Track{path: "<stream>", volume: clampVolume(volume)}
	t.attach(streamer, format, sampleRate)
	return t
}

func (t *Track) attach(streamer beep.StreamSeekCloser, format beep.Format, sampleRate int) {
	t.streamer = streamer
	t.format = format
	t.loaded = true

	// Resample for correct playback speed and pitch
	if int(format.SampleRate) != sampleRate {
		log.Printf("   Resampling %s from %d Hz to %d Hz", t.path, format.SampleRate, sampleRate)
		t.resampled = beep.Resample(4, format.SampleRate, beep.SampleRate(sampleRate), streamer)
	} else {
		t.resampled = streamer
	}
}

// Rewind restarts the theme from the beginning.
func (t *Track) Rewind() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		return nil
	}
	return t.streamer.Seek(0)
}

// Stream fills samples, looping at the end of the file. It always fills the
// whole buffer and never reports exhaustion.
func (t *Track) Stream(samples [][2]float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		silence(samples)
		return len(samples), true
	}

	filled, empty := 0, 0
	for filled < len(samples) {
		n, ok := t.resampled.Stream(samples[filled:])
		filled += n
		if filled == len(samples) {
			break
		}
		if n == 0 {
			// Two empty reads in a row: the file has no audio
			if empty++; empty > 1 {
				silence(samples[filled:])
				break
			}
		} else {
			empty = 0
		}
		if !ok || n == 0 {
			if err := t.streamer.Seek(0); err != nil {
				log.Printf("⚠️ Theme loop seek failed: %v", err)
				silence(samples[filled:])
				break
			}
		}
	}

	vol := t.volume
	for i := range samples {
		samples[i][0] *= vol
		samples[i][1] *= vol
	}
	return len(samples), true
}

// Err reports a decoder error, if any.
func (t *Track) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loaded {
		return nil
	}
	return t.streamer.Err()
}

// SetVolume adjusts the track volume (0.0 to 1.0).
func (t *Track) SetVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = clampVolume(v)
}

// IsLoaded returns true if the file was decoded.
func (t *Track) IsLoaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// Close releases the decoder.
func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		return nil
	}
	t.loaded = false
	return t.streamer.Close()
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func silence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
}
