package audio

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/gopxl/beep"
)

// Jukebox holds a theme per combatant and plays the weapon holder's theme.
// It is the match's Notifier and a beep.Streamer over whatever is playing.
type Jukebox struct {
	mu sync.Mutex

	tracks    map[string]*Track
	current   *Track
	currentID string
	enabled   bool
	format    beep.Format
}

// NewJukebox creates an empty jukebox producing stereo at sampleRate.
func NewJukebox(sampleRate int) *Jukebox {
	return &Jukebox{
		tracks:  make(map[string]*Track),
		enabled: true,
		format: beep.Format{
			SampleRate:  beep.SampleRate(sampleRate),
			NumChannels: 2,
			Precision:   2,
		},
	}
}

// LoadTracks loads one theme per combatant id. Failures are logged and the
// combatant is left without music.
func (j *Jukebox) LoadTracks(paths map[string]string, volume float64) {
	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		t, err := LoadTrack(paths[id], volume, int(j.format.SampleRate))
		if err != nil {
			log.Printf("⚠️ Theme for %s disabled: %v", id, err)
			continue
		}
		j.AddTrack(id, t)
	}
}

// AddTrack sets the theme for id, replacing any previous one.
func (j *Jukebox) AddTrack(id string, t *Track) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if old, ok := j.tracks[id]; ok && old != t {
		if j.current == old {
			j.current, j.currentID = nil, ""
		}
		old.Close()
	}
	j.tracks[id] = t
}

// SetEnabled mutes or unmutes output without touching the playing state.
func (j *Jukebox) SetEnabled(enabled bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.enabled = enabled
}

// OnWeaponPickup rewinds and plays the new holder's theme.
func (j *Jukebox) OnWeaponPickup(combatantID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.current, j.currentID = nil, ""

	t, ok := j.tracks[combatantID]
	if !ok || !t.IsLoaded() {
		return fmt.Errorf("%w for %s", ErrNoTrack, combatantID)
	}
	if err := t.Rewind(); err != nil {
		return fmt.Errorf("rewind theme for %s: %w", combatantID, err)
	}
	j.current, j.currentID = t, combatantID
	log.Printf("🎵 Playing theme for %s", combatantID)
	return nil
}

// OnWeaponDropped stops all music.
func (j *Jukebox) OnWeaponDropped() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current != nil {
		log.Printf("🔇 Theme for %s stopped", j.currentID)
	}
	j.current, j.currentID = nil, ""
	return nil
}

// Playing returns the id whose theme is playing, or "".
func (j *Jukebox) Playing() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.currentID
}

// Format returns the output format.
func (j *Jukebox) Format() beep.Format {
	return j.format
}

// Stream fills samples with the current theme or silence. It never ends.
func (j *Jukebox) Stream(samples [][2]float64) (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current == nil || !j.enabled {
		silence(samples)
		return len(samples), true
	}
	return j.current.Stream(samples)
}

// Err always returns nil; track errors surface as silence.
func (j *Jukebox) Err() error {
	return nil
}

// Close releases every track.
func (j *Jukebox) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var firstErr error
	for id, t := range j.tracks {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close theme for %s: %w", id, err)
		}
	}
	j.current, j.currentID = nil, ""
	return firstErr
}
