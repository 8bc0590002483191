package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// HealthEntry is one row of the per-tick health report.
type HealthEntry struct {
	ID     string `json:"id" msgpack:"id"`
	Health int    `json:"health" msgpack:"health"`
}

// Snapshot is what Tick returns: health per active combatant in roster order.
type Snapshot struct {
	Tick       uint64        `json:"tick" msgpack:"tick"`
	Combatants []HealthEntry `json:"combatants" msgpack:"combatants"`
	Finished   bool          `json:"finished" msgpack:"finished"`
	Winner     string        `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Combatants = append([]HealthEntry(nil), s.Combatants...)
	return out
}

// CombatantView is an immutable copy of combatant state for rendering.
// Uses value types so a held view never changes under the reader.
type CombatantView struct {
	ID          string  `json:"id" msgpack:"id"`
	Color       string  `json:"color" msgpack:"color"`
	X           float64 `json:"x" msgpack:"x"`
	Y           float64 `json:"y" msgpack:"y"`
	Size        float64 `json:"size" msgpack:"size"`
	Rotation    float64 `json:"rotation" msgpack:"rotation"`
	Health      int     `json:"health" msgpack:"health"`
	MaxHealth   int     `json:"maxHealth" msgpack:"maxHealth"`
	DamageFlash int     `json:"damageFlash" msgpack:"damageFlash"`
	HoldsWeapon bool    `json:"holdsWeapon" msgpack:"holdsWeapon"`

	SpeedMultiplier float64 `json:"speedMultiplier" msgpack:"speedMultiplier"`
	SizeMultiplier  float64 `json:"sizeMultiplier" msgpack:"sizeMultiplier"`
	SpeedUpTicks    int     `json:"speedUpTicks" msgpack:"speedUpTicks"`
	SupersizeTicks  int     `json:"supersizeTicks" msgpack:"supersizeTicks"`
}

// WeaponView is an immutable copy of weapon state for rendering.
type WeaponView struct {
	X                float64 `json:"x" msgpack:"x"`
	Y                float64 `json:"y" msgpack:"y"`
	Size             float64 `json:"size" msgpack:"size"`
	Rotation         float64 `json:"rotation" msgpack:"rotation"`
	State            string  `json:"state" msgpack:"state"`
	OwnerID          string  `json:"ownerId,omitempty" msgpack:"ownerId,omitempty"`
	Edge             string  `json:"edge,omitempty" msgpack:"edge,omitempty"`
	CooldownProgress float64 `json:"cooldownProgress" msgpack:"cooldownProgress"`
}

// View is a complete immutable match state for rendering.
type View struct {
	Sequence  uint64    `json:"sequence" msgpack:"seq"`
	Timestamp time.Time `json:"timestamp" msgpack:"ts"`
	Tick      uint64    `json:"tick" msgpack:"tick"`

	ArenaWidth  float64 `json:"arenaWidth" msgpack:"w"`
	ArenaHeight float64 `json:"arenaHeight" msgpack:"h"`

	Combatants []CombatantView `json:"combatants" msgpack:"combatants"`
	Weapon     WeaponView      `json:"weapon" msgpack:"weapon"`

	Finished bool   `json:"finished" msgpack:"finished"`
	Winner   string `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

// Holder returns the combatant holding the weapon, if any.
func (v View) Holder() (CombatantView, bool) {
	for _, c := range v.Combatants {
		if c.HoldsWeapon {
			return c, true
		}
	}
	return CombatantView{}, false
}

// Combatant returns the view of id, if it is still active.
func (v View) Combatant(id string) (CombatantView, bool) {
	for _, c := range v.Combatants {
		if c.ID == id {
			return c, true
		}
	}
	return CombatantView{}, false
}

// SnapshotPool pre-allocates views to avoid GC pressure.
// Uses triple buffering so renderers never wait on the tick.
type SnapshotPool struct {
	views    [3]View
	locks    [3]sync.RWMutex
	writeIdx uint32 // atomic - producer index
	readIdx  uint32 // atomic - consumer index
	sequence uint64 // atomic - monotonic sequence
	writing  int32  // slot held by the producer, -1 when idle
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(maxCombatants int) *SnapshotPool {
	pool := &SnapshotPool{writing: -1}
	for i := range pool.views {
		pool.views[i].Combatants = make([]CombatantView, 0, maxCombatants)
	}
	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the tick).
// The slot stays locked until PublishWrite.
func (p *SnapshotPool) AcquireWrite() *View {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	p.locks[idx].Lock()
	p.writing = int32(idx)

	v := &p.views[idx]
	v.Combatants = v.Combatants[:0]
	v.Weapon = WeaponView{}
	v.Finished = false
	v.Winner = ""
	v.Sequence = atomic.AddUint64(&p.sequence, 1)
	return v
}

// PublishWrite releases the write slot and makes it the latest view.
func (p *SnapshotPool) PublishWrite() {
	idx := uint32(p.writing)
	p.writing = -1
	p.locks[idx].Unlock()
	atomic.StoreUint32(&p.readIdx, idx)
}

// Latest returns a copy of the most recently published view.
func (p *SnapshotPool) Latest() View {
	for {
		idx := atomic.LoadUint32(&p.readIdx) % 3
		p.locks[idx].RLock()
		// The producer may have lapped us onto this slot; retry on the new one
		if atomic.LoadUint32(&p.readIdx)%3 != idx {
			p.locks[idx].RUnlock()
			continue
		}
		out := p.views[idx]
		out.Combatants = append([]CombatantView(nil), p.views[idx].Combatants...)
		p.locks[idx].RUnlock()
		return out
	}
}
