package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"arena-duel/internal/geom"
)

// Notifier receives weapon transitions. Implementations drive side effects
// such as theme music; errors and panics are logged and never stop a tick.
type Notifier interface {
	OnWeaponPickup(combatantID string) error
	OnWeaponDropped() error
}

// NopNotifier ignores every notification.
type NopNotifier struct{}

func (NopNotifier) OnWeaponPickup(string) error { return nil }
func (NopNotifier) OnWeaponDropped() error      { return nil }

// Entrant is a combatant's starting line: identity, spawn center, velocity.
type Entrant struct {
	ID       string
	Color    string
	Spawn    geom.Vec2
	Velocity geom.Vec2
}

// MatchConfig holds the arena layout and match rules.
type MatchConfig struct {
	ArenaWidth         float64
	ArenaHeight        float64
	CombatantSize      float64
	WeaponSize         float64
	WeaponSpawn        geom.Vec2
	WeaponCooldown     time.Duration
	SkillQueueSize     int
	SkillDurationTicks int
	Entrants           []Entrant
}

// DefaultMatchConfig returns the classic 800x600 blue-versus-red layout.
func DefaultMatchConfig() MatchConfig {
	return NewMatchConfig(800, 600, 70)
}

// NewMatchConfig lays out two combatants a quarter in from each side and
// the weapon in the middle, shifted down by topPadding.
func NewMatchConfig(width, height, topPadding float64) MatchConfig {
	midY := height*0.5 + topPadding
	return MatchConfig{
		ArenaWidth:         width,
		ArenaHeight:        height,
		CombatantSize:      CombatantSize,
		WeaponSize:         WeaponSize,
		WeaponSpawn:        geom.Vec2{X: width / 2, Y: midY},
		WeaponCooldown:     DefaultWeaponCooldown,
		SkillQueueSize:     32,
		SkillDurationTicks: SkillDurationTicks,
		Entrants: []Entrant{
			{ID: "A", Color: "blue", Spawn: geom.Vec2{X: width * 0.25, Y: midY}, Velocity: geom.Vec2{X: BaseSpeed, Y: BaseSpeed}},
			{ID: "B", Color: "red", Spawn: geom.Vec2{X: width * 0.75, Y: midY}, Velocity: geom.Vec2{X: BaseSpeed, Y: BaseSpeed}},
		},
	}
}

// MatchStats are cumulative counters across resets.
type MatchStats struct {
	Ticks      uint64
	Pickups    uint64
	Drops      uint64
	Hits       uint64
	Collisions uint64
	Finished   uint64
	Skills     uint64
}

type skillRequest struct {
	id   string
	kind Skill
}

// Match owns one duel: the combatants, the weapon and both clocks.
// Tick is the only writer of simulation state; skills are queued and
// applied at the start of the next tick.
type Match struct {
	mu  sync.RWMutex
	cfg MatchConfig

	ids    map[string]bool // roster, fixed at construction
	active []*Combatant
	weapon *Weapon

	tick     uint64
	finished bool
	winner   string
	silenced bool
	last     Snapshot
	stats    MatchStats

	clock    Clock
	notifier Notifier
	eventLog *EventLog
	pool     *SnapshotPool

	pendingMu sync.Mutex
	pending   []skillRequest
}

// NewMatch creates a match ready for its first tick.
func NewMatch(cfg MatchConfig) *Match {
	if cfg.SkillQueueSize <= 0 {
		cfg.SkillQueueSize = 32
	}
	if cfg.SkillDurationTicks <= 0 {
		cfg.SkillDurationTicks = SkillDurationTicks
	}
	m := &Match{
		cfg:      cfg,
		ids:      make(map[string]bool, len(cfg.Entrants)),
		clock:    SystemClock{},
		notifier: NopNotifier{},
		pool:     NewSnapshotPool(len(cfg.Entrants)),
		pending:  make([]skillRequest, 0, cfg.SkillQueueSize),
	}
	for _, e := range cfg.Entrants {
		m.ids[e.ID] = true
	}
	m.spawn()
	m.publish(m.clock.Now())
	return m
}

// SetNotifier installs the weapon transition listener.
func (m *Match) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == nil {
		n = NopNotifier{}
	}
	m.notifier = n
}

// SetClock replaces the cooldown clock.
func (m *Match) SetClock(c Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = c
}

// SetEventLog attaches an event log. Nil detaches it.
func (m *Match) SetEventLog(el *EventLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventLog = el
	el.EmitSimple(EventTypeMatchStart, m.clock.Now(), m.tick, "", m.startPayload())
}

// Config returns the match configuration.
func (m *Match) Config() MatchConfig {
	return m.cfg
}

func (m *Match) spawn() {
	m.active = m.active[:0]
	for _, e := range m.cfg.Entrants {
		pos := geom.Vec2{X: e.Spawn.X - m.cfg.CombatantSize/2, Y: e.Spawn.Y - m.cfg.CombatantSize/2}
		m.active = append(m.active, NewCombatant(e.ID, e.Color, pos, e.Velocity, m.cfg.CombatantSize, InitialRotationSpeed))
	}
	m.weapon = NewWeapon(m.cfg.WeaponSpawn, m.cfg.WeaponSize, m.cfg.WeaponCooldown)
	m.tick = 0
	m.finished = false
	m.winner = ""
	m.silenced = true
	m.last = m.snapshot()
}

// Reset starts a fresh match with the same roster. Queued skills are discarded.
func (m *Match) Reset() {
	m.pendingMu.Lock()
	m.pending = m.pending[:0]
	m.pendingMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.silenced {
		m.notifyDropped()
	}
	m.spawn()
	now := m.clock.Now()
	m.eventLog.EmitSimple(EventTypeMatchStart, now, 0, "", m.startPayload())
	m.publish(now)
	log.Printf("🔄 Match reset")
}

// ApplySkill queues a skill for the next tick boundary.
func (m *Match) ApplySkill(id string, kind Skill) error {
	if kind != SkillSpeedUp && kind != SkillSupersize {
		return fmt.Errorf("%w: %d", ErrUnknownSkill, kind)
	}
	if !m.ids[id] {
		return fmt.Errorf("%w: %q", ErrUnknownCombatant, id)
	}

	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	if len(m.pending) >= m.cfg.SkillQueueSize {
		return ErrSkillQueueFull
	}
	m.pending = append(m.pending, skillRequest{id: id, kind: kind})
	return nil
}

// HasCombatant reports whether id is on the roster.
func (m *Match) HasCombatant(id string) bool {
	return m.ids[id]
}

// Tick advances the match by one step and returns the health report.
func (m *Match) Tick() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tick++
	m.stats.Ticks++
	now := m.clock.Now()

	m.removeDead()

	if len(m.active) <= 1 {
		// Gameplay is frozen, so late skills would never expire
		m.discardSkills()
		m.finish(now)
		for _, c := range m.active {
			c.decayFlash()
		}
		m.weapon.Update(now, m.holder())
		m.last = m.snapshot()
		m.publish(now)
		return m.last.Clone()
	}

	m.drainSkills(now)

	w, h := m.cfg.ArenaWidth, m.cfg.ArenaHeight
	for _, c := range m.active {
		c.tickEffects(w, h)
		c.decayFlash()
	}

	m.weapon.Update(now, m.holder())
	m.checkPickups(now)

	if m.holder() == nil && !m.silenced {
		m.notifyDropped()
	}

	for _, c := range m.active {
		c.Move(w, h)
	}

	if len(m.active) == 2 {
		a, b := m.active[0], m.active[1]
		if DetectOverlap(a, b) {
			m.handleContact(a, b, Resolve(a, b, m.weapon, now), now)
		}
	}

	m.last = m.snapshot()
	if m.tick%TickEventInterval == 0 {
		m.eventLog.EmitSimple(EventTypeTick, now, m.tick, "", TickPayload{
			Active: len(m.active),
			Health: m.last.Combatants,
		})
	}
	m.publish(now)
	return m.last.Clone()
}

func (m *Match) drainSkills(now time.Time) {
	m.pendingMu.Lock()
	if len(m.pending) == 0 {
		m.pendingMu.Unlock()
		return
	}
	batch := make([]skillRequest, len(m.pending))
	copy(batch, m.pending)
	m.pending = m.pending[:0]
	m.pendingMu.Unlock()

	for _, req := range batch {
		c := m.find(req.id)
		if c == nil {
			log.Printf("⚠️ Skill %s for inactive combatant %s ignored", req.kind, req.id)
			continue
		}
		c.activate(req.kind, m.cfg.SkillDurationTicks, m.cfg.ArenaWidth, m.cfg.ArenaHeight)
		m.stats.Skills++
		m.eventLog.EmitSimple(EventTypeSkill, now, m.tick, c.ID, SkillPayload{
			Skill:         req.kind.String(),
			DurationTicks: m.cfg.SkillDurationTicks,
		})
		log.Printf("✨ %s activated %s for %d ticks", c.ID, req.kind, m.cfg.SkillDurationTicks)
	}
}

func (m *Match) discardSkills() {
	m.pendingMu.Lock()
	n := len(m.pending)
	m.pending = m.pending[:0]
	m.pendingMu.Unlock()

	if n > 0 {
		log.Printf("⚠️ %d skill(s) dropped, match is over", n)
	}
}

func (m *Match) removeDead() {
	alive := m.active[:0]
	for _, c := range m.active {
		if !c.IsDead {
			alive = append(alive, c)
			continue
		}
		if m.weapon.State == WeaponAttached && m.weapon.OwnerID == c.ID {
			m.weapon.Release()
		}
		c.HoldsWeapon = false
		log.Printf("💀 %s leaves the arena", c.ID)
	}
	for i := len(alive); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = alive
}

// finish runs once, on the first tick that finds at most one combatant.
func (m *Match) finish(now time.Time) {
	if m.finished {
		return
	}
	m.finished = true
	if len(m.active) == 1 {
		m.winner = m.active[0].ID
		log.Printf("🏆 %s wins after %d ticks", m.winner, m.tick)
	} else {
		log.Printf("🏁 Match over with no survivors after %d ticks", m.tick)
	}
	m.stats.Finished++
	m.notifyDropped()
	m.eventLog.EmitSimple(EventTypeWin, now, m.tick, "", WinPayload{WinnerID: m.winner, Ticks: m.tick})
}

func (m *Match) checkPickups(now time.Time) {
	for _, c := range m.active {
		if c.HoldsWeapon || !m.weapon.CanBePickedUp(now) {
			continue
		}
		edge, ok := DetectPickup(c, m.weapon)
		if !ok || !m.weapon.AttachTo(c, edge, now) {
			continue
		}
		m.stats.Pickups++
		m.silenced = false
		log.Printf("🗡️ %s picked up the weapon on its %s edge", c.ID, edge)
		m.eventLog.EmitSimple(EventTypePickup, now, m.tick, c.ID, PickupPayload{Edge: edge.String()})
		m.notify("pickup", func(n Notifier) error { return n.OnWeaponPickup(c.ID) })
	}
}

func (m *Match) handleContact(a, b *Combatant, contact Contact, now time.Time) {
	m.stats.Collisions++
	if contact.Degenerate {
		log.Printf("⚠️ Collision between %s and %s skipped: centers coincide", a.ID, b.ID)
		return
	}

	for _, hit := range contact.Hits {
		m.stats.Hits++
		victim := m.find(hit.DefenderID)
		hp := 0
		if victim != nil {
			hp = victim.Health
		}
		log.Printf("⚔️ %s hits %s for %d (HP: %d)", hit.AttackerID, hit.DefenderID, hit.Damage, hp)
		m.eventLog.EmitSimple(EventTypeDamage, now, m.tick, hit.AttackerID, DamagePayload{
			AttackerID: hit.AttackerID,
			VictimID:   hit.DefenderID,
			Damage:     hit.Damage,
			VictimHP:   hp,
		})
		if hit.Lethal {
			log.Printf("💀 %s killed by %s", hit.DefenderID, hit.AttackerID)
			m.eventLog.EmitSimple(EventTypeDeath, now, m.tick, hit.DefenderID, nil)
		}
	}

	if contact.Dropped {
		m.stats.Drops++
		holder := ""
		if len(contact.Hits) > 0 {
			holder = contact.Hits[0].AttackerID
		}
		m.eventLog.EmitSimple(EventTypeDrop, now, m.tick, holder, DropPayload{
			HolderID: holder,
			X:        contact.DropPoint.X,
			Y:        contact.DropPoint.Y,
		})
	}

	if contact.Bounced {
		m.eventLog.EmitSimple(EventTypeBounce, now, m.tick, "", BouncePayload{
			ImpactSpeed: contact.ImpactSpeed,
			Separated:   contact.Separated,
		})
	}
}

func (m *Match) notifyDropped() {
	m.silenced = true
	m.notify("dropped", func(n Notifier) error { return n.OnWeaponDropped() })
}

// notify shields the tick from a failing collaborator.
func (m *Match) notify(name string, call func(Notifier) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Notifier %s panicked: %v", name, r)
		}
	}()
	if err := call(m.notifier); err != nil {
		log.Printf("⚠️ Notifier %s failed: %v", name, err)
	}
}

func (m *Match) holder() *Combatant {
	for _, c := range m.active {
		if c.HoldsWeapon {
			return c
		}
	}
	return nil
}

func (m *Match) find(id string) *Combatant {
	for _, c := range m.active {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *Match) snapshot() Snapshot {
	s := Snapshot{
		Tick:       m.tick,
		Combatants: make([]HealthEntry, 0, len(m.active)),
		Finished:   m.finished,
		Winner:     m.winner,
	}
	for _, c := range m.active {
		s.Combatants = append(s.Combatants, HealthEntry{ID: c.ID, Health: c.Health})
	}
	return s
}

func (m *Match) startPayload() MatchStartPayload {
	ids := make([]string, 0, len(m.cfg.Entrants))
	for _, e := range m.cfg.Entrants {
		ids = append(ids, e.ID)
	}
	return MatchStartPayload{
		ArenaWidth:  m.cfg.ArenaWidth,
		ArenaHeight: m.cfg.ArenaHeight,
		Combatants:  ids,
	}
}

// publish copies the current state into the snapshot pool for readers.
func (m *Match) publish(now time.Time) {
	v := m.pool.AcquireWrite()
	v.Timestamp = now
	v.Tick = m.tick
	v.ArenaWidth = m.cfg.ArenaWidth
	v.ArenaHeight = m.cfg.ArenaHeight
	v.Finished = m.finished
	v.Winner = m.winner

	for _, c := range m.active {
		v.Combatants = append(v.Combatants, CombatantView{
			ID:              c.ID,
			Color:           c.Color,
			X:               c.Pos.X,
			Y:               c.Pos.Y,
			Size:            c.Size,
			Rotation:        c.Rotation,
			Health:          c.Health,
			MaxHealth:       c.MaxHealth,
			DamageFlash:     c.DamageFlash,
			HoldsWeapon:     c.HoldsWeapon,
			SpeedMultiplier: c.SpeedMultiplier,
			SizeMultiplier:  c.SizeMultiplier,
			SpeedUpTicks:    c.SpeedUpTicks,
			SupersizeTicks:  c.SupersizeTicks,
		})
	}

	w := m.weapon
	v.Weapon = WeaponView{
		X:                w.Pos.X,
		Y:                w.Pos.Y,
		Size:             w.Size,
		Rotation:         w.Rotation,
		State:            w.State.String(),
		CooldownProgress: w.CooldownProgress(now),
	}
	if w.State == WeaponAttached {
		v.Weapon.OwnerID = w.OwnerID
		v.Weapon.Edge = w.Edge.String()
	}

	m.pool.PublishWrite()
}

// View returns a copy of the latest published render state.
func (m *Match) View() View {
	return m.pool.Latest()
}

// LastSnapshot returns the report of the most recent tick.
func (m *Match) LastSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last.Clone()
}

// Finished reports whether the match has a result.
func (m *Match) Finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished
}

// Stats returns the cumulative counters.
func (m *Match) Stats() MatchStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Roster returns the combatant ids in spawn order.
func (m *Match) Roster() []string {
	ids := make([]string, 0, len(m.cfg.Entrants))
	for _, e := range m.cfg.Entrants {
		ids = append(ids, e.ID)
	}
	return ids
}

// CheckInvariants reports the first broken rule of the current state.
func (m *Match) CheckInvariants() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holders := 0
	for _, c := range m.active {
		if c.Health < 0 || c.Health > c.MaxHealth {
			return fmt.Errorf("%s health %d outside [0, %d]", c.ID, c.Health, c.MaxHealth)
		}
		if c.IsDead != (c.Health == 0) {
			return fmt.Errorf("%s dead flag %v with health %d", c.ID, c.IsDead, c.Health)
		}
		if c.HoldsWeapon {
			holders++
			if m.weapon.State != WeaponAttached || m.weapon.OwnerID != c.ID {
				return fmt.Errorf("%s holds the weapon but weapon is %s owned by %q", c.ID, m.weapon.State, m.weapon.OwnerID)
			}
		}
	}
	if holders > 1 {
		return fmt.Errorf("%d combatants hold the weapon", holders)
	}
	if m.weapon.State == WeaponAttached && holders == 0 {
		return fmt.Errorf("weapon attached to %q which is not holding it", m.weapon.OwnerID)
	}
	return nil
}
