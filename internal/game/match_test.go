package game

import (
	"errors"
	"math"
	"testing"
	"time"

	"arena-duel/internal/geom"
)

type recordingNotifier struct {
	pickups []string
	drops   int
	err     error
	panics  bool
}

func (n *recordingNotifier) OnWeaponPickup(id string) error {
	n.pickups = append(n.pickups, id)
	if n.panics {
		panic("speaker on fire")
	}
	return n.err
}

func (n *recordingNotifier) OnWeaponDropped() error {
	n.drops++
	return n.err
}

// duelConfig places two motionless combatants around a weapon at (400, 300).
func duelConfig(aCenter, bCenter geom.Vec2) MatchConfig {
	cfg := DefaultMatchConfig()
	cfg.WeaponSpawn = geom.Vec2{X: 400, Y: 300}
	cfg.Entrants = []Entrant{
		{ID: "A", Color: "blue", Spawn: aCenter},
		{ID: "B", Color: "red", Spawn: bCenter},
	}
	return cfg
}

func newTestMatch(cfg MatchConfig) (*Match, *StepClock, *recordingNotifier) {
	m := NewMatch(cfg)
	clock := NewStepClock(epoch)
	n := &recordingNotifier{}
	m.SetClock(clock)
	m.SetNotifier(n)
	return m, clock, n
}

// TestNewMatch verifies the default layout
func TestNewMatch(t *testing.T) {
	m := NewMatch(DefaultMatchConfig())

	snap := m.LastSnapshot()
	if len(snap.Combatants) != 2 {
		t.Fatalf("Expected 2 combatants, got %d", len(snap.Combatants))
	}
	if snap.Combatants[0].ID != "A" || snap.Combatants[1].ID != "B" {
		t.Errorf("Expected roster order A, B, got %+v", snap.Combatants)
	}
	for _, e := range snap.Combatants {
		if e.Health != MaxHealth {
			t.Errorf("Expected %s at %d HP, got %d", e.ID, MaxHealth, e.Health)
		}
	}

	v := m.View()
	if v.Weapon.State != "free" {
		t.Errorf("Expected free weapon, got %s", v.Weapon.State)
	}
	if v.Weapon.X+v.Weapon.Size/2 != 400 || v.Weapon.Y+v.Weapon.Size/2 != 370 {
		t.Errorf("Expected weapon centered at (400, 370), got (%f, %f)", v.Weapon.X, v.Weapon.Y)
	}
	a, ok := v.Combatant("A")
	if !ok {
		t.Fatal("Expected A in the view")
	}
	if a.X != 160 || a.Y != 330 || a.Color != "blue" {
		t.Errorf("Expected blue A at (160, 330), got %s at (%f, %f)", a.Color, a.X, a.Y)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("Unexpected invariant violation: %v", err)
	}
}

// TestMatchPickup verifies the pickup scenario and the notification
func TestMatchPickup(t *testing.T) {
	m, _, n := newTestMatch(duelConfig(geom.Vec2{X: 340, Y: 300}, geom.Vec2{X: 700, Y: 300}))

	m.Tick()

	v := m.View()
	holder, ok := v.Holder()
	if !ok || holder.ID != "A" {
		t.Fatalf("Expected A to hold the weapon, got %+v", holder)
	}
	if v.Weapon.State != "attached" || v.Weapon.OwnerID != "A" || v.Weapon.Edge != "right" {
		t.Errorf("Expected weapon attached to A's right edge, got %+v", v.Weapon)
	}
	if len(n.pickups) != 1 || n.pickups[0] != "A" {
		t.Errorf("Expected one pickup notification for A, got %v", n.pickups)
	}
	if n.drops != 0 {
		t.Errorf("Expected no silence notification while held, got %d", n.drops)
	}
	if m.Stats().Pickups != 1 {
		t.Errorf("Expected 1 pickup counted, got %d", m.Stats().Pickups)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("Unexpected invariant violation: %v", err)
	}
}

// TestMatchDropAndCooldown verifies a strike drops the weapon and the cooldown gates pickup
func TestMatchDropAndCooldown(t *testing.T) {
	m, clock, n := newTestMatch(duelConfig(geom.Vec2{X: 340, Y: 300}, geom.Vec2{X: 420, Y: 300}))

	snap := m.Tick()

	if snap.Combatants[1].Health != MaxHealth-1 {
		t.Fatalf("Expected B hit down to %d, got %d", MaxHealth-1, snap.Combatants[1].Health)
	}
	v := m.View()
	if v.Weapon.State != "cooldown" {
		t.Fatalf("Expected cooldown after the strike, got %s", v.Weapon.State)
	}
	if _, held := v.Holder(); held {
		t.Error("Nobody should hold the weapon after the strike")
	}

	// Park B out of reach so the weapon is not knocked loose again
	m.mu.Lock()
	m.find("B").Pos = geom.Vec2{X: 660, Y: 260}
	m.mu.Unlock()

	clock.Advance(500 * time.Millisecond)
	m.Tick()
	if got := m.View().Weapon.State; got != "cooldown" {
		t.Errorf("Expected cooldown 500ms after drop, got %s", got)
	}
	if len(n.pickups) != 1 {
		t.Errorf("Expected no pickup during cooldown, got %v", n.pickups)
	}
	if n.drops != 1 {
		t.Errorf("Expected one silence notification after the drop, got %d", n.drops)
	}

	clock.Advance(600 * time.Millisecond)
	m.Tick()
	if got := m.View().Weapon.State; got != "attached" {
		t.Errorf("Expected pickup once the cooldown expired, got %s", got)
	}
	if len(n.pickups) != 2 {
		t.Errorf("Expected a second pickup notification, got %v", n.pickups)
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("Unexpected invariant violation: %v", err)
	}
}

// TestMatchLethalHitAndWin walks a kill through removal and the win report
func TestMatchLethalHitAndWin(t *testing.T) {
	m, _, n := newTestMatch(duelConfig(geom.Vec2{X: 340, Y: 300}, geom.Vec2{X: 420, Y: 300}))
	m.find("B").Health = 1

	snap := m.Tick()
	if len(snap.Combatants) != 2 || snap.Combatants[1].Health != 0 {
		t.Fatalf("Expected B reported at 0 HP on the killing tick, got %+v", snap.Combatants)
	}
	if snap.Finished {
		t.Fatal("Match should not finish until the dead are removed")
	}

	snap = m.Tick()
	if len(snap.Combatants) != 1 || snap.Combatants[0].ID != "A" {
		t.Fatalf("Expected only A left, got %+v", snap.Combatants)
	}
	if !snap.Finished || snap.Winner != "A" {
		t.Errorf("Expected A to win, got finished=%v winner=%q", snap.Finished, snap.Winner)
	}
	if n.drops != 1 {
		t.Errorf("Expected music stopped once at the finish, got %d", n.drops)
	}

	before := m.View()
	for i := 0; i < 10; i++ {
		snap = m.Tick()
	}
	after := m.View()

	if after.Combatants[0].X != before.Combatants[0].X || after.Combatants[0].Rotation != before.Combatants[0].Rotation {
		t.Error("Expected no movement after the match finished")
	}
	if !snap.Finished || snap.Winner != "A" {
		t.Errorf("Expected the result to stick, got %+v", snap)
	}
	if n.drops != 1 {
		t.Errorf("Expected no further notifications, got %d", n.drops)
	}
	if m.Stats().Finished != 1 {
		t.Errorf("Expected finish counted once, got %d", m.Stats().Finished)
	}
}

// TestMatchNoSurvivors verifies an empty arena finishes without a winner
func TestMatchNoSurvivors(t *testing.T) {
	m, _, _ := newTestMatch(DefaultMatchConfig())
	for _, c := range m.active {
		c.TakeDamage(100)
	}

	snap := m.Tick()
	if !snap.Finished || snap.Winner != "" || len(snap.Combatants) != 0 {
		t.Errorf("Expected a finished match with no winner, got %+v", snap)
	}
}

// TestApplySkillErrors tests validation and the bounded queue
func TestApplySkillErrors(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.SkillQueueSize = 2
	m := NewMatch(cfg)

	tests := []struct {
		name    string
		id      string
		kind    Skill
		wantErr error
	}{
		{"unknown combatant", "Z", SkillSpeedUp, ErrUnknownCombatant},
		{"unknown skill", "A", SkillUnknown, ErrUnknownSkill},
		{"first", "A", SkillSpeedUp, nil},
		{"second", "B", SkillSupersize, nil},
		{"queue full", "A", SkillSupersize, ErrSkillQueueFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ApplySkill(tt.id, tt.kind)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}

	m.Tick()
	if err := m.ApplySkill("A", SkillSpeedUp); err != nil {
		t.Errorf("Expected queue drained by the tick, got %v", err)
	}
}

// TestApplySkillAtTickBoundary verifies skills wait for the next tick
func TestApplySkillAtTickBoundary(t *testing.T) {
	m, _, _ := newTestMatch(DefaultMatchConfig())

	if err := m.ApplySkill("A", SkillSpeedUp); err != nil {
		t.Fatalf("ApplySkill failed: %v", err)
	}
	if err := m.ApplySkill("B", SkillSupersize); err != nil {
		t.Fatalf("ApplySkill failed: %v", err)
	}

	a, _ := m.View().Combatant("A")
	if a.SpeedMultiplier != 1 {
		t.Fatal("Skill applied before the tick boundary")
	}

	m.Tick()
	v := m.View()
	a, _ = v.Combatant("A")
	b, _ := v.Combatant("B")
	if a.SpeedMultiplier != SpeedUpMultiplier {
		t.Errorf("Expected speed multiplier %f, got %f", SpeedUpMultiplier, a.SpeedMultiplier)
	}
	if b.Size != CombatantSize*SupersizeMultiplier {
		t.Errorf("Expected size %f, got %f", CombatantSize*SupersizeMultiplier, b.Size)
	}
	if m.Stats().Skills != 2 {
		t.Errorf("Expected 2 skills counted, got %d", m.Stats().Skills)
	}
}

// TestApplySkillDeadTarget verifies a skill for a removed combatant is a no-op
func TestApplySkillDeadTarget(t *testing.T) {
	m, _, _ := newTestMatch(DefaultMatchConfig())
	m.find("B").TakeDamage(100)
	m.Tick()

	if err := m.ApplySkill("B", SkillSpeedUp); err != nil {
		t.Fatalf("Roster member should be accepted, got %v", err)
	}
	snap := m.Tick()
	if len(snap.Combatants) != 1 {
		t.Errorf("Expected the tick to proceed, got %+v", snap)
	}
	if m.Stats().Skills != 0 {
		t.Errorf("Expected no skill applied, got %d", m.Stats().Skills)
	}
}

// TestSkillAfterFinishIsDropped verifies a finished match ignores queued skills
func TestSkillAfterFinishIsDropped(t *testing.T) {
	tests := []struct {
		name  string
		queue func(m *Match)
	}{
		{"queued on the finishing tick", func(m *Match) {
			m.find("B").TakeDamage(100)
			m.ApplySkill("A", SkillSupersize)
			m.Tick()
		}},
		{"queued after the finish", func(m *Match) {
			m.find("B").TakeDamage(100)
			m.Tick()
			m.ApplySkill("A", SkillSupersize)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestMatch(DefaultMatchConfig())
			tt.queue(m)

			for i := 0; i < 1000; i++ {
				m.Tick()
			}

			if !m.Finished() {
				t.Fatal("Expected match finished")
			}
			a, ok := m.View().Combatant("A")
			if !ok {
				t.Fatal("Expected A in the view")
			}
			if a.Size != CombatantSize || a.SizeMultiplier != 1 || a.SupersizeTicks != 0 {
				t.Errorf("Expected A untouched after the finish, got size=%f mult=%f ticks=%d",
					a.Size, a.SizeMultiplier, a.SupersizeTicks)
			}
			if m.Stats().Skills != 0 {
				t.Errorf("Expected no skill applied, got %d", m.Stats().Skills)
			}
		})
	}
}

// TestNotifierFailureDoesNotStopTick verifies collaborator errors and panics are contained
func TestNotifierFailureDoesNotStopTick(t *testing.T) {
	tests := []struct {
		name     string
		notifier *recordingNotifier
	}{
		{"error", &recordingNotifier{err: errors.New("device busy")}},
		{"panic", &recordingNotifier{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestMatch(duelConfig(geom.Vec2{X: 340, Y: 300}, geom.Vec2{X: 700, Y: 300}))
			m.SetNotifier(tt.notifier)

			snap := m.Tick()

			if snap.Tick != 1 || len(snap.Combatants) != 2 {
				t.Errorf("Expected a complete tick, got %+v", snap)
			}
			if len(tt.notifier.pickups) != 1 {
				t.Errorf("Expected the pickup notification attempt, got %v", tt.notifier.pickups)
			}
			if _, held := m.View().Holder(); !held {
				t.Error("Pickup should stand even if the notifier fails")
			}
		})
	}
}

// TestMatchReset verifies a finished match restarts from the spawn layout
func TestMatchReset(t *testing.T) {
	m, _, _ := newTestMatch(DefaultMatchConfig())
	m.find("B").TakeDamage(100)
	m.Tick()
	if !m.Finished() {
		t.Fatal("Expected match finished")
	}

	m.Reset()

	snap := m.LastSnapshot()
	if snap.Finished || snap.Winner != "" || snap.Tick != 0 {
		t.Errorf("Expected a fresh match, got %+v", snap)
	}
	if len(snap.Combatants) != 2 {
		t.Errorf("Expected both combatants back, got %+v", snap.Combatants)
	}
	if v := m.View(); v.Weapon.State != "free" || len(v.Combatants) != 2 {
		t.Errorf("Expected reset view, got %+v", v)
	}
}

// TestMatchInvariantsLongRun runs the default duel and checks the rules every tick
func TestMatchInvariantsLongRun(t *testing.T) {
	m, clock, _ := newTestMatch(DefaultMatchConfig())

	for i := 0; i < 20000 && !m.Finished(); i++ {
		clock.Advance(time.Second / 60)
		if i%700 == 0 {
			m.ApplySkill("A", SkillSpeedUp)
			m.ApplySkill("B", SkillSupersize)
		}
		m.Tick()

		if err := m.CheckInvariants(); err != nil {
			t.Fatalf("Tick %d: %v", i+1, err)
		}
		m.mu.RLock()
		for _, c := range m.active {
			mag := math.Abs(c.RotationSpeed)
			if mag < MinRotationSpeed-eps || mag > MaxRotationSpeed+eps {
				t.Fatalf("Tick %d: %s spin %f outside range", i+1, c.ID, c.RotationSpeed)
			}
			if c.Rotation < 0 || c.Rotation >= geom.TwoPi {
				t.Fatalf("Tick %d: %s rotation %f outside [0, 2π)", i+1, c.ID, c.Rotation)
			}
		}
		m.mu.RUnlock()
	}
}
