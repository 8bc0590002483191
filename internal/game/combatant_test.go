package game

import (
	"math"
	"math/rand"
	"testing"

	"arena-duel/internal/geom"
)

const eps = 1e-9

func newTestCombatant(center geom.Vec2, vel geom.Vec2) *Combatant {
	pos := geom.Vec2{X: center.X - CombatantSize/2, Y: center.Y - CombatantSize/2}
	return NewCombatant("A", "blue", pos, vel, CombatantSize, InitialRotationSpeed)
}

// TestWallBounce covers the left wall scenario and the other three walls
func TestWallBounce(t *testing.T) {
	tests := []struct {
		name    string
		pos     geom.Vec2
		vel     geom.Vec2
		wantPos geom.Vec2
		wantVel geom.Vec2
	}{
		{"left wall", geom.Vec2{X: 0, Y: 100}, geom.Vec2{X: -7, Y: 0}, geom.Vec2{X: 0, Y: 100}, geom.Vec2{X: 6.65, Y: 0}},
		{"right wall", geom.Vec2{X: 718, Y: 100}, geom.Vec2{X: 7, Y: 0}, geom.Vec2{X: 720, Y: 100}, geom.Vec2{X: -6.65, Y: 0}},
		{"top wall", geom.Vec2{X: 100, Y: 3}, geom.Vec2{X: 0, Y: -7}, geom.Vec2{X: 100, Y: 0}, geom.Vec2{X: 0, Y: 6.65}},
		{"bottom wall", geom.Vec2{X: 100, Y: 515}, geom.Vec2{X: 0, Y: 7}, geom.Vec2{X: 100, Y: 520}, geom.Vec2{X: 0, Y: -6.65}},
		{"open floor", geom.Vec2{X: 100, Y: 100}, geom.Vec2{X: 7, Y: 7}, geom.Vec2{X: 107, Y: 107}, geom.Vec2{X: 7, Y: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCombatant("A", "blue", tt.pos, tt.vel, CombatantSize, InitialRotationSpeed)
			c.Move(800, 600)

			if math.Abs(c.Pos.X-tt.wantPos.X) > eps || math.Abs(c.Pos.Y-tt.wantPos.Y) > eps {
				t.Errorf("Expected position %v, got %v", tt.wantPos, c.Pos)
			}
			if math.Abs(c.Vel.X-tt.wantVel.X) > 1e-9 || math.Abs(c.Vel.Y-tt.wantVel.Y) > 1e-9 {
				t.Errorf("Expected velocity %v, got %v", tt.wantVel, c.Vel)
			}
		})
	}
}

// TestWallBounceFlipsSpin verifies the spin is reversed and damped on a wall hit
func TestWallBounceFlipsSpin(t *testing.T) {
	c := NewCombatant("A", "blue", geom.Vec2{X: 0, Y: 100}, geom.Vec2{X: -7, Y: 0}, CombatantSize, 0.1)
	c.Move(800, 600)

	if math.Abs(c.RotationSpeed-(-0.09)) > eps {
		t.Errorf("Expected rotation speed -0.09, got %f", c.RotationSpeed)
	}
}

// TestRotationSpeedClamp verifies magnitude clamping with sign preserved
func TestRotationSpeedClamp(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"too fast", 0.5, MaxRotationSpeed},
		{"too fast reversed", -0.5, -MaxRotationSpeed},
		{"too slow", 0.001, MinRotationSpeed},
		{"too slow reversed", -0.001, -MinRotationSpeed},
		{"stopped", 0, MinRotationSpeed},
		{"in range", 0.05, 0.05},
		{"in range reversed", -0.05, -0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{})
			c.RotationSpeed = tt.speed
			c.Move(800, 600)

			if math.Abs(c.RotationSpeed-tt.want) > eps {
				t.Errorf("Expected rotation speed %f, got %f", tt.want, c.RotationSpeed)
			}
		})
	}
}

// TestRotationWraps verifies rotation stays in [0, 2π)
func TestRotationWraps(t *testing.T) {
	c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{})
	c.Rotation = geom.TwoPi - 0.01
	c.RotationSpeed = 0.02
	c.Move(800, 600)

	if math.Abs(c.Rotation-0.01) > 1e-9 {
		t.Errorf("Expected rotation 0.01, got %f", c.Rotation)
	}

	c.RotationSpeed = -0.05
	c.Move(800, 600)
	if c.Rotation < 0 || c.Rotation >= geom.TwoPi {
		t.Errorf("Rotation %f left [0, 2π)", c.Rotation)
	}
}

// TestMoveKeepsSpinInRange runs random motion and checks the clamp every step
func TestMoveKeepsSpinInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{X: 7, Y: -7})

	for i := 0; i < 2000; i++ {
		if i%50 == 0 {
			c.RotationSpeed = (rng.Float64() - 0.5) * 2
		}
		c.Move(800, 600)

		mag := math.Abs(c.RotationSpeed)
		if mag < MinRotationSpeed-eps || mag > MaxRotationSpeed+eps {
			t.Fatalf("Step %d: |rotationSpeed| = %f outside [%f, %f]", i, mag, MinRotationSpeed, MaxRotationSpeed)
		}
		if c.Pos.X < 0 || c.Pos.Y < 0 || c.Pos.X+c.Size > 800 || c.Pos.Y+c.Size > 600 {
			t.Fatalf("Step %d: combatant left the arena at %v", i, c.Pos)
		}
	}
}

// TestTakeDamage covers rounding, flooring and the death flag
func TestTakeDamage(t *testing.T) {
	tests := []struct {
		name       string
		health     int
		amount     float64
		wantHealth int
		wantDealt  int
		wantDead   bool
	}{
		{"single point", 10, 1, 9, 1, false},
		{"fraction rounds up", 10, 2.5, 7, 3, false},
		{"tiny hit costs one", 10, 0.1, 9, 1, false},
		{"zero costs one", 10, 0, 9, 1, false},
		{"lethal", 1, 1, 0, 1, true},
		{"overkill floors at zero", 3, 50, 0, 3, true},
		{"huge hit kills", 10, 1e19, 0, 10, true},
		{"infinite hit kills", 10, math.Inf(1), 0, 10, true},
		{"NaN costs one", 10, math.NaN(), 9, 1, false},
		{"negative costs one", 10, -5, 9, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{})
			c.Health = tt.health

			dealt := c.TakeDamage(tt.amount)

			if c.Health != tt.wantHealth {
				t.Errorf("Expected health %d, got %d", tt.wantHealth, c.Health)
			}
			if dealt != tt.wantDealt {
				t.Errorf("Expected %d damage dealt, got %d", tt.wantDealt, dealt)
			}
			if c.IsDead != tt.wantDead {
				t.Errorf("Expected dead=%v, got %v", tt.wantDead, c.IsDead)
			}
			if c.DamageFlash != DamageFlashTicks {
				t.Errorf("Expected damage flash %d, got %d", DamageFlashTicks, c.DamageFlash)
			}
		})
	}
}

// TestHealthBounds applies random damage sequences
func TestHealthBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 100; run++ {
		c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{})
		for i := 0; i < 20; i++ {
			c.TakeDamage(rng.Float64() * 4)
			if c.Health < 0 || c.Health > c.MaxHealth {
				t.Fatalf("Run %d: health %d outside [0, %d]", run, c.Health, c.MaxHealth)
			}
			if c.IsDead != (c.Health == 0) {
				t.Fatalf("Run %d: dead=%v with health %d", run, c.IsDead, c.Health)
			}
		}
	}
}

// TestSpeedUpSkill verifies the velocity scale and its expiry
func TestSpeedUpSkill(t *testing.T) {
	c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{X: 7, Y: 0})

	c.activate(SkillSpeedUp, 3, 800, 600)
	if math.Abs(c.Vel.X-10.5) > eps {
		t.Errorf("Expected boosted velocity 10.5, got %f", c.Vel.X)
	}
	if math.Abs(c.TargetSpeed()-10.5) > eps {
		t.Errorf("Expected target speed 10.5, got %f", c.TargetSpeed())
	}

	for i := 0; i < 3; i++ {
		c.tickEffects(800, 600)
	}
	if math.Abs(c.Vel.X-7) > eps {
		t.Errorf("Expected velocity back to 7, got %f", c.Vel.X)
	}
	if c.SpeedMultiplier != 1 {
		t.Errorf("Expected speed multiplier 1, got %f", c.SpeedMultiplier)
	}
}

// TestSpeedUpRefresh verifies re-activation extends instead of stacking
func TestSpeedUpRefresh(t *testing.T) {
	c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{X: 7, Y: 0})

	c.activate(SkillSpeedUp, 5, 800, 600)
	c.tickEffects(800, 600)
	c.activate(SkillSpeedUp, 5, 800, 600)

	if math.Abs(c.Vel.X-10.5) > eps {
		t.Errorf("Expected velocity 10.5 without stacking, got %f", c.Vel.X)
	}
	if c.SpeedUpTicks != 5 {
		t.Errorf("Expected refreshed duration 5, got %d", c.SpeedUpTicks)
	}
}

// TestSupersizeSkill verifies growth about the center and the wall clamp
func TestSupersizeSkill(t *testing.T) {
	t.Run("open floor", func(t *testing.T) {
		c := newTestCombatant(geom.Vec2{X: 400, Y: 300}, geom.Vec2{})
		c.activate(SkillSupersize, 2, 800, 600)

		if c.Size != 120 {
			t.Errorf("Expected size 120, got %f", c.Size)
		}
		center := c.Center()
		if math.Abs(center.X-400) > eps || math.Abs(center.Y-300) > eps {
			t.Errorf("Expected center to stay at (400, 300), got %v", center)
		}

		c.tickEffects(800, 600)
		c.tickEffects(800, 600)
		if c.Size != CombatantSize {
			t.Errorf("Expected size back to %f, got %f", CombatantSize, c.Size)
		}
	})

	t.Run("against the corner", func(t *testing.T) {
		c := NewCombatant("A", "blue", geom.Vec2{}, geom.Vec2{}, CombatantSize, InitialRotationSpeed)
		c.activate(SkillSupersize, 2, 800, 600)

		if c.Pos.X != 0 || c.Pos.Y != 0 {
			t.Errorf("Expected grown square clamped to (0, 0), got %v", c.Pos)
		}
	})
}

// TestParseSkill tests wire names
func TestParseSkill(t *testing.T) {
	tests := []struct {
		name    string
		want    Skill
		wantErr bool
	}{
		{"speedup", SkillSpeedUp, false},
		{"SpeedUp", SkillSpeedUp, false},
		{"speed_up", SkillSpeedUp, false},
		{"supersize", SkillSupersize, false},
		{" Supersize ", SkillSupersize, false},
		{"teleport", SkillUnknown, true},
		{"", SkillUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSkill(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
