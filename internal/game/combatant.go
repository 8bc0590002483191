package game

import (
	"math"

	"arena-duel/internal/geom"
)

// Combatant is one rotating square in the duel.
// Pos is the top-left corner of the unrotated square.
type Combatant struct {
	ID    string
	Color string

	Pos           geom.Vec2
	Vel           geom.Vec2
	Size          float64
	Rotation      float64
	RotationSpeed float64

	Health      int
	MaxHealth   int
	DamageFlash int // ticks of hit feedback left, read by the renderer
	HoldsWeapon bool
	IsDead      bool

	// Timed skill effects, counted in ticks
	BaseSize        float64
	BaseSpeed       float64
	SpeedMultiplier float64
	SizeMultiplier  float64
	SpeedUpTicks    int
	SupersizeTicks  int
}

// NewCombatant creates a combatant at full health.
func NewCombatant(id, color string, pos, vel geom.Vec2, size, rotationSpeed float64) *Combatant {
	return &Combatant{
		ID:              id,
		Color:           color,
		Pos:             pos,
		Vel:             vel,
		Size:            size,
		RotationSpeed:   rotationSpeed,
		Health:          MaxHealth,
		MaxHealth:       MaxHealth,
		BaseSize:        size,
		BaseSpeed:       BaseSpeed,
		SpeedMultiplier: 1,
		SizeMultiplier:  1,
	}
}

// Center returns the center of the square.
func (c *Combatant) Center() geom.Vec2 {
	h := c.Size / 2
	return geom.Vec2{X: c.Pos.X + h, Y: c.Pos.Y + h}
}

// EdgePoints returns the rotated midpoint of each edge.
func (c *Combatant) EdgePoints() [4]geom.Vec2 {
	return geom.EdgePoints(c.Center(), c.Size, c.Rotation)
}

// Corners returns the rotated corners grown by padding.
func (c *Combatant) Corners(padding float64) [4]geom.Vec2 {
	return geom.RotatedCorners(c.Center(), c.Size, c.Rotation, padding)
}

// TargetSpeed is the speed magnitude collisions renormalize to.
func (c *Combatant) TargetSpeed() float64 {
	return c.BaseSpeed * c.SpeedMultiplier
}

// Move advances one tick: translate, bounce off the arena walls, spin,
// then clamp the spin rate.
func (c *Combatant) Move(arenaWidth, arenaHeight float64) {
	c.Pos = c.Pos.Add(c.Vel)

	c.bounceWalls(arenaWidth, arenaHeight)

	c.Rotation = geom.WrapAngle(c.Rotation + c.RotationSpeed)
	c.clampRotationSpeed()
}

func (c *Combatant) bounceWalls(arenaWidth, arenaHeight float64) {
	if c.Pos.X <= 0 {
		c.Pos.X = 0
		c.hitWall(&c.Vel.X)
	} else if c.Pos.X+c.Size >= arenaWidth {
		c.Pos.X = arenaWidth - c.Size
		c.hitWall(&c.Vel.X)
	}

	if c.Pos.Y <= 0 {
		c.Pos.Y = 0
		c.hitWall(&c.Vel.Y)
	} else if c.Pos.Y+c.Size >= arenaHeight {
		c.Pos.Y = arenaHeight - c.Size
		c.hitWall(&c.Vel.Y)
	}
}

func (c *Combatant) hitWall(component *float64) {
	*component *= -WallBounce
	c.RotationSpeed = -c.RotationSpeed * WallRotationDampen
}

// clampRotationSpeed keeps |RotationSpeed| in [Min, Max] with its sign.
// A zero spin counts as positive so the square never stops turning.
func (c *Combatant) clampRotationSpeed() {
	mag := math.Abs(c.RotationSpeed)
	sign := 1.0
	if c.RotationSpeed < 0 {
		sign = -1
	}
	switch {
	case mag > MaxRotationSpeed:
		c.RotationSpeed = sign * MaxRotationSpeed
	case mag < MinRotationSpeed:
		c.RotationSpeed = sign * MinRotationSpeed
	}
}

// TakeDamage applies a hit. Fractional damage rounds up and every hit
// costs at least one point. Returns the damage actually applied.
func (c *Combatant) TakeDamage(amount float64) int {
	// Clamp before converting so huge or infinite hits cannot overflow int
	d := math.Ceil(amount)
	if !(d >= 1) {
		d = 1
	}
	if d > float64(c.Health) {
		d = float64(c.Health)
	}
	before := c.Health
	c.Health = max(0, c.Health-int(d))
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
	c.DamageFlash = DamageFlashTicks

	if c.Health == 0 {
		c.IsDead = true
	}
	return before - c.Health
}

// renormalizeSpeed rescales the velocity to TargetSpeed, keeping direction.
func (c *Combatant) renormalizeSpeed() {
	speed := c.Vel.Len()
	if speed > 0 {
		c.Vel = c.Vel.Scale(c.TargetSpeed() / speed)
	}
}

func (c *Combatant) decayFlash() {
	if c.DamageFlash > 0 {
		c.DamageFlash--
	}
}
