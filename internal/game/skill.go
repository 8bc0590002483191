package game

import (
	"fmt"
	"strings"

	"arena-duel/internal/geom"
)

// Skill is an externally triggered timed effect on one combatant.
type Skill uint8

const (
	SkillUnknown Skill = iota
	SkillSpeedUp
	SkillSupersize
)

// String returns the wire name of the skill.
func (s Skill) String() string {
	switch s {
	case SkillSpeedUp:
		return "speedup"
	case SkillSupersize:
		return "supersize"
	default:
		return "unknown"
	}
}

// ParseSkill maps a wire name (case-insensitive) to a Skill.
func ParseSkill(name string) (Skill, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "speedup", "speed_up", "speed-up":
		return SkillSpeedUp, nil
	case "supersize", "super_size":
		return SkillSupersize, nil
	}
	return SkillUnknown, fmt.Errorf("%w: %q", ErrUnknownSkill, name)
}

// activate starts or refreshes an effect. Velocity and size change
// immediately so the next movement step already sees them.
func (c *Combatant) activate(kind Skill, durationTicks int, arenaWidth, arenaHeight float64) {
	switch kind {
	case SkillSpeedUp:
		c.setSpeedMultiplier(SpeedUpMultiplier)
		c.SpeedUpTicks = durationTicks
	case SkillSupersize:
		c.setSizeMultiplier(SupersizeMultiplier, arenaWidth, arenaHeight)
		c.SupersizeTicks = durationTicks
	}
}

// tickEffects counts active effects down and reverts the expired ones.
func (c *Combatant) tickEffects(arenaWidth, arenaHeight float64) {
	if c.SpeedUpTicks > 0 {
		c.SpeedUpTicks--
		if c.SpeedUpTicks == 0 {
			c.setSpeedMultiplier(1)
		}
	}
	if c.SupersizeTicks > 0 {
		c.SupersizeTicks--
		if c.SupersizeTicks == 0 {
			c.setSizeMultiplier(1, arenaWidth, arenaHeight)
		}
	}
}

func (c *Combatant) setSpeedMultiplier(mult float64) {
	if c.SpeedMultiplier > 0 {
		c.Vel = c.Vel.Scale(mult / c.SpeedMultiplier)
	}
	c.SpeedMultiplier = mult
}

// setSizeMultiplier resizes about the center, then pulls the square back
// inside the arena if growing pushed it through a wall.
func (c *Combatant) setSizeMultiplier(mult, arenaWidth, arenaHeight float64) {
	center := c.Center()
	c.SizeMultiplier = mult
	c.Size = c.BaseSize * mult
	h := c.Size / 2
	c.Pos = geom.Vec2{
		X: geom.Clamp(center.X-h, 0, max(0, arenaWidth-c.Size)),
		Y: geom.Clamp(center.Y-h, 0, max(0, arenaHeight-c.Size)),
	}
}
