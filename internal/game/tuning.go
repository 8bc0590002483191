package game

import (
	"math"
	"time"
)

// Physics and rules constants. Motion values are per tick; the weapon
// cooldown is wall-clock time.
const (
	BaseSpeed            = 7.0  // combatant speed magnitude after any collision
	InitialRotationSpeed = 0.02 // radians per tick at spawn
	MinRotationSpeed     = 0.01
	MaxRotationSpeed     = 0.2

	WallBounce         = 0.95 // velocity kept on wall hit
	WallRotationDampen = 0.9  // rotation speed kept (and flipped) on wall hit

	Restitution         = 0.9
	RotationImpactBoost = 1.2  // rotation speed multiplier on body contact
	SeparationFactor    = 0.51 // minimum center distance as a fraction of summed sizes
	CollisionPadding    = 2.0
	SweepDivisor        = 60.0 // relative speed / this = sweep padding

	PickupRange           = 60.0
	WeaponLeanAngle       = math.Pi / 6
	WeaponRestAngle       = math.Pi / 4
	DefaultWeaponCooldown = 1000 * time.Millisecond
	WeaponHitDamage       = 1
	DamageFlashTicks      = 10

	MaxHealth = 10

	CombatantSize = 80.0
	WeaponSize    = 48.0

	SpeedUpMultiplier   = 1.5
	SupersizeMultiplier = 1.5
	SkillDurationTicks  = 300
)
