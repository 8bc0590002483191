package game

import (
	"math"
	"time"

	"arena-duel/internal/geom"
)

// WeaponState is the attachment state of the weapon.
type WeaponState uint8

const (
	WeaponFree     WeaponState = iota // lying in the arena, can be picked up
	WeaponAttached                    // held on one edge of its owner
	WeaponCooldown                    // just dropped, cannot be picked up yet
)

// String returns a lowercase state name.
func (s WeaponState) String() string {
	switch s {
	case WeaponFree:
		return "free"
	case WeaponAttached:
		return "attached"
	case WeaponCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Weapon is the single pickup in the arena. Pos is its top-left corner.
type Weapon struct {
	Pos      geom.Vec2
	Size     float64
	Rotation float64

	State   WeaponState
	OwnerID string    // set only while Attached
	Edge    geom.Edge // owner edge, only meaningful while Attached

	CooldownStart    time.Time
	CooldownUntil    time.Time
	CooldownDuration time.Duration
}

// NewWeapon places a free weapon centered at center.
func NewWeapon(center geom.Vec2, size float64, cooldown time.Duration) *Weapon {
	return &Weapon{
		Pos:              geom.Vec2{X: center.X - size/2, Y: center.Y - size/2},
		Size:             size,
		Rotation:         WeaponRestAngle,
		State:            WeaponFree,
		CooldownDuration: cooldown,
	}
}

// Center returns the weapon's center point.
func (w *Weapon) Center() geom.Vec2 {
	return geom.Vec2{X: w.Pos.X + w.Size/2, Y: w.Pos.Y + w.Size/2}
}

// Update expires the cooldown and, while attached, re-seats the weapon on
// its owner's edge. owner may be nil when the weapon is not attached.
func (w *Weapon) Update(now time.Time, owner *Combatant) {
	if w.State == WeaponCooldown && !now.Before(w.CooldownUntil) {
		w.State = WeaponFree
	}
	if w.State == WeaponAttached && owner != nil {
		w.follow(owner)
	}
}

// CanBePickedUp reports whether the weapon is free at time now.
func (w *Weapon) CanBePickedUp(now time.Time) bool {
	switch w.State {
	case WeaponFree:
		return true
	case WeaponCooldown:
		return !now.Before(w.CooldownUntil)
	default:
		return false
	}
}

// AttachTo hands the weapon to c on edge. It fails without side effects
// while the weapon is cooling down or already held.
func (w *Weapon) AttachTo(c *Combatant, edge geom.Edge, now time.Time) bool {
	if !w.CanBePickedUp(now) {
		return false
	}
	w.State = WeaponAttached
	w.OwnerID = c.ID
	w.Edge = edge
	c.HoldsWeapon = true
	w.follow(c)
	return true
}

// Drop detaches the weapon at point and starts the cooldown.
func (w *Weapon) Drop(point geom.Vec2, now time.Time) {
	w.State = WeaponCooldown
	w.OwnerID = ""
	w.Edge = geom.EdgeTop
	w.Pos = geom.Vec2{X: point.X - w.Size/2, Y: point.Y - w.Size/2}
	w.Rotation = WeaponRestAngle
	w.CooldownStart = now
	w.CooldownUntil = now.Add(w.CooldownDuration)
}

// Release frees the weapon in place without a cooldown. Used when the
// holder leaves the arena without a collision.
func (w *Weapon) Release() {
	w.State = WeaponFree
	w.OwnerID = ""
	w.Edge = geom.EdgeTop
	w.Rotation = WeaponRestAngle
}

// CooldownProgress returns how much of the cooldown has elapsed, in [0, 1].
// It is 1 outside the cooldown state.
func (w *Weapon) CooldownProgress(now time.Time) float64 {
	if w.State != WeaponCooldown || w.CooldownDuration <= 0 {
		return 1
	}
	elapsed := now.Sub(w.CooldownStart)
	return geom.Clamp(float64(elapsed)/float64(w.CooldownDuration), 0, 1)
}

// follow seats the weapon flush against the owner's edge, leaning off it.
func (w *Weapon) follow(owner *Combatant) {
	bs := owner.Size
	center := owner.Center()

	switch w.Edge {
	case geom.EdgeRight:
		w.Pos = geom.Vec2{X: owner.Pos.X + bs - w.Size, Y: center.Y - w.Size/2}
		w.Rotation = owner.Rotation + WeaponLeanAngle
	case geom.EdgeLeft:
		w.Pos = geom.Vec2{X: owner.Pos.X, Y: center.Y - w.Size/2}
		w.Rotation = owner.Rotation + math.Pi - WeaponLeanAngle
	case geom.EdgeTop:
		w.Pos = geom.Vec2{X: center.X - w.Size/2, Y: owner.Pos.Y}
		w.Rotation = owner.Rotation - math.Pi/2 - WeaponLeanAngle
	case geom.EdgeBottom:
		w.Pos = geom.Vec2{X: center.X - w.Size/2, Y: owner.Pos.Y + bs - w.Size}
		w.Rotation = owner.Rotation + math.Pi/2 + WeaponLeanAngle
	}
}

// DetectPickup returns the first edge of c whose midpoint lies within
// PickupRange of the weapon center. It never matches an attached weapon.
func DetectPickup(c *Combatant, w *Weapon) (geom.Edge, bool) {
	if w.State == WeaponAttached {
		return 0, false
	}
	target := w.Center()
	points := c.EdgePoints()
	for _, e := range geom.AllEdges {
		if points[e].Sub(target).Len() < PickupRange {
			return e, true
		}
	}
	return 0, false
}
