package game

import (
	"time"

	"arena-duel/internal/geom"
)

// Hit records one weapon strike applied during resolution.
type Hit struct {
	AttackerID string
	DefenderID string
	Damage     int
	Lethal     bool
}

// Contact describes what Resolve did to a colliding pair.
type Contact struct {
	Degenerate  bool // centers coincided, nothing was resolved
	Hits        []Hit
	Dropped     bool
	DropPoint   geom.Vec2
	Bounced     bool // an impulse was applied
	ImpactSpeed float64
	Separated   bool
}

// DetectOverlap runs the separating axis test over the two padded squares.
// Fast movers get a second test with both squares grown by a sweep margin so
// a pair that passes through each other within one tick still collides.
// Growing both squares doubles the effective margin compared to growing one,
// and the speed threshold uses the smaller half-size; together these keep
// the result independent of argument order.
func DetectOverlap(a, b *Combatant) bool {
	if satOverlap(a, b, CollisionPadding) {
		return true
	}

	relSpeed := a.Vel.Sub(b.Vel).Len()
	if relSpeed > min(a.Size, b.Size)/2 {
		sweep := relSpeed / SweepDivisor
		return satOverlap(a, b, CollisionPadding+sweep)
	}
	return false
}

func satOverlap(a, b *Combatant, padding float64) bool {
	ca := a.Corners(padding)
	cb := b.Corners(padding)

	axesA := geom.Axes(a.Rotation)
	axesB := geom.Axes(b.Rotation)
	axes := [4]geom.Vec2{axesA[0], axesA[1], axesB[0], axesB[1]}

	for _, axis := range axes {
		pa := geom.Project(ca[:], axis)
		pb := geom.Project(cb[:], axis)
		if !pa.Overlaps(pb) {
			return false
		}
	}
	return true
}

// Resolve applies weapon strikes and the bounce impulse to an overlapping
// pair. w may be nil when the arena has no weapon.
func Resolve(a, b *Combatant, w *Weapon, now time.Time) Contact {
	var contact Contact

	ac, bc := a.Center(), b.Center()
	delta := bc.Sub(ac)
	dist := delta.Len()
	if dist == 0 {
		contact.Degenerate = true
		return contact
	}

	point := geom.Midpoint(ac, bc)

	// Under the single-weapon rule only one branch can fire, both are kept.
	if a.HoldsWeapon {
		contact.Hits = append(contact.Hits, strike(a, b))
		disarm(a, w, point, now)
		contact.Dropped = true
		contact.DropPoint = point
	}
	if b.HoldsWeapon {
		contact.Hits = append(contact.Hits, strike(b, a))
		disarm(b, w, point, now)
		contact.Dropped = true
		contact.DropPoint = point
	}

	n := delta.Scale(1 / dist)
	impactSpeed := b.Vel.Sub(a.Vel).Dot(n)
	contact.ImpactSpeed = impactSpeed
	if impactSpeed > 0 {
		return contact
	}

	j := -(1 + Restitution) * impactSpeed / 2
	a.Vel = a.Vel.Sub(n.Scale(j))
	b.Vel = b.Vel.Add(n.Scale(j))
	contact.Bounced = true

	a.renormalizeSpeed()
	b.renormalizeSpeed()

	a.RotationSpeed *= RotationImpactBoost
	b.RotationSpeed *= RotationImpactBoost
	a.clampRotationSpeed()
	b.clampRotationSpeed()

	minSeparation := (a.Size + b.Size) * SeparationFactor
	if dist < minSeparation {
		push := n.Scale((minSeparation - dist) / 2)
		a.Pos = a.Pos.Sub(push)
		b.Pos = b.Pos.Add(push)
		contact.Separated = true
	}

	return contact
}

func strike(attacker, defender *Combatant) Hit {
	dmg := defender.TakeDamage(WeaponHitDamage)
	return Hit{
		AttackerID: attacker.ID,
		DefenderID: defender.ID,
		Damage:     dmg,
		Lethal:     defender.IsDead,
	}
}

func disarm(holder *Combatant, w *Weapon, point geom.Vec2, now time.Time) {
	holder.HoldsWeapon = false
	if w != nil && w.OwnerID == holder.ID {
		w.Drop(point, now)
	}
}
