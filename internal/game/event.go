package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Periodic tick marker
	EventTypeMatchStart
	EventTypePickup
	EventTypeDrop
	EventTypeDamage
	EventTypeDeath
	EventTypeWin
	EventTypeSkill
	EventTypeBounce
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version     uint8           `json:"version"`
	Type        EventType       `json:"-"`
	TypeName    string          `json:"type"`
	Timestamp   int64           `json:"timestamp"` // Unix nano, match clock
	Sequence    uint64          `json:"sequence"`
	TickNum     uint64          `json:"tickNum"`
	CombatantID string          `json:"combatantId,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeMatchStart:
		return "match_start"
	case EventTypePickup:
		return "pickup"
	case EventTypeDrop:
		return "drop"
	case EventTypeDamage:
		return "damage"
	case EventTypeDeath:
		return "death"
	case EventTypeWin:
		return "win"
	case EventTypeSkill:
		return "skill"
	case EventTypeBounce:
		return "bounce"
	default:
		return "unknown"
	}
}

// TickPayload is written every TickEventInterval ticks
type TickPayload struct {
	Active int           `json:"active"`
	Health []HealthEntry `json:"health"`
}

// MatchStartPayload describes the spawn layout
type MatchStartPayload struct {
	ArenaWidth  float64  `json:"arenaWidth"`
	ArenaHeight float64  `json:"arenaHeight"`
	Combatants  []string `json:"combatants"`
}

// PickupPayload contains pickup details
type PickupPayload struct {
	Edge string `json:"edge"`
}

// DropPayload contains the point the weapon landed on
type DropPayload struct {
	HolderID string  `json:"holderId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// DamagePayload contains damage event details
type DamagePayload struct {
	AttackerID string `json:"attackerId"`
	VictimID   string `json:"victimId"`
	Damage     int    `json:"damage"`
	VictimHP   int    `json:"victimHp"`
}

// WinPayload names the survivor, empty when nobody is left
type WinPayload struct {
	WinnerID string `json:"winnerId"`
	Ticks    uint64 `json:"ticks"`
}

// SkillPayload contains skill activation details
type SkillPayload struct {
	Skill         string `json:"skill"`
	DurationTicks int    `json:"durationTicks"`
}

// BouncePayload contains collision impulse details
type BouncePayload struct {
	ImpactSpeed float64 `json:"impactSpeed"`
	Separated   bool    `json:"separated"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event stamped with at
func NewEvent(eventType EventType, at time.Time, tickNum uint64, combatantID string, payload interface{}) Event {
	return Event{
		Version:     EventVersion,
		Type:        eventType,
		TypeName:    eventType.String(),
		Timestamp:   at.UnixNano(),
		TickNum:     tickNum,
		CombatantID: combatantID,
		Payload:     EncodePayload(payload),
	}
}
