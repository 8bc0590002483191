package game

import "errors"

var (
	ErrUnknownCombatant = errors.New("unknown combatant")
	ErrUnknownSkill     = errors.New("unknown skill")
	ErrSkillQueueFull   = errors.New("skill queue full")
)
