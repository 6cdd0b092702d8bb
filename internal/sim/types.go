package sim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownUnitType   = errors.New("unknown unit type")
	ErrUnknownModule     = errors.New("unknown module kind")
	ErrUnknownMode       = errors.New("unknown match mode")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// Team identifies the side an entity belongs to.
type Team int

const (
	TeamNeutral Team = iota
	TeamPlayer
	TeamEnemy
	teamCount
)

func (t Team) String() string {
	switch t {
	case TeamPlayer:
		return "player"
	case TeamEnemy:
		return "enemy"
	case TeamNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Opposes reports whether t and o are hostile to each other. Neutral opposes nobody.
func (t Team) Opposes(o Team) bool {
	return t != TeamNeutral && o != TeamNeutral && t != o
}

// Other returns the opposing combat team.
func (t Team) Other() Team {
	switch t {
	case TeamPlayer:
		return TeamEnemy
	case TeamEnemy:
		return TeamPlayer
	default:
		return TeamNeutral
	}
}

// UnitType is the closed set of mobile unit kinds.
type UnitType int

const (
	UnitMiner UnitType = iota
	UnitFighter
	UnitTank
	UnitKamikaze
	unitTypeCount
)

var unitTypeNames = [unitTypeCount]string{"miner", "fighter", "tank", "kamikaze"}

func (u UnitType) String() string {
	if u < 0 || u >= unitTypeCount {
		return "unknown"
	}
	return unitTypeNames[u]
}

// ParseUnitType validates an external unit name against the closed set.
func ParseUnitType(s string) (UnitType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range unitTypeNames {
		if n == name {
			return UnitType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnitType, s)
}

// AllUnitTypes lists every unit type in declaration order.
func AllUnitTypes() []UnitType {
	out := make([]UnitType, 0, unitTypeCount)
	for i := UnitType(0); i < unitTypeCount; i++ {
		out = append(out, i)
	}
	return out
}

// ModuleKind is the closed set of base modules.
type ModuleKind int

const (
	ModuleSolar ModuleKind = iota
	ModuleBattery
	ModuleDepot
	ModuleTurret
	ModuleRepair
	ModuleHangar
	ModuleFactory
	ModuleSilo
	moduleKindCount
)

var moduleKindNames = [moduleKindCount]string{
	"solar", "battery", "depot", "turret", "repair", "hangar", "factory", "silo",
}

func (m ModuleKind) String() string {
	if m < 0 || m >= moduleKindCount {
		return "unknown"
	}
	return moduleKindNames[m]
}

// ParseModuleKind validates an external module name. The legacy "radar" key is
// not accepted; the turret is always keyed "turret".
func ParseModuleKind(s string) (ModuleKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range moduleKindNames {
		if n == name {
			return ModuleKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModule, s)
}

// AllModuleKinds lists every module kind in declaration order.
func AllModuleKinds() []ModuleKind {
	out := make([]ModuleKind, 0, moduleKindCount)
	for i := ModuleKind(0); i < moduleKindCount; i++ {
		out = append(out, i)
	}
	return out
}

// EntityKind tags what a Handle points at.
type EntityKind int

const (
	KindNone EntityKind = iota
	KindUnit
	KindBase
	KindNode
)

func (k EntityKind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBase:
		return "base"
	case KindNode:
		return "node"
	default:
		return "none"
	}
}

// Handle is a weak reference into one of the engine's entity collections.
// It must be resolved through the engine every tick; a handle whose entity
// was removed resolves to nothing.
type Handle struct {
	Kind EntityKind
	ID   int
}

// NoHandle is the empty reference.
var NoHandle = Handle{}

// Valid reports whether the handle names something at all (not whether it is alive).
func (h Handle) Valid() bool { return h.Kind != KindNone }

func (h Handle) String() string {
	if !h.Valid() {
		return "--"
	}
	return fmt.Sprintf("%s#%d", h.Kind, h.ID)
}

// MatchMode selects between the two-base skirmish and the single-base survival configuration.
type MatchMode int

const (
	MatchSkirmish MatchMode = iota
	MatchSurvival
)

func (m MatchMode) String() string {
	switch m {
	case MatchSkirmish:
		return "skirmish"
	case MatchSurvival:
		return "survival"
	default:
		return "unknown"
	}
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skirmish":
		return MatchSkirmish, nil
	case "survival":
		return MatchSurvival, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Difficulty picks one of the opponent presets.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
	difficultyCount
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Upgrades are the persistent meta-upgrade levels read from the player's profile
// at match start.
type Upgrades struct {
	Drill int `json:"drill" msgpack:"drill"`
	Armor int `json:"armor" msgpack:"armor"`
	Speed int `json:"speed" msgpack:"speed"`
}

func (u Upgrades) miningMultiplier(r *Rules) float64 {
	return 1 + float64(max(u.Drill, 0))*r.DrillPerLevel
}

func (u Upgrades) healthMultiplier(r *Rules) float64 {
	return 1 + float64(max(u.Armor, 0))*r.ArmorPerLevel
}

func (u Upgrades) speedMultiplier(r *Rules) float64 {
	return 1 + float64(max(u.Speed, 0))*r.SpeedPerLevel
}
