package sim

import "time"

// UnitStats is the per-type stat block. Speed is in world units per second.
type UnitStats struct {
	Cost        float64
	Health      float64
	Speed       float64
	Damage      float64
	AttackRange float64
	VisionRange float64
	CooldownMs  float64
	HitRadius   float64
	Capacity    float64
	Gate        ModuleKind // tech gate; only meaningful when Gated
	Gated       bool
}

// ModuleStats is the per-kind module config. PowerPerLevel is positive for
// generators and negative for consumers.
type ModuleStats struct {
	Cost          float64
	PowerPerLevel float64
}

// NodeTier is the size/yield class of a resource node.
type NodeTier int

const (
	TierSmall NodeTier = iota
	TierMedium
	TierLarge
	tierCount
)

func (t NodeTier) String() string {
	switch t {
	case TierSmall:
		return "small"
	case TierMedium:
		return "medium"
	case TierLarge:
		return "large"
	default:
		return "unknown"
	}
}

// TierStats fixes the footprint and starting quantity of a tier. Weight is the
// relative draw probability when spawning.
type TierStats struct {
	Size     float64
	Quantity float64
	Weight   float64
}

// DifficultyPreset is one of the three opponent cadences.
type DifficultyPreset struct {
	DecisionInterval float64 // seconds between decisions
	MinerCap         int
	AttackThreshold  int
}

// OpponentRules holds the fixed thresholds the opponent controller decides with.
type OpponentRules struct {
	StartingCredits float64
	PowerMargin     float64
	HangarRich      float64
	SiloRich        float64
	FactoryRich     float64
	TurretRich      float64
	TurretCap       int
	UnitCap         int
	TrickleRate     float64 // credits/s while stuck with no miners
	TrickleBelow    float64
	UnitWeights     [unitTypeCount]float64
	Presets         [difficultyCount]DifficultyPreset
}

// WaveTemplate is a hand-authored wave: Count spawns cycling through Types,
// spaced Interval seconds apart.
type WaveTemplate struct {
	Count    int
	Types    []UnitType
	Interval float64
}

// WaveRules configures the survival scheduler and its supply drops.
type WaveRules struct {
	Authored           []WaveTemplate
	BudgetPerWave      float64
	ProceduralInterval float64
	TelegraphSeconds   float64
	RestSeconds        float64
	EdgeOffset         float64
	DropFirst          float64
	DropMin            float64
	DropMax            float64
	DropMargin         float64
	DropWeights        [powerupKindCount]float64
}

// Rules is the immutable configuration of a match. Build it once (DefaultRules
// plus overrides) and hand the pointer to NewEngine; the engine never writes to it.
type Rules struct {
	WorldW, WorldH float64
	ViewW, ViewH   float64
	CameraPanSpeed float64

	StartingCredits float64
	MiningRate      float64 // resource per second per miner
	MiningReach     float64
	OffloadRate     float64 // credits per second at a depot; 0 deposits instantly
	DockPadding     float64
	ArrivalEpsilon  float64
	MaxDeltaTime    float64

	DrillPerLevel float64
	ArmorPerLevel float64
	SpeedPerLevel float64

	Units   [unitTypeCount]UnitStats
	Modules [moduleKindCount]ModuleStats

	BaseHealth              float64
	BaseSize                float64
	BaseRegen               float64
	BaseVision              float64
	BaseInset               float64
	BasePowerCapacity       float64
	BatteryCapacityPerLevel float64
	SolarIncomePerLevel     float64
	TurretRange             float64
	TurretDamagePerLevel    float64
	TurretCooldownMs        float64
	RepairRange             float64
	RepairPerLevel          float64
	SpawnJitter             float64

	Tiers             [tierCount]TierStats
	NodeDriftMax      float64
	NodeWrapMargin    float64
	InitialNodes      int
	NodeFloor         int
	NodeRespawnChance float64
	NodeBaseClearance float64

	UnitPickPad       float64
	UnitPickMax       float64
	NodePickRadius    float64
	DoubleClickWindow time.Duration

	PowerupLifetime     float64
	PowerupPickupRadius float64
	PowerupCredits      float64
	NukeDamage          float64
	ParticleDecay       float64
	ExplosionParticles  int

	SnapshotHz float64

	Opponent OpponentRules
	Waves    WaveRules
}

// DefaultRules returns the stock balance sheet.
func DefaultRules() *Rules {
	r := &Rules{
		WorldW:         3000,
		WorldH:         2000,
		ViewW:          1280,
		ViewH:          720,
		CameraPanSpeed: 500,

		StartingCredits: 150,
		MiningRate:      10,
		MiningReach:     100,
		OffloadRate:     10,
		DockPadding:     10,
		ArrivalEpsilon:  5,
		MaxDeltaTime:    0.1,

		DrillPerLevel: 0.10,
		ArmorPerLevel: 0.10,
		SpeedPerLevel: 0.05,

		BaseHealth:              2000,
		BaseSize:                120,
		BaseRegen:               1,
		BaseVision:              400,
		BaseInset:               200,
		BasePowerCapacity:       500,
		BatteryCapacityPerLevel: 250,
		SolarIncomePerLevel:     5,
		TurretRange:             400,
		TurretDamagePerLevel:    20,
		TurretCooldownMs:        1000,
		RepairRange:             300,
		RepairPerLevel:          10,
		SpawnJitter:             50,

		NodeDriftMax:      15,
		NodeWrapMargin:    100,
		InitialNodes:      30,
		NodeFloor:         20,
		NodeRespawnChance: 0.05,
		NodeBaseClearance: 300,

		UnitPickPad:       10,
		UnitPickMax:       30,
		NodePickRadius:    40,
		DoubleClickWindow: 400 * time.Millisecond,

		PowerupLifetime:     30,
		PowerupPickupRadius: 30,
		PowerupCredits:      250,
		NukeDamage:          1000,
		ParticleDecay:       2,
		ExplosionParticles:  12,

		SnapshotHz: 10,
	}

	const speedScale = 60
	r.Units[UnitMiner] = UnitStats{Cost: 50, Health: 50, Speed: 3 * speedScale, AttackRange: 60, VisionRange: 150, CooldownMs: 1000, HitRadius: 15, Capacity: 50}
	r.Units[UnitFighter] = UnitStats{Cost: 150, Health: 120, Speed: 4 * speedScale, Damage: 20, AttackRange: 150, VisionRange: 250, CooldownMs: 1000, HitRadius: 18, Gate: ModuleHangar, Gated: true}
	r.Units[UnitTank] = UnitStats{Cost: 350, Health: 400, Speed: 1.5 * speedScale, Damage: 50, AttackRange: 200, VisionRange: 300, CooldownMs: 2000, HitRadius: 25, Gate: ModuleFactory, Gated: true}
	r.Units[UnitKamikaze] = UnitStats{Cost: 100, Health: 40, Speed: 6 * speedScale, Damage: 500, AttackRange: 30, VisionRange: 150, CooldownMs: 0, HitRadius: 12, Gate: ModuleSilo, Gated: true}

	r.Modules[ModuleSolar] = ModuleStats{Cost: 100, PowerPerLevel: 50}
	r.Modules[ModuleBattery] = ModuleStats{Cost: 100}
	r.Modules[ModuleDepot] = ModuleStats{Cost: 150}
	r.Modules[ModuleTurret] = ModuleStats{Cost: 200, PowerPerLevel: -10}
	r.Modules[ModuleRepair] = ModuleStats{Cost: 150, PowerPerLevel: -15}
	r.Modules[ModuleHangar] = ModuleStats{Cost: 250, PowerPerLevel: -20}
	r.Modules[ModuleFactory] = ModuleStats{Cost: 400, PowerPerLevel: -40}
	r.Modules[ModuleSilo] = ModuleStats{Cost: 300, PowerPerLevel: -15}

	r.Tiers[TierSmall] = TierStats{Size: 50, Quantity: 250, Weight: 0.3}
	r.Tiers[TierMedium] = TierStats{Size: 80, Quantity: 500, Weight: 0.5}
	r.Tiers[TierLarge] = TierStats{Size: 110, Quantity: 1000, Weight: 0.2}

	r.Opponent = OpponentRules{
		StartingCredits: 200,
		PowerMargin:     20,
		HangarRich:      400,
		SiloRich:        600,
		FactoryRich:     800,
		TurretRich:      300,
		TurretCap:       2,
		UnitCap:         50,
		TrickleRate:     5,
		TrickleBelow:    50,
	}
	r.Opponent.UnitWeights[UnitFighter] = 0.5
	r.Opponent.UnitWeights[UnitTank] = 0.3
	r.Opponent.UnitWeights[UnitKamikaze] = 0.2
	r.Opponent.Presets[DifficultyEasy] = DifficultyPreset{DecisionInterval: 4, MinerCap: 3, AttackThreshold: 10}
	r.Opponent.Presets[DifficultyMedium] = DifficultyPreset{DecisionInterval: 2, MinerCap: 5, AttackThreshold: 6}
	r.Opponent.Presets[DifficultyHard] = DifficultyPreset{DecisionInterval: 1, MinerCap: 8, AttackThreshold: 4}

	r.Waves = WaveRules{
		Authored: []WaveTemplate{
			{Count: 3, Types: []UnitType{UnitFighter}, Interval: 2},
			{Count: 5, Types: []UnitType{UnitFighter, UnitFighter, UnitKamikaze}, Interval: 1.5},
			{Count: 4, Types: []UnitType{UnitTank, UnitFighter}, Interval: 3},
		},
		BudgetPerWave:      200,
		ProceduralInterval: 1,
		TelegraphSeconds:   3,
		RestSeconds:        5,
		EdgeOffset:         50,
		DropFirst:          30,
		DropMin:            30,
		DropMax:            50,
		DropMargin:         50,
	}
	r.Waves.DropWeights[PowerupHealth] = 2
	r.Waves.DropWeights[PowerupCredits] = 2
	r.Waves.DropWeights[PowerupNuke] = 1

	return r
}

// Clone returns a deep copy suitable for building an override set before a
// match starts.
func (r *Rules) Clone() *Rules {
	c := *r
	c.Waves.Authored = make([]WaveTemplate, len(r.Waves.Authored))
	for i, w := range r.Waves.Authored {
		w.Types = append([]UnitType(nil), w.Types...)
		c.Waves.Authored[i] = w
	}
	return &c
}

// Unit returns the stat block for t.
func (r *Rules) Unit(t UnitType) UnitStats { return r.Units[t] }

// Module returns the config for k.
func (r *Rules) Module(k ModuleKind) ModuleStats { return r.Modules[k] }

// ModulesFor lists the modules installable in the given match mode. Survival
// has no battery.
func (r *Rules) ModulesFor(mode MatchMode) []ModuleKind {
	all := AllModuleKinds()
	if mode != MatchSurvival {
		return all
	}
	out := all[:0]
	for _, k := range all {
		if k != ModuleBattery {
			out = append(out, k)
		}
	}
	return out
}

// ModuleAvailable reports whether k can be installed in mode.
func (r *Rules) ModuleAvailable(mode MatchMode, k ModuleKind) bool {
	for _, m := range r.ModulesFor(mode) {
		if m == k {
			return true
		}
	}
	return false
}

// combatTypes are every non-harvester unit type.
func combatTypes() []UnitType {
	return []UnitType{UnitFighter, UnitTank, UnitKamikaze}
}
