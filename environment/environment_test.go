package environment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/biosphere/components"
	"github.com/pthm-cable/biosphere/config"
	"github.com/pthm-cable/biosphere/organism"
)

// quietConfig returns a config with no founders, no food, a stable climate
// and no random trait or infection changes.
func quietConfig() *config.Config {
	cfg := config.Default().Clone()
	cfg.Population.InitialMix = map[string]int{}
	cfg.Food.Initial = 0
	cfg.Food.Floor = 0
	cfg.Food.PerUpdate = 0
	cfg.Climate.ShiftChance = 0
	cfg.Climate.PollutionInterval = 0
	cfg.Mutation.Chance = 0
	cfg.Disease.SpreadProb = 0
	cfg.Disease.SpontaneousProb = 0
	cfg.Reproduction.Chance = 0
	return cfg
}

func newEnv(t *testing.T, cfg *config.Config) *Environment {
	t.Helper()
	env, err := New(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return env
}

func newOrganism(cfg *config.Config, v components.Variant, caps components.Capabilities, x, y float64) *organism.Organism {
	o := organism.New(cfg)
	o.Pos.X, o.Pos.Y = x, y
	o.Body.Size = 5
	o.Body.Speed = 2
	o.Lineage.Variant = v
	*o.Caps = caps
	return o
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.World.Width = -1

	_, err := New(cfg, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewSpawnsInitialMix(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.InitialMix = map[string]int{
		config.VariantHerbivore:  3,
		config.VariantPhototroph: 2,
		config.VariantChemotroph: 1,
	}
	cfg.Food.Initial = 12
	env := newEnv(t, cfg)

	pop := env.Population()
	require.Len(t, pop, 6)
	require.Len(t, env.Food(), 12)
	require.False(t, env.IsExtinct())

	var herbivores, photo, chemo int
	for i, o := range pop {
		require.Equal(t, uint32(i), o.Lineage.ID)
		require.Zero(t, o.Lineage.Generation)
		switch {
		case o.Lineage.Variant == components.VariantHerbivore:
			herbivores++
			require.True(t, o.Caps.CanEat)
		case o.Lineage.Autotroph == components.AutotrophPhototroph:
			photo++
			require.False(t, o.Caps.CanEat)
		case o.Lineage.Autotroph == components.AutotrophChemotroph:
			chemo++
		}
		require.GreaterOrEqual(t, o.Body.Size, cfg.Organism.InitialSizeMin)
		require.LessOrEqual(t, o.Body.Size, cfg.Organism.InitialSizeMax)
	}
	require.Equal(t, 3, herbivores)
	require.Equal(t, 2, photo)
	require.Equal(t, 1, chemo)
	require.NoError(t, env.CheckInvariants())
}

func TestSenescenceAloneKills(t *testing.T) {
	cfg := quietConfig()
	env := newEnv(t, cfg)

	o := newOrganism(cfg, components.VariantHerbivore, components.Capabilities{CanWander: true}, 400, 300)
	o.Vitals.Energy = 100
	env.Spawn(o)

	for tick := 1; tick <= 199; tick++ {
		env.Tick()
		pop := env.Population()
		require.Len(t, pop, 1, "tick %d", tick)
		want := 100.0
		if tick > cfg.Aging.SenescenceAge {
			want -= float64(tick - cfg.Aging.SenescenceAge)
		}
		require.InDelta(t, want, pop[0].Vitals.Health, 1e-9, "tick %d", tick)
	}

	env.Tick()
	require.True(t, env.IsExtinct())
	corpses := env.Corpses()
	require.Len(t, corpses, 1)
	require.False(t, corpses[0].Alive())
	require.LessOrEqual(t, corpses[0].Vitals.Health, 0.0)
	require.Equal(t, components.CauseAge, corpses[0].Vitals.Cause)
	require.Zero(t, corpses[0].Vitals.Energy)
}

func TestCarnivoreKillsWeakHerbivore(t *testing.T) {
	cfg := quietConfig()
	env := newEnv(t, cfg)

	carn := newOrganism(cfg, components.VariantCarnivore,
		organism.CapabilitiesFrom(cfg.Variants[config.VariantCarnivore]), 100, 100)
	carn.Temper.Aggression = 1
	herb := newOrganism(cfg, components.VariantHerbivore,
		organism.CapabilitiesFrom(cfg.Variants[config.VariantHerbivore]), 103, 100)
	herb.Vitals.Health = 5

	carnEntity := env.Spawn(carn).Entity
	env.Spawn(herb)

	env.Tick()

	pop := env.Population()
	require.Len(t, pop, 1)
	require.Equal(t, components.VariantCarnivore, pop[0].Lineage.Variant)
	require.Equal(t, 1, pop[0].Vitals.Experience)

	corpses := env.Corpses()
	require.Len(t, corpses, 1)
	victim := corpses[0]
	require.InDelta(t, -15, victim.Vitals.Health, 1e-9)
	require.False(t, victim.Alive())
	require.Equal(t, components.CausePredation, victim.Vitals.Cause)
	require.True(t, victim.Memory.Remembers(carnEntity))
	require.NoError(t, env.CheckInvariants())
}

func TestFoodInjectedBelowFloor(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		want    int
	}{
		{"below floor", 49, 59},
		{"at floor", 50, 50},
		{"empty", 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			cfg.Food.Initial = tt.initial
			cfg.Food.Floor = 50
			cfg.Food.PerUpdate = 10
			env := newEnv(t, cfg)

			env.Tick()
			require.Len(t, env.Food(), tt.want)
		})
	}
}

func TestFoodInjectedBeforeFeeding(t *testing.T) {
	cfg := quietConfig()
	cfg.Food.Initial = 49
	cfg.Food.Floor = 50
	cfg.Food.PerUpdate = 10
	cfg.World.Width = 10
	cfg.World.Height = 10
	cfg.World.WaterSources = nil
	env := newEnv(t, cfg)

	// In a 10x10 world every food item is within reach of a size-5 eater.
	eater := newOrganism(cfg, components.VariantHerbivore, components.Capabilities{CanEat: true}, 5, 5)
	env.Spawn(eater)

	env.Tick()
	require.Len(t, env.Food(), 58, "59 after injection, one eaten")
}

func TestPopulationCapTruncatesFromEnd(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Max = 3
	cfg.Reproduction.Chance = 1
	env := newEnv(t, cfg)

	for i := range 3 {
		o := newOrganism(cfg, components.VariantAutotroph, components.Capabilities{CanReproduce: true}, float64(100+50*i), 100)
		o.Lineage.Autotroph = components.AutotrophPhototroph
		o.Vitals.Energy = 90
		env.Spawn(o)
	}

	env.Tick()

	pop := env.Population()
	require.Len(t, pop, 3)
	for i, o := range pop {
		require.Equal(t, uint32(i), o.Lineage.ID, "founders survive, children are cut")
		require.Zero(t, o.Lineage.Generation)
	}
	require.NoError(t, env.CheckInvariants())
}

func TestPopulationNeverExceedsMax(t *testing.T) {
	cfg := config.Default().Clone()
	cfg.Population.Max = 40
	cfg.Reproduction.Chance = 1
	env := newEnv(t, cfg)

	for range 50 {
		env.Tick()
		require.LessOrEqual(t, len(env.Population()), cfg.Population.Max)
	}
}

func TestInvariantsHoldOverRun(t *testing.T) {
	env, err := New(config.Default(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	for tick := 1; tick <= 300 && !env.IsExtinct(); tick++ {
		env.Tick()
		require.NoError(t, env.CheckInvariants(), "tick %d", tick)
	}
	require.Equal(t, env.TickCount(), env.Metrics().Len())
}

func TestCorpsesLingerOneTick(t *testing.T) {
	cfg := quietConfig()
	env := newEnv(t, cfg)

	dying := newOrganism(cfg, components.VariantHerbivore, components.Capabilities{}, 100, 100)
	dying.Vitals.Age = cfg.Aging.SenescenceAge
	dying.Vitals.Health = 1
	env.Spawn(dying)

	env.Tick()
	require.Len(t, env.Corpses(), 1)
	require.Equal(t, 1, env.Corpses()[0].Vitals.DiedTick)

	env.Tick()
	require.Len(t, env.Corpses(), 1, "still available for scavenging")

	env.Tick()
	require.Empty(t, env.Corpses())
}

func TestDetritivoreRecyclesCorpse(t *testing.T) {
	cfg := quietConfig()
	env := newEnv(t, cfg)

	dying := newOrganism(cfg, components.VariantHerbivore, components.Capabilities{}, 100, 100)
	dying.Vitals.Age = cfg.Aging.SenescenceAge
	dying.Vitals.Health = 1
	env.Spawn(dying)
	env.Spawn(newOrganism(cfg, components.VariantDetritivore, components.Capabilities{}, 100, 100))

	env.Tick()
	require.Len(t, env.Corpses(), 1)

	env.Tick()
	require.Empty(t, env.Corpses(), "recycled corpses are removed")
	require.Len(t, env.Population(), 1)
}

func TestMetricsSeries(t *testing.T) {
	cfg := quietConfig()
	cfg.Climate.PollutionInterval = 2
	cfg.Climate.PollutionStep = 1
	env := newEnv(t, cfg)
	env.Spawn(newOrganism(cfg, components.VariantHerbivore, components.Capabilities{}, 10, 10))

	for range 4 {
		env.Tick()
	}

	m := env.Metrics()
	var pollution []float64
	for v := range m.Pollution() {
		pollution = append(pollution, v)
	}
	require.Equal(t, []float64{0, 1, 1, 2}, pollution)

	var pop []int
	for v := range m.Population() {
		pop = append(pop, v)
	}
	require.Equal(t, []int{1, 1, 1, 1}, pop)

	env.Tick()
	require.Equal(t, 4, m.Len(), "metrics are a snapshot")
}

func TestFrameCarriesClosedWindow(t *testing.T) {
	cfg := quietConfig()
	cfg.Telemetry.WindowTicks = 3
	env := newEnv(t, cfg)
	env.Spawn(newOrganism(cfg, components.VariantHerbivore, components.Capabilities{}, 10, 10))

	env.Tick()
	env.Tick()
	require.Nil(t, env.Frame().Window)

	env.Tick()
	f := env.Frame()
	require.NotNil(t, f.Window)
	require.NotNil(t, f.Perf)
	require.Equal(t, 3, f.Window.WindowEndTick)
	require.Equal(t, 1, f.Window.Herbivores)
	require.Equal(t, 3, f.Tick)
	require.Equal(t, 1, f.Population)

	env.Tick()
	require.Nil(t, env.Frame().Window)
}

func TestCheckInvariantsReportsViolation(t *testing.T) {
	cfg := quietConfig()
	env := newEnv(t, cfg)
	o := env.Spawn(newOrganism(cfg, components.VariantHerbivore, components.Capabilities{}, 10, 10))

	o.Body.Size = cfg.Organism.MaxSize + 1
	require.ErrorIs(t, env.CheckInvariants(), ErrInvariant)

	o.Body.Size = 1
	o.Vitals.Health = 0
	require.ErrorIs(t, env.CheckInvariants(), ErrInvariant)
}
