package gridworld

import (
	"fmt"
	"log/slog"

	"github.com/zeu5/mdp-rl/analysis"
	"github.com/zeu5/mdp-rl/benchmarks/common"
	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/features"
	"github.com/zeu5/mdp-rl/policies"
)

// FromFlags builds the grid world described by flags.
func FromFlags(flags *common.Flags) (*GridWorld, error) {
	return New(Config{
		Layout:       flags.Layout,
		Noise:        flags.Noise,
		LivingReward: flags.LivingReward,
	})
}

func Params(flags *common.Flags) policies.QLearningParams {
	return policies.QLearningParams{
		Epsilon:  flags.Epsilon,
		Alpha:    flags.Alpha,
		Discount: flags.Discount,
	}
}

func RunConfig(flags *common.Flags, logger *slog.Logger) *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     flags.Episodes,
		TrainingEpisodes:             flags.TrainingEpisodes,
		Horizon:                      flags.Horizon,
		EpisodeTimeout:               flags.EpisodeTimeout,
		Seed:                         flags.Seed,
		ThresholdConsecutiveErrors:   flags.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: flags.MaxConsecutiveTimeouts,
		Logger:                       logger,
	}
}

// exitEvent matches episodes whose last step exits with a reward
// satisfying check.
func exitEvent(name string, check func(float64) bool) analysis.EventSpec {
	return analysis.EventSpec{
		Name: name,
		Check: func(t *core.Trace) bool {
			last := t.Last()
			return last != nil && last.Action == Exit && check(last.Reward)
		},
	}
}

var (
	PositiveExit = exitEvent("PositiveExit", func(r float64) bool { return r > 0 })
	NegativeExit = exitEvent("NegativeExit", func(r float64) bool { return r < 0 })
)

// PrepareLearningComparison compares a random agent, tabular Q-learning
// and approximate Q-learning on the grid world, measuring how close each
// learned policy gets to the one found by value iteration.
func PrepareLearningComparison(flags *common.Flags, logger *slog.Logger) (*core.ParallelComparison, error) {
	grid, err := FromFlags(flags)
	if err != nil {
		return nil, err
	}
	extractor, err := features.Named(flags.Extractor)
	if err != nil {
		return nil, err
	}
	planner := policies.NewValueIteration(grid, flags.Discount, flags.Iterations, policies.WithLogger(logger))

	cmp := core.NewParallelComparison()
	envs := NewEnvironmentConstructor(grid, flags.Seed)
	params := Params(flags)

	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, flags.Episodes-10), analysis.NoOpComparatorConstructor{})
	}
	cmp.AddAnalysis("Events", analysis.NewEventAnalyzerConstructor(flags.SavePath, NegativeExit), analysis.NoOpComparatorConstructor{})
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NoOpComparatorConstructor{})
	cmp.AddAnalysis("Returns", analysis.NewReturnAnalyzerConstructor(flags.Discount), analysis.NewReturnComparatorConstructor(flags.SavePath, logger))
	cmp.AddAnalysis("Coverage", analysis.NewCoverageAnalyzerConstructor(), analysis.NewCoverageComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Agreement",
		analysis.NewPolicyAgreementAnalyzerConstructor(planner, grid.States()),
		analysis.NewPolicyAgreementComparatorConstructor(flags.SavePath),
	)

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envs,
		Agent:       &policies.RandomAgentConstructor{},
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "QLearning",
		Environment: envs,
		Agent:       policies.NewQLearningConstructor(params),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        fmt.Sprintf("ApproximateQLearning_%s", flags.Extractor),
		Environment: envs,
		Agent:       policies.NewApproximateQLearningConstructor(extractor, params),
	})
	return cmp, nil
}
