package policies_test

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/mdp-rl/benchmarks/gridworld"
	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/features"
	"github.com/zeu5/mdp-rl/policies"
)

// With one indicator feature per (state, action) the linear agent is the
// tabular agent: its single active weight is the Q-value.
func TestApproximateIdentityMatchesTabular(t *testing.T) {
	grid, err := gridworld.New(gridworld.DefaultConfig())
	require.NoError(t, err)

	params := policies.QLearningParams{Epsilon: 0.3, Alpha: 0.4, Discount: 0.9}
	tabular := policies.NewQLearning(grid, params, 11)
	approx := policies.NewApproximateQLearning(grid, features.Identity{}, params, 11)
	env := gridworld.NewEnvironment(grid, 5)

	for episode := 0; episode < 200; episode++ {
		state, err := env.Reset()
		require.NoError(t, err)
		for step := 0; step < 100 && len(grid.Actions(state)) > 0; step++ {
			action := tabular.GetAction(state)
			next, reward, err := env.Step(action, nil)
			require.NoError(t, err)
			tabular.Update(state, action, next, reward)
			approx.Update(state, action, next, reward)
			state = next
		}
	}

	for _, s := range grid.States() {
		for _, a := range grid.Actions(s) {
			assert.InDelta(t, tabular.GetQValue(s, a), approx.GetQValue(s, a), 1e-9, "Q(%s, %s)", s.Hash(), a.Hash())
		}
		if clearWinner(tabular, s, grid.Actions(s)) {
			assert.Equal(t, tabular.GetPolicy(s), approx.GetPolicy(s), "policy at %s", s.Hash())
		}
		assert.InDelta(t, tabular.GetValue(s), approx.GetValue(s), 1e-9)
	}
	assert.Equal(t, tabular.QTable().Size(), len(approx.Weights()))
}

// clearWinner reports whether the best action of s beats the runner up by
// more than rounding noise.
func clearWinner(q core.ValueEstimator, s core.State, actions []core.Action) bool {
	if len(actions) < 2 {
		return true
	}
	vals := make([]float64, len(actions))
	for i, a := range actions {
		vals[i] = q.GetQValue(s, a)
	}
	sort.Float64s(vals)
	return math.Abs(vals[len(vals)-1]-vals[len(vals)-2]) > 1e-6
}

func TestQLearningLearnsBookGridPolicy(t *testing.T) {
	grid, err := gridworld.New(gridworld.Config{Layout: "book", Noise: 0})
	require.NoError(t, err)
	planner := policies.NewValueIteration(grid, 0.9, 100)

	agent := policies.NewQLearning(grid, policies.QLearningParams{Epsilon: 0.5, Alpha: 0.5, Discount: 0.9}, 3)
	env := gridworld.NewEnvironment(grid, 3)
	exp := &core.Experiment{Name: "q", Environment: env, Agent: agent}
	result := exp.Run(context.Background(), 0, &core.RunConfig{
		Episodes:                     2000,
		Horizon:                      100,
		ThresholdConsecutiveErrors:   1,
		ThresholdConsecutiveTimeouts: 1,
	}, nil, nil)
	require.False(t, result.IsError())

	start := grid.Start()
	assert.InDelta(t, planner.GetValue(start), agent.GetValue(start), 0.05)
}
