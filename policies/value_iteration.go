package policies

import (
	"log/slog"
	"math"

	"github.com/zeu5/mdp-rl/core"
)

// ValueIteration plans over a known MDP. All sweeps run in the constructor;
// every method afterwards only reads the value table.
type ValueIteration struct {
	mdp        core.MDP
	discount   float64
	iterations int
	values     *ValueTable

	logger *slog.Logger
}

var _ core.ValueEstimator = &ValueIteration{}

type ValueIterationOption func(*ValueIteration)

// WithLogger reports the largest value change of each sweep at debug level.
func WithLogger(logger *slog.Logger) ValueIterationOption {
	return func(v *ValueIteration) {
		v.logger = logger
	}
}

// NewValueIteration runs exactly iterations synchronous Bellman sweeps over
// all states of mdp, each sweep reading only the previous sweep's values.
func NewValueIteration(mdp core.MDP, discount float64, iterations int, opts ...ValueIterationOption) *ValueIteration {
	v := &ValueIteration{
		mdp:        mdp,
		discount:   discount,
		iterations: iterations,
		values:     NewValueTable(),
	}
	for _, o := range opts {
		o(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}

	states := mdp.States()
	for i := 0; i < iterations; i++ {
		next := NewValueTable()
		delta := 0.0
		for _, state := range states {
			val := 0.0
			if !mdp.IsTerminal(state) {
				_, val = ArgMax(mdp.Actions(state), func(a core.Action) float64 {
					return v.ComputeQValueFromValues(state, a)
				})
			}
			next.Set(state.Hash(), val)
			delta = math.Max(delta, math.Abs(val-v.values.Get(state.Hash())))
		}
		v.values = next
		v.logger.Debug("value iteration sweep", "iteration", i+1, "delta", delta)
	}
	return v
}

// GetValue returns the value of state after the sweeps, 0 if it was never
// computed or is terminal.
func (v *ValueIteration) GetValue(state core.State) float64 {
	return v.values.Get(state.Hash())
}

// ComputeQValueFromValues is the one step Bellman backup of (state, action)
// against the current value table.
func (v *ValueIteration) ComputeQValueFromValues(state core.State, action core.Action) float64 {
	q := 0.0
	for _, t := range v.mdp.Transitions(state, action) {
		reward := v.mdp.Reward(state, action, t.Next)
		q += t.Prob * (reward + v.discount*v.values.Get(t.Next.Hash()))
	}
	return q
}

// ComputeActionFromValues returns the greedy action with respect to the
// value table, or nil for terminal and actionless states.
func (v *ValueIteration) ComputeActionFromValues(state core.State) core.Action {
	if v.mdp.IsTerminal(state) {
		return nil
	}
	action, _ := ArgMax(v.mdp.Actions(state), func(a core.Action) float64 {
		return v.ComputeQValueFromValues(state, a)
	})
	return action
}

func (v *ValueIteration) GetQValue(state core.State, action core.Action) float64 {
	return v.ComputeQValueFromValues(state, action)
}

func (v *ValueIteration) GetPolicy(state core.State) core.Action {
	return v.ComputeActionFromValues(state)
}

// GetAction returns the policy action. The planner never explores.
func (v *ValueIteration) GetAction(state core.State) core.Action {
	return v.ComputeActionFromValues(state)
}

func (v *ValueIteration) Discount() float64 {
	return v.discount
}

func (v *ValueIteration) Iterations() int {
	return v.iterations
}

// Values returns a copy of the computed values keyed by state hash.
func (v *ValueIteration) Values() map[string]float64 {
	return v.values.Copy()
}

func (v *ValueIteration) Record(path string) error {
	return v.values.Record(path)
}
