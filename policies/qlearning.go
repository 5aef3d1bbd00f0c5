package policies

import (
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/mdp-rl/core"
)

// QLearningParams holds the learning hyperparameters. Values are used as
// given; callers keep them within [0, 1].
type QLearningParams struct {
	Epsilon  float64 `json:"epsilon" yaml:"epsilon"`
	Alpha    float64 `json:"alpha" yaml:"alpha"`
	Discount float64 `json:"discount" yaml:"discount"`
}

// DefaultQLearningParams are the grid world defaults.
func DefaultQLearningParams() QLearningParams {
	return QLearningParams{
		Epsilon:  0.5,
		Alpha:    0.5,
		Discount: 0.9,
	}
}

// PacmanQLearningParams are the defaults used for larger game-like
// environments.
func PacmanQLearningParams() QLearningParams {
	return QLearningParams{
		Epsilon:  0.05,
		Alpha:    0.2,
		Discount: 0.8,
	}
}

// epsilonGreedy is the action selection shared by the learning agents. It
// is parameterised by the agent's Q-value function.
type epsilonGreedy struct {
	actions core.ActionSpace
	params  QLearningParams
	qValue  func(core.State, core.Action) float64

	seed uint64
	rand *erand.Rand
}

func newEpsilonGreedy(actions core.ActionSpace, params QLearningParams, seed uint64) *epsilonGreedy {
	return &epsilonGreedy{
		actions: actions,
		params:  params,
		seed:    seed,
		rand:    erand.New(erand.NewSource(seed)),
	}
}

// ComputeValueFromQValues returns the largest Q-value over the legal
// actions of state, 0 when there are none.
func (e *epsilonGreedy) ComputeValueFromQValues(state core.State) float64 {
	_, val := ArgMax(e.actions.Actions(state), func(a core.Action) float64 {
		return e.qValue(state, a)
	})
	return val
}

// ComputeActionFromQValues returns the first legal action with the largest
// Q-value, nil when there are none.
func (e *epsilonGreedy) ComputeActionFromQValues(state core.State) core.Action {
	action, _ := ArgMax(e.actions.Actions(state), func(a core.Action) float64 {
		return e.qValue(state, a)
	})
	return action
}

// GetAction picks a uniformly random legal action with probability epsilon
// and the greedy action otherwise.
func (e *epsilonGreedy) GetAction(state core.State) core.Action {
	actions := e.actions.Actions(state)
	if len(actions) == 0 {
		return nil
	}
	if e.rand.Float64() < e.params.Epsilon {
		return actions[e.rand.Intn(len(actions))]
	}
	return e.ComputeActionFromQValues(state)
}

func (e *epsilonGreedy) GetPolicy(state core.State) core.Action {
	return e.ComputeActionFromQValues(state)
}

func (e *epsilonGreedy) GetValue(state core.State) float64 {
	return e.ComputeValueFromQValues(state)
}

func (e *epsilonGreedy) SetEpsilon(epsilon float64) {
	e.params.Epsilon = epsilon
}

func (e *epsilonGreedy) SetAlpha(alpha float64) {
	e.params.Alpha = alpha
}

func (e *epsilonGreedy) Params() QLearningParams {
	return e.params
}

// sample is the one step target r + discount * V(nextState).
func (e *epsilonGreedy) sample(nextState core.State, reward float64) float64 {
	return reward + e.params.Discount*e.ComputeValueFromQValues(nextState)
}

// QLearning is the tabular Q-learning agent.
type QLearning struct {
	*epsilonGreedy
	qTable *QTable
}

var _ core.Agent = &QLearning{}
var _ core.Trainable = &QLearning{}

func NewQLearning(actions core.ActionSpace, params QLearningParams, seed uint64) *QLearning {
	q := &QLearning{
		epsilonGreedy: newEpsilonGreedy(actions, params, seed),
		qTable:        NewQTable(),
	}
	q.qValue = q.GetQValue
	return q
}

// GetQValue returns Q(state, action), 0 for pairs never updated.
func (q *QLearning) GetQValue(state core.State, action core.Action) float64 {
	return q.qTable.Get(state.Hash(), action.Hash())
}

// Update moves Q(state, action) towards reward + discount * V(nextState)
// by a step of alpha.
func (q *QLearning) Update(state core.State, action core.Action, nextState core.State, reward float64) {
	sample := q.sample(nextState, reward)
	cur := q.GetQValue(state, action)
	q.qTable.Set(state.Hash(), action.Hash(), (1-q.params.Alpha)*cur+q.params.Alpha*sample)
}

func (q *QLearning) Reset() {
	q.qTable.Reset()
	q.rand = erand.New(erand.NewSource(q.seed))
}

func (q *QLearning) QTable() *QTable {
	return q.qTable
}

func (q *QLearning) Record(path string) error {
	return q.qTable.Record(path)
}

func (q *QLearning) Read(path string) error {
	return q.qTable.Read(path)
}

type QLearningConstructor struct {
	params QLearningParams
}

var _ core.AgentConstructor = &QLearningConstructor{}

func NewQLearningConstructor(params QLearningParams) *QLearningConstructor {
	return &QLearningConstructor{
		params: params,
	}
}

func (q *QLearningConstructor) NewAgent(actions core.ActionSpace, seed uint64) core.Agent {
	return NewQLearning(actions, q.params, seed)
}
