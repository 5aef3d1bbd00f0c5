package policies

import (
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/mdp-rl/core"
)

// ApproximateQLearning estimates Q(s, a) as a weighted sum of the features
// of (s, a). One weight vector is shared by all pairs.
type ApproximateQLearning struct {
	*epsilonGreedy
	extractor core.FeatureExtractor
	weights   *ValueTable
}

var _ core.Agent = &ApproximateQLearning{}
var _ core.Trainable = &ApproximateQLearning{}

func NewApproximateQLearning(actions core.ActionSpace, extractor core.FeatureExtractor, params QLearningParams, seed uint64) *ApproximateQLearning {
	q := &ApproximateQLearning{
		epsilonGreedy: newEpsilonGreedy(actions, params, seed),
		extractor:     extractor,
		weights:       NewValueTable(),
	}
	q.qValue = q.GetQValue
	return q
}

// GetQValue returns w . features(state, action).
func (q *ApproximateQLearning) GetQValue(state core.State, action core.Action) float64 {
	return q.weights.Dot(q.extractor.Features(state, action))
}

// Update adjusts the weight of every feature present for (state, action)
// by alpha * difference * value, where difference is the TD error.
func (q *ApproximateQLearning) Update(state core.State, action core.Action, nextState core.State, reward float64) {
	features := q.extractor.Features(state, action)
	difference := q.sample(nextState, reward) - q.weights.Dot(features)
	for _, name := range sortedKeys(features) {
		if features[name] == 0 {
			continue
		}
		q.weights.Add(name, q.params.Alpha*difference*features[name])
	}
}

// Weights returns a copy of the weight vector.
func (q *ApproximateQLearning) Weights() map[string]float64 {
	return q.weights.Copy()
}

func (q *ApproximateQLearning) Reset() {
	q.weights = NewValueTable()
	q.rand = erand.New(erand.NewSource(q.seed))
}

func (q *ApproximateQLearning) Record(path string) error {
	return q.weights.Record(path)
}

func (q *ApproximateQLearning) Read(path string) error {
	return q.weights.Read(path)
}

type ApproximateQLearningConstructor struct {
	params    QLearningParams
	extractor core.FeatureExtractor
}

var _ core.AgentConstructor = &ApproximateQLearningConstructor{}

func NewApproximateQLearningConstructor(extractor core.FeatureExtractor, params QLearningParams) *ApproximateQLearningConstructor {
	return &ApproximateQLearningConstructor{
		params:    params,
		extractor: extractor,
	}
}

func (a *ApproximateQLearningConstructor) NewAgent(actions core.ActionSpace, seed uint64) core.Agent {
	return NewApproximateQLearning(actions, a.extractor, a.params, seed)
}
