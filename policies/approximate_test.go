package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeu5/mdp-rl/core"
)

// fixedFeatures returns the same features for every pair in a state.
type fixedFeatures map[string]core.Features

func (f fixedFeatures) Features(s core.State, _ core.Action) core.Features {
	out := make(core.Features)
	for k, v := range f[s.Hash()] {
		out[k] = v
	}
	return out
}

func TestApproximateUnseenIsZero(t *testing.T) {
	ext := fixedFeatures{"A": {"f1": 1, "f2": 0.5}}
	q := NewApproximateQLearning(fourActions(), ext, DefaultQLearningParams(), 1)

	assert.Equal(t, 0.0, q.GetQValue(name("A"), name("n")))
	assert.Equal(t, 0.0, q.GetQValue(name("B"), name("n")))
	assert.Empty(t, q.Weights())
}

func TestApproximateUpdate(t *testing.T) {
	ext := fixedFeatures{
		"A": {"f1": 1, "f2": 0.5},
		"B": {"f2": 2},
	}
	params := QLearningParams{Epsilon: 0, Alpha: 0.1, Discount: 0.5}
	q := NewApproximateQLearning(fourActions(), ext, params, 1)

	// difference = 2 + 0.5 * 0 - 0 = 2
	q.Update(name("A"), name("n"), name("B"), 2)
	w := q.Weights()
	assert.InDelta(t, 0.2, w["f1"], 1e-12)
	assert.InDelta(t, 0.1, w["f2"], 1e-12)

	assert.InDelta(t, 0.25, q.GetQValue(name("A"), name("s")), 1e-12)
	assert.InDelta(t, 0.2, q.GetQValue(name("B"), name("e")), 1e-12)

	// difference = 1 + 0.5 * V(B) - Q(A) = 1 + 0.1 - 0.25 = 0.85
	q.Update(name("A"), name("n"), name("B"), 1)
	w = q.Weights()
	assert.InDelta(t, 0.2+0.1*0.85, w["f1"], 1e-12)
	assert.InDelta(t, 0.1+0.1*0.85*0.5, w["f2"], 1e-12)
}

func TestApproximateOnlyTouchesPresentFeatures(t *testing.T) {
	ext := fixedFeatures{
		"A": {"f1": 1, "zero": 0},
		"B": {"f2": 1},
	}
	params := QLearningParams{Epsilon: 0, Alpha: 0.5, Discount: 0.9}
	q := NewApproximateQLearning(fourActions(), ext, params, 1)

	q.Update(name("A"), name("w"), name("T"), 1)
	w := q.Weights()
	assert.Equal(t, map[string]float64{"f1": 0.5}, w)

	// the returned weights are a copy
	w["f1"] = 100
	assert.Equal(t, 0.5, q.GetQValue(name("A"), name("w")))
}

func TestApproximateNoActions(t *testing.T) {
	q := NewApproximateQLearning(fourActions(), fixedFeatures{}, DefaultQLearningParams(), 1)

	assert.Nil(t, q.GetAction(name("T")))
	assert.Nil(t, q.GetPolicy(name("T")))
	assert.Equal(t, 0.0, q.GetValue(name("T")))
}

func TestApproximateReset(t *testing.T) {
	ext := fixedFeatures{"A": {"f1": 1}}
	q := NewApproximateQLearning(fourActions(), ext, DefaultQLearningParams(), 1)
	q.Update(name("A"), name("n"), name("T"), 1)
	assert.NotEmpty(t, q.Weights())

	q.Reset()
	assert.Empty(t, q.Weights())
}
