package policies

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zeu5/mdp-rl/core"
)

// fourActions has states A and B with four actions each, and terminal T.
func fourActions() *tableMDP {
	m := newTableMDP("A", "B", "T")
	for _, a := range []string{"n", "e", "s", "w"} {
		m.edge("A", a, "B", 1.0, 0)
		m.edge("B", a, "T", 1.0, 1)
	}
	return m.setTerminal("T")
}

func TestQLearningUnseenPairsAreZero(t *testing.T) {
	q := NewQLearning(fourActions(), DefaultQLearningParams(), 1)

	for _, s := range []string{"A", "B", "T", "never-seen"} {
		for _, a := range []string{"n", "e", "s", "w", "x"} {
			assert.Equal(t, 0.0, q.GetQValue(name(s), name(a)))
		}
	}
	assert.Equal(t, 0, q.QTable().Size())
}

func TestQLearningUpdate(t *testing.T) {
	params := QLearningParams{Epsilon: 0, Alpha: 0.5, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 1)

	q.Update(name("B"), name("n"), name("T"), 1)
	assert.Equal(t, 0.5, q.GetQValue(name("B"), name("n")))

	// sample = 0 + 0.9 * max_a Q(B, a) = 0.45
	q.Update(name("A"), name("e"), name("B"), 0)
	assert.InDelta(t, 0.225, q.GetQValue(name("A"), name("e")), 1e-12)

	assert.Equal(t, 0.5, q.ComputeValueFromQValues(name("B")))
	assert.Equal(t, name("n"), q.ComputeActionFromQValues(name("B")))
	assert.Equal(t, name("e"), q.GetPolicy(name("A")))
	assert.InDelta(t, 0.225, q.GetValue(name("A")), 1e-12)
}

func TestQLearningRepeatedUpdatesConverge(t *testing.T) {
	const alpha = 0.3
	params := QLearningParams{Epsilon: 0, Alpha: alpha, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 1)

	const reward = 4.0
	for n := 1; n <= 200; n++ {
		q.Update(name("B"), name("s"), name("T"), reward)
		want := reward * (1 - math.Pow(1-alpha, float64(n)))
		require.InDelta(t, want, q.GetQValue(name("B"), name("s")), 1e-9)
	}
	assert.InDelta(t, reward, q.GetQValue(name("B"), name("s")), 1e-9)
}

func TestQLearningZeroAlphaIsNoOp(t *testing.T) {
	params := QLearningParams{Epsilon: 0, Alpha: 0.5, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 1)
	q.Update(name("B"), name("w"), name("T"), 3)
	before := q.GetQValue(name("B"), name("w"))

	q.SetAlpha(0)
	for i := 0; i < 10; i++ {
		q.Update(name("B"), name("w"), name("T"), 100)
	}
	assert.Equal(t, before, q.GetQValue(name("B"), name("w")))
}

func TestQLearningNoActions(t *testing.T) {
	q := NewQLearning(fourActions(), DefaultQLearningParams(), 1)

	assert.Nil(t, q.GetAction(name("T")))
	assert.Nil(t, q.GetPolicy(name("T")))
	assert.Nil(t, q.ComputeActionFromQValues(name("T")))
	assert.Equal(t, 0.0, q.GetValue(name("T")))

	// every non terminal state has an action
	assert.NotNil(t, q.GetPolicy(name("A")))
}

func TestQLearningTieBreaking(t *testing.T) {
	params := QLearningParams{Epsilon: 0, Alpha: 1, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 1)

	// all zero: first legal action
	assert.Equal(t, name("n"), q.GetPolicy(name("B")))

	q.Update(name("B"), name("s"), name("T"), 2)
	q.Update(name("B"), name("w"), name("T"), 2)
	assert.Equal(t, name("s"), q.GetPolicy(name("B")))

	q.Update(name("B"), name("w"), name("T"), 2.5)
	assert.Equal(t, name("w"), q.GetPolicy(name("B")))
}

func TestQLearningGreedyWithZeroEpsilon(t *testing.T) {
	params := QLearningParams{Epsilon: 0, Alpha: 1, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 7)
	q.Update(name("B"), name("e"), name("T"), 1)

	for i := 0; i < 500; i++ {
		require.Equal(t, name("e"), q.GetAction(name("B")))
	}
}

func TestQLearningUniformWithFullEpsilon(t *testing.T) {
	params := QLearningParams{Epsilon: 1, Alpha: 1, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 42)
	// a strongly preferred action must not bias exploration
	q.Update(name("B"), name("e"), name("T"), 100)

	actions := fourActions().Actions(name("B"))
	index := make(map[string]int)
	for i, a := range actions {
		index[a.Hash()] = i
	}

	const samples = 40000
	observed := make([]float64, len(actions))
	for i := 0; i < samples; i++ {
		a := q.GetAction(name("B"))
		require.NotNil(t, a)
		observed[index[a.Hash()]]++
	}
	expected := make([]float64, len(actions))
	for i := range expected {
		expected[i] = samples / float64(len(actions))
	}

	chi2 := stat.ChiSquare(observed, expected)
	pValue := 1 - distuv.ChiSquared{K: float64(len(actions) - 1)}.CDF(chi2)
	assert.Greater(t, pValue, 0.001, "observed counts %v", observed)
}

func TestQLearningResetAndSeed(t *testing.T) {
	params := QLearningParams{Epsilon: 0.5, Alpha: 0.5, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 3)

	first := make([]core.Action, 50)
	for i := range first {
		first[i] = q.GetAction(name("A"))
	}
	q.Update(name("A"), name("n"), name("B"), 1)
	q.Reset()
	assert.Equal(t, 0.0, q.GetQValue(name("A"), name("n")))

	for i := range first {
		assert.Equal(t, first[i], q.GetAction(name("A")))
	}
}

func TestQLearningRecordRead(t *testing.T) {
	params := QLearningParams{Epsilon: 0, Alpha: 0.5, Discount: 0.9}
	q := NewQLearning(fourActions(), params, 1)
	q.Update(name("B"), name("n"), name("T"), 1)
	q.Update(name("A"), name("s"), name("B"), 2)

	p := filepath.Join(t.TempDir(), "q.jsonl")
	require.NoError(t, q.Record(p))

	other := NewQLearning(fourActions(), params, 1)
	require.NoError(t, other.Read(p))
	assert.Equal(t, q.GetQValue(name("B"), name("n")), other.GetQValue(name("B"), name("n")))
	assert.Equal(t, q.GetQValue(name("A"), name("s")), other.GetQValue(name("A"), name("s")))
	assert.Equal(t, 2, other.QTable().Size())
}

func TestArgMax(t *testing.T) {
	a, v := ArgMax(nil, func(core.Action) float64 { return 1 })
	assert.Nil(t, a)
	assert.Equal(t, 0.0, v)

	scores := map[string]float64{"a": -3, "b": -1, "c": -1, "d": -2}
	actions := []core.Action{name("a"), name("b"), name("c"), name("d")}
	a, v = ArgMax(actions, func(x core.Action) float64 { return scores[x.Hash()] })
	assert.Equal(t, name("b"), a)
	assert.Equal(t, -1.0, v)
}
