package policies

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueIterationTwoStateScenario(t *testing.T) {
	mdp := newTableMDP("A", "B").edge("A", "go", "B", 1.0, 10).setTerminal("B")
	vi := NewValueIteration(mdp, 0.5, 1)

	assert.Equal(t, 10.0, vi.GetValue(name("A")))
	assert.Equal(t, 0.0, vi.GetValue(name("B")))
	assert.Equal(t, name("go"), vi.GetPolicy(name("A")))
	assert.Nil(t, vi.GetPolicy(name("B")))
	assert.Nil(t, vi.GetAction(name("B")))
}

func TestValueIterationSelfLoopPartialSums(t *testing.T) {
	const reward = 2.0
	const discount = 0.9
	mdp := newTableMDP("S").edge("S", "stay", "S", 1.0, reward)

	for k := 0; k <= 60; k++ {
		vi := NewValueIteration(mdp, discount, k)
		want := reward * (1 - math.Pow(discount, float64(k))) / (1 - discount)
		assert.InDelta(t, want, vi.GetValue(name("S")), 1e-9, "after %d sweeps", k)
	}

	vi := NewValueIteration(mdp, discount, 1000)
	assert.InDelta(t, reward/(1-discount), vi.GetValue(name("S")), 1e-9)
}

func TestValueIterationIsSynchronous(t *testing.T) {
	// A -> B -> C, only the B -> C step pays. With in place updates A would
	// already see B's new value in the first sweep.
	mdp := newTableMDP("A", "B", "C").
		edge("A", "go", "B", 1.0, 0).
		edge("B", "go", "C", 1.0, 1).
		setTerminal("C")

	vi := NewValueIteration(mdp, 1.0, 1)
	assert.Equal(t, 0.0, vi.GetValue(name("A")))
	assert.Equal(t, 1.0, vi.GetValue(name("B")))

	vi = NewValueIteration(mdp, 1.0, 2)
	assert.Equal(t, 1.0, vi.GetValue(name("A")))
}

func TestValueIterationZeroIterations(t *testing.T) {
	mdp := newTableMDP("A", "B").edge("A", "go", "B", 1.0, 10).setTerminal("B")
	vi := NewValueIteration(mdp, 0.9, 0)

	assert.Equal(t, 0.0, vi.GetValue(name("A")))
	assert.Empty(t, vi.Values())
	// the backup is still computed fresh from the (empty) table
	assert.Equal(t, 10.0, vi.ComputeQValueFromValues(name("A"), name("go")))
	assert.Equal(t, 0.0, vi.GetValue(name("unknown")))
}

func TestValueIterationStochasticBackup(t *testing.T) {
	mdp := newTableMDP("A", "B", "C").
		edge("A", "risky", "B", 0.25, 8).
		edge("A", "risky", "C", 0.75, 0).
		edge("A", "safe", "C", 1.0, 1).
		setTerminal("B").
		setTerminal("C")

	vi := NewValueIteration(mdp, 0.9, 5)
	assert.InDelta(t, 2.0, vi.ComputeQValueFromValues(name("A"), name("risky")), 1e-12)
	assert.InDelta(t, 1.0, vi.GetQValue(name("A"), name("safe")), 1e-12)
	assert.Equal(t, name("risky"), vi.ComputeActionFromValues(name("A")))
	assert.InDelta(t, 2.0, vi.GetValue(name("A")), 1e-12)
}

func TestValueIterationTieBreaksOnEnumerationOrder(t *testing.T) {
	mdp := newTableMDP("A", "B").
		edge("A", "first", "B", 1.0, 5).
		edge("A", "second", "B", 1.0, 5).
		edge("A", "third", "B", 1.0, 3).
		setTerminal("B")

	for i := 0; i < 5; i++ {
		vi := NewValueIteration(mdp, 0.9, 3)
		assert.Equal(t, name("first"), vi.GetPolicy(name("A")))
	}
}

func TestValueIterationActionlessNonTerminal(t *testing.T) {
	mdp := newTableMDP("A")
	vi := NewValueIteration(mdp, 0.9, 3)

	assert.Nil(t, vi.ComputeActionFromValues(name("A")))
	assert.Equal(t, 0.0, vi.GetValue(name("A")))
}

func TestValueIterationNegativeRewards(t *testing.T) {
	mdp := newTableMDP("A", "B").
		edge("A", "bad", "B", 1.0, -5).
		edge("A", "worse", "B", 1.0, -7).
		setTerminal("B")
	vi := NewValueIteration(mdp, 0.9, 2)

	assert.Equal(t, -5.0, vi.GetValue(name("A")))
	assert.Equal(t, name("bad"), vi.GetPolicy(name("A")))
}

func TestValueIterationRecord(t *testing.T) {
	mdp := newTableMDP("A", "B").edge("A", "go", "B", 1.0, 10).setTerminal("B")
	vi := NewValueIteration(mdp, 0.5, 1)

	p := filepath.Join(t.TempDir(), "out", "values.jsonl")
	require.NoError(t, vi.Record(p))

	table := NewValueTable()
	require.NoError(t, table.Read(p))
	assert.Equal(t, vi.Values(), table.Copy())
}
