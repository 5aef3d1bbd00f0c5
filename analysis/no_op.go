package analysis

import "github.com/zeu5/mdp-rl/core"

// NoOpComparator discards datasets. Used for analyzers that only write
// files as a side effect.
type NoOpComparator struct{}

var _ core.Comparator = NoOpComparator{}

func (NoOpComparator) Compare(_ []string, _ []core.DataSet) {}

type NoOpComparatorConstructor struct{}

var _ core.ComparatorConstructor = NoOpComparatorConstructor{}

func (NoOpComparatorConstructor) NewComparator(_ int) core.Comparator {
	return NoOpComparator{}
}
