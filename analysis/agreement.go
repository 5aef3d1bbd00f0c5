package analysis

import (
	"log/slog"
	"path"
	"strconv"

	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/util"
)

// PolicyAgreementAnalyzer measures, after each episode, the fraction of
// states with an action where the agent's greedy policy matches a
// reference policy, typically one computed by value iteration.
type PolicyAgreementAnalyzer struct {
	reference core.ValueEstimator
	states    []core.State
	agreement []float64
}

var _ core.Analyzer = &PolicyAgreementAnalyzer{}

func NewPolicyAgreementAnalyzer(reference core.ValueEstimator, states []core.State) *PolicyAgreementAnalyzer {
	return &PolicyAgreementAnalyzer{
		reference: reference,
		states:    states,
		agreement: make([]float64, 0),
	}
}

// Agreement is the fraction of states where both policies pick the same
// action, ignoring states the reference has no action for.
func Agreement(reference, agent core.ValueEstimator, states []core.State) float64 {
	total, same := 0, 0
	for _, s := range states {
		want := reference.GetPolicy(s)
		if want == nil {
			continue
		}
		total++
		if got := agent.GetPolicy(s); got != nil && got.Hash() == want.Hash() {
			same++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(same) / float64(total)
}

func (p *PolicyAgreementAnalyzer) Analyze(eCtx *core.EpisodeContext, _ *core.Trace) {
	if eCtx.Agent == nil {
		return
	}
	p.agreement = append(p.agreement, Agreement(p.reference, eCtx.Agent, p.states))
}

func (p *PolicyAgreementAnalyzer) DataSet() core.DataSet {
	return append([]float64(nil), p.agreement...)
}

func (p *PolicyAgreementAnalyzer) Reset() {
	p.agreement = make([]float64, 0)
}

type PolicyAgreementAnalyzerConstructor struct {
	reference core.ValueEstimator
	states    []core.State
}

var _ core.AnalyzerConstructor = &PolicyAgreementAnalyzerConstructor{}

func NewPolicyAgreementAnalyzerConstructor(reference core.ValueEstimator, states []core.State) *PolicyAgreementAnalyzerConstructor {
	return &PolicyAgreementAnalyzerConstructor{reference: reference, states: states}
}

func (p *PolicyAgreementAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewPolicyAgreementAnalyzer(p.reference, p.states)
}

type PolicyAgreementComparator struct {
	savePath string
	logger   *slog.Logger
}

var _ core.Comparator = &PolicyAgreementComparator{}

func (p *PolicyAgreementComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string][]float64)
	for i, name := range experimentNames {
		if ds, ok := datasets[i].([]float64); ok {
			out[name] = ds
		}
	}
	if err := util.SaveJson(p.savePath, out); err != nil {
		p.logger.Error("error saving policy agreement", "path", p.savePath, "error", err)
	}
}

type PolicyAgreementComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &PolicyAgreementComparatorConstructor{}

func NewPolicyAgreementComparatorConstructor(savePath string) *PolicyAgreementComparatorConstructor {
	return &PolicyAgreementComparatorConstructor{savePath: savePath}
}

func (p *PolicyAgreementComparatorConstructor) NewComparator(run int) core.Comparator {
	return &PolicyAgreementComparator{
		savePath: path.Join(p.savePath, strconv.Itoa(run), "agreement.json"),
		logger:   slog.Default(),
	}
}
