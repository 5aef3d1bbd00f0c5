package analysis

import (
	"log/slog"
	"path"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/util"
)

type returnsDataset struct {
	Returns    []float64
	Discounted []float64
	Training   []bool
}

func (r *returnsDataset) Copy() *returnsDataset {
	return &returnsDataset{
		Returns:    append([]float64(nil), r.Returns...),
		Discounted: append([]float64(nil), r.Discounted...),
		Training:   append([]bool(nil), r.Training...),
	}
}

// ReturnAnalyzer records the total and discounted reward of every episode.
type ReturnAnalyzer struct {
	discount float64
	dataset  *returnsDataset
}

var _ core.Analyzer = &ReturnAnalyzer{}

func NewReturnAnalyzer(discount float64) *ReturnAnalyzer {
	return &ReturnAnalyzer{
		discount: discount,
		dataset:  &returnsDataset{},
	}
}

func (r *ReturnAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	r.dataset.Returns = append(r.dataset.Returns, trace.Return(1))
	r.dataset.Discounted = append(r.dataset.Discounted, trace.Return(r.discount))
	r.dataset.Training = append(r.dataset.Training, eCtx.Training)
}

func (r *ReturnAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

func (r *ReturnAnalyzer) Reset() {
	r.dataset = &returnsDataset{}
}

type ReturnAnalyzerConstructor struct {
	discount float64
}

var _ core.AnalyzerConstructor = &ReturnAnalyzerConstructor{}

func NewReturnAnalyzerConstructor(discount float64) *ReturnAnalyzerConstructor {
	return &ReturnAnalyzerConstructor{discount: discount}
}

func (r *ReturnAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewReturnAnalyzer(r.discount)
}

// ReturnSummary aggregates the returns of one experiment.
type ReturnSummary struct {
	Episodes       int
	Mean           float64
	StdDev         float64
	EvalEpisodes   int
	EvalMean       float64
	DiscountedMean float64
}

// Summarize computes the mean and standard deviation of the returns, over
// all episodes and over the non training episodes.
func Summarize(ds core.DataSet) (ReturnSummary, bool) {
	r, ok := ds.(*returnsDataset)
	if !ok || len(r.Returns) == 0 {
		return ReturnSummary{}, false
	}
	mean, std := stat.MeanStdDev(r.Returns, nil)
	if len(r.Returns) < 2 {
		// the sample deviation of one value is NaN, which JSON cannot carry
		std = 0
	}
	summary := ReturnSummary{
		Episodes:       len(r.Returns),
		Mean:           mean,
		StdDev:         std,
		DiscountedMean: stat.Mean(r.Discounted, nil),
	}
	eval := make([]float64, 0)
	for i, training := range r.Training {
		if !training {
			eval = append(eval, r.Returns[i])
		}
	}
	if len(eval) > 0 {
		summary.EvalEpisodes = len(eval)
		summary.EvalMean = stat.Mean(eval, nil)
	}
	return summary, true
}

type ReturnComparator struct {
	savePath string
	logger   *slog.Logger
}

var _ core.Comparator = &ReturnComparator{}

func NewReturnComparator(savePath string, logger *slog.Logger) *ReturnComparator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReturnComparator{
		savePath: path.Join(savePath, "returns.json"),
		logger:   logger,
	}
}

func (r *ReturnComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	type entry struct {
		Returns    []float64
		Discounted []float64
		Training   []bool
		Summary    ReturnSummary
	}
	out := make(map[string]entry)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*returnsDataset)
		if !ok {
			continue
		}
		summary, _ := Summarize(ds)
		out[name] = entry{
			Returns:    ds.Returns,
			Discounted: ds.Discounted,
			Training:   ds.Training,
			Summary:    summary,
		}
		r.logger.Info("returns",
			"experiment", name,
			"episodes", summary.Episodes,
			"mean", summary.Mean,
			"stddev", summary.StdDev,
			"eval_mean", summary.EvalMean,
		)
	}
	if err := util.SaveJson(r.savePath, out); err != nil {
		r.logger.Error("error saving returns", "path", r.savePath, "error", err)
	}
}

type ReturnComparatorConstructor struct {
	savePath string
	logger   *slog.Logger
}

var _ core.ComparatorConstructor = &ReturnComparatorConstructor{}

func NewReturnComparatorConstructor(savePath string, logger *slog.Logger) *ReturnComparatorConstructor {
	return &ReturnComparatorConstructor{savePath: savePath, logger: logger}
}

func (r *ReturnComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewReturnComparator(path.Join(r.savePath, strconv.Itoa(run)), r.logger)
}
