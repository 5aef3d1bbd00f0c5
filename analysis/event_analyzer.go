package analysis

import (
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/zeu5/mdp-rl/core"
)

// EventSpec names a property of a finished episode worth keeping the trace
// of, e.g. falling off a cliff.
type EventSpec struct {
	Name  string
	Check func(*core.Trace) bool
}

// EventAnalyzer counts episodes matching each event and saves their traces.
type EventAnalyzer struct {
	events   []EventSpec
	savePath string
	exp      string
	counts   map[string]int
	logger   *slog.Logger
}

var _ core.Analyzer = &EventAnalyzer{}

func NewEventAnalyzer(savePath string, events ...EventSpec) *EventAnalyzer {
	return &EventAnalyzer{
		events:   events,
		savePath: ensureDir(savePath, "events"),
		counts:   make(map[string]int),
		logger:   slog.Default(),
	}
}

func (ea *EventAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	for _, event := range ea.events {
		if !event.Check(trace) {
			continue
		}
		ea.counts[event.Name]++
		fileName := path.Join(ea.savePath, fmt.Sprintf("%d_%s_%d.txt", eCtx.Run, event.Name, eCtx.Episode))
		if ea.exp != "" {
			fileName = path.Join(ea.savePath, fmt.Sprintf("%d_%s_%s_%d.txt", eCtx.Run, ea.exp, event.Name, eCtx.Episode))
		}
		if err := os.WriteFile(fileName, []byte(traceToString(trace)), 0644); err != nil {
			ea.logger.Error("error saving event trace", "event", event.Name, "path", fileName, "error", err)
		}
	}
}

// DataSet is a map from event name to number of matching episodes.
func (ea *EventAnalyzer) DataSet() core.DataSet {
	out := make(map[string]int, len(ea.counts))
	for k, v := range ea.counts {
		out[k] = v
	}
	return out
}

func (ea *EventAnalyzer) Reset() {
	ea.counts = make(map[string]int)
}

type EventAnalyzerConstructor struct {
	SavePath string
	Events   []EventSpec
}

var _ core.AnalyzerConstructor = &EventAnalyzerConstructor{}

func NewEventAnalyzerConstructor(savePath string, events ...EventSpec) *EventAnalyzerConstructor {
	return &EventAnalyzerConstructor{
		SavePath: savePath,
		Events:   events,
	}
}

func (e *EventAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewEventAnalyzer(e.SavePath, e.Events...)
	a.exp = exp
	return a
}
