package analysis

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"

	"github.com/zeu5/mdp-rl/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
	logger           *slog.Logger
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	return &PrintDebugAnalyzer{
		savePath:         ensureDir(savePath, "traces"),
		thresholdEpisode: threshold,
		logger:           slog.Default(),
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	filePath := path.Join(a.savePath, fileName)
	if err := os.WriteFile(filePath, []byte(traceToString(trace)), 0644); err != nil {
		a.logger.Error("error saving trace", "path", filePath, "error", err)
	}
}

func ensureDir(savePath, sub string) string {
	dir := path.Join(savePath, sub)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, 0755)
	}
	return dir
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(trace.Step(i))))
	}
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: %s\nAction: %s\nReward: %.4f\nNext State: %s\n%s",
		hashOf(step.State),
		hashOf(step.Action),
		step.Reward,
		hashOf(step.NextState),
		addInfoToString(step.Misc),
	)
}

func hashOf(h interface{ Hash() string }) string {
	if h == nil {
		return "<none>"
	}
	return h.Hash()
}

func addInfoToString(addInfo map[string]interface{}) string {
	if len(addInfo) == 0 {
		return ""
	}
	keys := make([]string, 0, len(addInfo))
	for k := range addInfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "Additional Info:\n"
	for _, k := range keys {
		out += fmt.Sprintf("%s: %v\n", k, addInfo[k])
	}
	return out
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {
	// do nothing
}

type PrintDebugAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewPrintDebugAnalyzer(c.SavePath, c.ThresholdEpisode)
	a.exp = exp
	return a
}
