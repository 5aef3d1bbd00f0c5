package analysis

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/zeu5/mdp-rl/core"
)

// ErrorAnalyzer saves the trace of every episode that ended in an error.
type ErrorAnalyzer struct {
	savePath string
	exp      string
	count    int
	logger   *slog.Logger
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		savePath: ensureDir(savePath, "errors"),
		logger:   slog.Default(),
	}
}

func (a *ErrorAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	err := trace.Error()
	if err == nil {
		return
	}
	a.count++
	buf := new(bytes.Buffer)
	buf.WriteString(fmt.Sprintf("Error: %s\n", err))
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%d_error_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_error_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	filePath := path.Join(a.savePath, fileName)
	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		a.logger.Error("error saving error trace", "path", filePath, "error", err)
	}
}

// DataSet is the number of errored episodes seen.
func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return a.count
}

func (a *ErrorAnalyzer) Reset() {
	a.count = 0
}

type ErrorAnalyzerConstructor struct {
	SavePath string
}

var _ core.AnalyzerConstructor = &ErrorAnalyzerConstructor{}

func NewErrorAnalyzerConstructor(savePath string) *ErrorAnalyzerConstructor {
	return &ErrorAnalyzerConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewErrorAnalyzer(e.SavePath)
	a.exp = exp
	return a
}
