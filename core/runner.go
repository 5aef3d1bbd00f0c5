package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gosuri/uilive"
)

var (
	ErrTooManyTimeouts = errors.New("too many timeouts")
	ErrTooManyErrors   = errors.New("too many errors")
	ErrCancelled       = errors.New("context cancelled")
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer

	*RunConfig
}

type ExperimentResult struct {
	CompletedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TimeoutEpisodes   int
	TotalTimeSteps    int
	TerminalEpisodes  int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// Run drives the experiment's agent through rConfig.Episodes episodes of its
// environment and feeds every finished episode to the analyzers.
func (e *Experiment) Run(ctx context.Context, run int, rConfig *RunConfig, analyzers map[string]Analyzer, writer io.Writer) *ExperimentResult {
	if analyzers == nil {
		analyzers = make(map[string]Analyzer)
	}
	if writer == nil {
		writer = io.Discard
	}
	return e.run(&experimentRunContext{
		run:       run,
		ctx:       ctx,
		analyzers: analyzers,
		writer:    writer,
		RunConfig: rConfig,
	})
}

// runEpisode plays one episode. It is the only place the agent is touched
// and it runs on its own goroutine; the caller waits for it to exit before
// starting the next episode.
func (e *Experiment) runEpisode(eCtx *EpisodeContext, horizon int) {
	state, err := e.Environment.Reset()
	if err != nil {
		eCtx.Error(err)
		return
	}
	for step := 0; step < horizon; step++ {
		select {
		case <-eCtx.Context.Done():
			eCtx.Error(eCtx.Context.Err())
			return
		default:
		}

		if len(e.Environment.Actions(state)) == 0 {
			break
		}

		var action Action
		if eCtx.Training {
			action = e.Agent.GetAction(state)
		} else {
			action = e.Agent.GetPolicy(state)
		}
		if action == nil {
			break
		}

		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		nextState, reward, err := e.Environment.Step(action, sCtx)
		if err != nil {
			eCtx.Error(err)
			return
		}
		if eCtx.Training {
			e.Agent.Update(state, action, nextState, reward)
		}
		eCtx.Trace.AddStep(&Step{
			State:     state,
			Action:    action,
			NextState: nextState,
			Reward:    reward,
		})
		state = nextState
	}
	eCtx.Finish()
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	logger := ctx.logger().With("experiment", e.Name, "run", ctx.run)
	e.Agent.Reset()
	logger.Debug("starting experiment", "episodes", ctx.Episodes, "horizon", ctx.Horizon)

	consecutiveErrors := 0
	consecutiveTimeouts := 0
	stoppedTraining := false
EpisodeLoop:
	for episode := 0; episode < ctx.Episodes; episode++ {
		select {
		case <-ctx.ctx.Done():
			result.Error = ErrCancelled
			break EpisodeLoop
		default:
		}

		training := ctx.isTraining(episode)
		if !training && !stoppedTraining {
			// no exploration or learning once training is over
			if t, ok := e.Agent.(Trainable); ok {
				t.SetEpsilon(0)
				t.SetAlpha(0)
			}
			stoppedTraining = true
			logger.Debug("training finished", "episode", episode)
		}

		fmt.Fprintf(
			ctx.writer,
			"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Error: %d, Timedout: %d, Terminal: %d\n",
			e.Name, ctx.run, episode, ctx.Episodes, result.TotalTimeSteps, result.ErrorEpisodes, result.TimeoutEpisodes, result.TerminalEpisodes,
		)
		timeoutCtx, timeoutCancel := context.WithCancel(ctx.ctx)
		if ctx.EpisodeTimeout > 0 {
			timeoutCancel()
			timeoutCtx, timeoutCancel = context.WithTimeout(ctx.ctx, ctx.EpisodeTimeout)
		}
		eCtx := NewEpisodeContext(timeoutCtx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.StartTimeStep = result.TotalTimeSteps
		eCtx.Training = training
		eCtx.Agent = e.Agent

		exited := make(chan struct{})
		go func(eCtx *EpisodeContext) {
			defer close(exited)
			e.runEpisode(eCtx, ctx.Horizon)
		}(eCtx)

		errorred := false
		timedout := false
		select {
		case <-eCtx.Done():
			if eCtx.IsError() {
				if errors.Is(eCtx.Err(), context.DeadlineExceeded) {
					timedout = true
				} else if !errors.Is(eCtx.Err(), context.Canceled) {
					errorred = true
				}
			}
		case <-timeoutCtx.Done():
			timedout = ctx.ctx.Err() == nil
		}
		timeoutCancel()
		<-exited

		if ctx.ctx.Err() != nil {
			result.Error = ErrCancelled
			break EpisodeLoop
		}

		if errorred {
			result.ErrorEpisodes++
			logger.Warn("episode failed", "episode", episode, "error", eCtx.Err())
			if consecutiveErrors++; consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
				break EpisodeLoop
			}
		} else {
			consecutiveErrors = 0
		}
		if timedout {
			result.TimeoutEpisodes++
			if consecutiveTimeouts++; consecutiveTimeouts >= ctx.ThresholdConsecutiveTimeouts {
				result.Error = ErrTooManyTimeouts
				break EpisodeLoop
			}
		} else {
			consecutiveTimeouts = 0
		}

		if !errorred && !timedout {
			result.TotalTimeSteps += eCtx.Trace.Len()
			result.CompletedEpisodes++
			if last := eCtx.Trace.Last(); last != nil && len(e.Environment.Actions(last.NextState)) == 0 {
				result.TerminalEpisodes++
			}
		}
		result.TotalEpisodes++

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	if result.Error != nil {
		fmt.Fprintf(ctx.writer, "Experiment: %s, Run %d, Error: %v\n", e.Name, ctx.run, result.Error)
		logger.Error("experiment aborted", "error", result.Error, "episodes", result.TotalEpisodes)
	} else {
		logger.Info("experiment finished",
			"episodes", result.TotalEpisodes,
			"timesteps", result.TotalTimeSteps,
			"terminal", result.TerminalEpisodes,
		)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}

	return result
}

func compareResults(results map[string]*ExperimentResult, analyzerNames []string, compare func(name string, experiments []string, datasets []DataSet)) {
	datasets := make(map[string][]DataSet)
	experimentNames := make([]string, 0)
	for name, result := range results {
		experimentNames = append(experimentNames, name)
		for _, name := range analyzerNames {
			if _, ok := datasets[name]; !ok {
				datasets[name] = make([]DataSet, 0)
			}
			if result.IsError() {
				datasets[name] = append(datasets[name], nil)
			} else {
				datasets[name] = append(datasets[name], result.Datasets[name])
			}
		}
	}
	for _, name := range analyzerNames {
		compare(name, experimentNames, datasets[name])
	}
}

// Run runs every experiment sequentially, runs times, and returns the
// results of the last run keyed by experiment name.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) map[string]*ExperimentResult {
	var results map[string]*ExperimentResult
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		results = make(map[string]*ExperimentResult)

		// Run experiments
		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return results
			default:
			}
			analyzers := make(map[string]Analyzer)
			for name, a := range c.Analyzers {
				a.Reset()
				analyzers[name] = a
			}

			results[e.Name] = e.Run(ctx, run, rConfig, analyzers, nil)
		}

		analyzerNames := make([]string, 0)
		for name := range c.Analyzers {
			analyzerNames = append(analyzerNames, name)
		}
		compareResults(results, analyzerNames, func(name string, experiments []string, datasets []DataSet) {
			c.Comparators[name].Compare(experiments, datasets)
		})
	}
	return results
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	experiment *ParallelExperiment
	index      int
	comp       *ParallelComparison
	runNumber  int
	writer     io.Writer
	rConfig    *RunConfig
	wg         *sync.WaitGroup
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	experimentName string
	run            int
	result         *ExperimentResult
}

// Worker main loop that consumes work from a channel
func (w *parallelWorker) run(ctx context.Context, workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, more := <-workCh:
			if !more {
				return
			}
			result := w.runWork(ctx, work)
			resultsCh <- result
		}
	}
}

// Run an experiment by constructing the experiment context, *Experiment
func (w *parallelWorker) runWork(ctx context.Context, work *parallelWork) *parallelResult {
	defer work.wg.Done()

	analyzers := make(map[string]Analyzer)
	for name, aC := range work.comp.Analyzers {
		analyzers[name] = aC.NewAnalyzer(work.experiment.Name, w.id)
	}

	// Every work item gets its own environment and agent instance, seeded
	// by experiment so results do not depend on which worker picked it up
	env := work.experiment.Environment.NewEnvironment(work.index)
	seed := work.rConfig.Seed + uint64(work.runNumber)*1000 + uint64(work.index)
	exp := &Experiment{
		Name:        work.experiment.Name,
		Environment: env,
		Agent:       work.experiment.Agent.NewAgent(env, seed),
	}

	result := exp.Run(ctx, work.runNumber, work.rConfig, analyzers, work.writer)

	return &parallelResult{
		experimentName: work.experiment.Name,
		run:            work.runNumber,
		result:         result,
	}
}

// Run runs all experiments on parallelism workers, runs times. Progress is
// rendered live on stdout. The results of the last run are returned.
func (c *ParallelComparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) map[string]*ExperimentResult {
	if parallelism < 1 {
		parallelism = 1
	}
	var results map[string]*ExperimentResult
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return results
		default:
		}
		// Create workers and channels
		wg := new(sync.WaitGroup)
		writer := uilive.New()
		writer.Start()
		fmt.Fprintf(writer, "Run %d\n", run)

		workCh := make(chan *parallelWork, len(c.Experiments))
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		// Start workers
		for i := 0; i < parallelism; i++ {
			w := &parallelWorker{id: i}
			go w.run(ctx, workCh, resultsCh)
		}

		// Run experiments by sending work to workers
		for i, e := range c.Experiments {
			wg.Add(1)
			workCh <- &parallelWork{
				experiment: e,
				index:      i,
				comp:       c,
				runNumber:  run,
				rConfig:    rConfig,
				wg:         wg,
				writer:     writer.Newline(),
			}
		}
		close(workCh)

		// Wait for all work to finish
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			writer.Stop()
			return results
		}
		close(resultsCh)
		writer.Stop()

		results = make(map[string]*ExperimentResult)
		for r := range resultsCh {
			results[r.experimentName] = r.result
		}

		analyzerNames := make([]string, 0)
		for name := range c.Analyzers {
			analyzerNames = append(analyzerNames, name)
		}
		compareResults(results, analyzerNames, func(name string, experiments []string, datasets []DataSet) {
			c.Comparators[name].NewComparator(run).Compare(experiments, datasets)
		})
	}
	return results
}
