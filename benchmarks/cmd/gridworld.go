package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeu5/mdp-rl/analysis"
	"github.com/zeu5/mdp-rl/benchmarks/gridworld"
	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/features"
	"github.com/zeu5/mdp-rl/policies"
	"github.com/zeu5/mdp-rl/util"
)

func GridWorldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridworld",
		Short: "Run solvers on grid worlds",
	}

	cmd.AddCommand(
		gridLayoutsCommand(),
		gridValueIterationCommand(),
		gridLearnCommand(),
		gridCompareCommand(),
	)

	return cmd
}

// interruptContext is cancelled on SIGINT or when done is closed.
func interruptContext() (context.Context, chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, doneCh
}

func gridLayoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the built in layouts",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range gridworld.LayoutNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func gridValueIterationCommand() *cobra.Command {
	var showQ bool
	cmd := &cobra.Command{
		Use:   "vi",
		Short: "Plan with value iteration and print values and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := gridworld.FromFlags(flags)
			if err != nil {
				return err
			}
			start := time.Now()
			planner := policies.NewValueIteration(grid, flags.Discount, flags.Iterations, policies.WithLogger(logger))
			logger.Info("value iteration done",
				"layout", flags.Layout,
				"iterations", flags.Iterations,
				"discount", flags.Discount,
				"start_value", planner.GetValue(grid.Start()),
				"elapsed", time.Since(start),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Values after %d iterations\n%s", flags.Iterations, grid.Render(planner))
			if showQ {
				fmt.Fprintf(out, "\nQ-values\n%s", grid.RenderQValues(planner))
			}

			valuesPath := path.Join(flags.SavePath, "values.jsonl")
			if err := planner.Record(valuesPath); err != nil {
				return fmt.Errorf("error saving values: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showQ, "q-values", false, "Also print Q-values")
	return cmd
}

type recorder interface {
	core.Agent
	Record(string) error
}

func newAgent(kind string, env core.ActionSpace) (core.Agent, error) {
	params := gridworld.Params(flags)
	switch kind {
	case "qlearning":
		return policies.NewQLearning(env, params, flags.Seed), nil
	case "approximate":
		extractor, err := features.Named(flags.Extractor)
		if err != nil {
			return nil, err
		}
		return policies.NewApproximateQLearning(env, extractor, params, flags.Seed), nil
	case "random":
		return policies.NewRandomAgent(env, flags.Seed), nil
	default:
		return nil, fmt.Errorf("unknown agent %q", kind)
	}
}

func gridLearnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "learn [qlearning|approximate|random]",
		Short:     "Train a single agent and print its learned values and policy",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"qlearning", "approximate", "random"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := "qlearning"
			if len(args) == 1 {
				kind = args[0]
			}
			grid, err := gridworld.FromFlags(flags)
			if err != nil {
				return err
			}
			env := gridworld.NewEnvironment(grid, flags.Seed)
			agent, err := newAgent(kind, env)
			if err != nil {
				return err
			}

			ctx, doneCh := interruptContext()
			defer close(doneCh)

			returns := analysis.NewReturnAnalyzer(flags.Discount)
			analyzers := map[string]core.Analyzer{
				"Returns": returns,
				"Errors":  analysis.NewErrorAnalyzer(flags.SavePath),
			}

			printer := util.NewTerminalPrinter(200 * time.Millisecond)
			progress := printer.NewOutput()
			printer.Start(ctx)
			exp := &core.Experiment{Name: kind, Environment: env, Agent: agent}
			result := exp.Run(ctx, 0, gridworld.RunConfig(flags, logger), analyzers, progress)
			printer.Stop()
			if result.IsError() {
				return fmt.Errorf("experiment %s failed: %w", kind, result.Error)
			}

			planner := policies.NewValueIteration(grid, flags.Discount, flags.Iterations)
			summary, _ := analysis.Summarize(returns.DataSet())
			logger.Info("training done",
				"agent", kind,
				"episodes", result.TotalEpisodes,
				"timesteps", result.TotalTimeSteps,
				"mean_return", summary.Mean,
				"eval_mean_return", summary.EvalMean,
				"policy_agreement", analysis.Agreement(planner, agent, grid.States()),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Learned values\n%s", grid.Render(agent))
			fmt.Fprintf(out, "\nValue iteration\n%s", grid.Render(planner))

			if r, ok := agent.(recorder); ok {
				tablePath := path.Join(flags.SavePath, kind+".jsonl")
				if err := r.Record(tablePath); err != nil {
					return fmt.Errorf("error saving agent: %w", err)
				}
			}
			return nil
		},
	}
	return cmd
}

func gridCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare random, tabular and approximate Q-learning agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := gridworld.PrepareLearningComparison(flags, logger)
			if err != nil {
				return err
			}
			ctx, doneCh := interruptContext()
			defer close(doneCh)

			results := cmp.Run(ctx, flags.NumRuns, gridworld.RunConfig(flags, logger), flags.Parallelism)
			for name, r := range results {
				if r.IsError() {
					logger.Error("experiment failed", "experiment", name, "error", r.Error)
				}
			}
			return nil
		},
	}
}
