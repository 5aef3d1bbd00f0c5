package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zeu5/mdp-rl/benchmarks/common"
)

var (
	flags      *common.Flags = common.DefaultFlags()
	configPath string
	logger     *slog.Logger = slog.Default()

	layout       string
	noise        float64
	livingReward float64

	epsilon    float64
	alpha      float64
	discount   float64
	iterations int
	extractor  string

	savePath               string
	numRuns                int
	episodes               int
	trainingEpisodes       int
	horizon                int
	maxConsecutiveErrors   int
	maxConsecutiveTimeouts int
	episodeTimeout         int
	parallelism            int
	seed                   uint64
	debug                  bool
)

func AddFlags(cmd *cobra.Command) {
	defaults := common.DefaultFlags()
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with flag values; explicit flags take precedence")

	cmd.PersistentFlags().StringVar(&layout, "layout", defaults.Layout, "Grid layout")
	cmd.PersistentFlags().Float64Var(&noise, "noise", defaults.Noise, "Probability of slipping to a perpendicular direction")
	cmd.PersistentFlags().Float64Var(&livingReward, "living-reward", defaults.LivingReward, "Reward for every non exit transition")

	cmd.PersistentFlags().Float64Var(&epsilon, "epsilon", defaults.Epsilon, "Exploration rate")
	cmd.PersistentFlags().Float64Var(&alpha, "alpha", defaults.Alpha, "Learning rate")
	cmd.PersistentFlags().Float64Var(&discount, "discount", defaults.Discount, "Discount factor")
	cmd.PersistentFlags().IntVar(&iterations, "iterations", defaults.Iterations, "Number of value iteration sweeps")
	cmd.PersistentFlags().StringVar(&extractor, "extractor", defaults.Extractor, "Feature extractor for approximate Q-learning")

	cmd.PersistentFlags().StringVar(&savePath, "save-path", defaults.SavePath, "Path to save results")
	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", defaults.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", defaults.Episodes, "Number of episodes")
	cmd.PersistentFlags().IntVar(&trainingEpisodes, "training-episodes", defaults.TrainingEpisodes, "Number of episodes with exploration and learning, 0 for all")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", defaults.Horizon, "Horizon")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", defaults.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	cmd.PersistentFlags().IntVar(&maxConsecutiveTimeouts, "max-consecutive-timeouts", defaults.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	cmd.PersistentFlags().IntVar(&episodeTimeout, "episode-timeout", int(defaults.EpisodeTimeout.Seconds()), "Episode timeout in seconds")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", defaults.Parallelism, "Number of parallel runs")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", defaults.Seed, "Random seed")
	cmd.PersistentFlags().BoolVar(&debug, "debug", defaults.Debug, "Debug logging and trace dumps")
}

var setters = map[string]func(){
	"layout":                   func() { flags.Layout = layout },
	"noise":                    func() { flags.Noise = noise },
	"living-reward":            func() { flags.LivingReward = livingReward },
	"epsilon":                  func() { flags.Epsilon = epsilon },
	"alpha":                    func() { flags.Alpha = alpha },
	"discount":                 func() { flags.Discount = discount },
	"iterations":               func() { flags.Iterations = iterations },
	"extractor":                func() { flags.Extractor = extractor },
	"save-path":                func() { flags.SavePath = savePath },
	"num-runs":                 func() { flags.NumRuns = numRuns },
	"episodes":                 func() { flags.Episodes = episodes },
	"training-episodes":        func() { flags.TrainingEpisodes = trainingEpisodes },
	"horizon":                  func() { flags.Horizon = horizon },
	"max-consecutive-errors":   func() { flags.MaxConsecutiveErrors = maxConsecutiveErrors },
	"max-consecutive-timeouts": func() { flags.MaxConsecutiveTimeouts = maxConsecutiveTimeouts },
	"episode-timeout":          func() { flags.EpisodeTimeout = time.Duration(episodeTimeout) * time.Second },
	"parallelism":              func() { flags.Parallelism = parallelism },
	"seed":                     func() { flags.Seed = seed },
	"debug":                    func() { flags.Debug = debug },
}

// UpdateFlags resolves the flags: defaults, then the config file, then
// every flag given on the command line.
func UpdateFlags(cmd *cobra.Command) error {
	flags = common.DefaultFlags()
	if configPath != "" {
		if err := flags.LoadFile(configPath); err != nil {
			return err
		}
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if set, ok := setters[f.Name]; ok {
			set()
		}
	})

	level := slog.LevelInfo
	if flags.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return flags.Validate()
}
