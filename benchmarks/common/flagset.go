package common

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeu5/mdp-rl/util"
)

var ErrInvalidFlags = errors.New("invalid flags")

type Flags struct {
	GridFlags  `yaml:"grid"`
	AgentFlags `yaml:"agent"`
	RunFlags   `yaml:"run"`

	SavePath    string `yaml:"save_path"`
	Parallelism int    `yaml:"parallelism"`
	Seed        uint64 `yaml:"seed"`
	Debug       bool   `yaml:"debug"`
}

type GridFlags struct {
	Layout       string  `yaml:"layout"`
	Noise        float64 `yaml:"noise"`
	LivingReward float64 `yaml:"living_reward"`
}

type AgentFlags struct {
	Epsilon    float64 `yaml:"epsilon"`
	Alpha      float64 `yaml:"alpha"`
	Discount   float64 `yaml:"discount"`
	Iterations int     `yaml:"iterations"`
	Extractor  string  `yaml:"extractor"`
}

type RunFlags struct {
	NumRuns                int           `yaml:"num_runs"`
	Episodes               int           `yaml:"episodes"`
	TrainingEpisodes       int           `yaml:"training_episodes"`
	Horizon                int           `yaml:"horizon"`
	MaxConsecutiveErrors   int           `yaml:"max_consecutive_errors"`
	MaxConsecutiveTimeouts int           `yaml:"max_consecutive_timeouts"`
	EpisodeTimeout         time.Duration `yaml:"episode_timeout"`
}

func DefaultFlags() *Flags {
	return &Flags{
		GridFlags: GridFlags{
			Layout:       "book",
			Noise:        0.2,
			LivingReward: 0,
		},
		AgentFlags: AgentFlags{
			Epsilon:    0.3,
			Alpha:      0.5,
			Discount:   0.9,
			Iterations: 100,
			Extractor:  "identity",
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               1000,
			TrainingEpisodes:       900,
			Horizon:                100,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         10 * time.Second,
		},
		Parallelism: 4,
		Seed:        1,
		Debug:       false,
	}
}

// LoadFile overlays the values set in the YAML file at path on f.
func (f *Flags) LoadFile(path string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(bs, f); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// Validate checks that the hyperparameters are within their ranges.
func (f *Flags) Validate() error {
	switch {
	case !inUnit(f.Epsilon):
		return fmt.Errorf("%w: epsilon %v not in [0, 1]", ErrInvalidFlags, f.Epsilon)
	case !inUnit(f.Alpha):
		return fmt.Errorf("%w: alpha %v not in [0, 1]", ErrInvalidFlags, f.Alpha)
	case !inUnit(f.Discount):
		return fmt.Errorf("%w: discount %v not in [0, 1]", ErrInvalidFlags, f.Discount)
	case !inUnit(f.Noise):
		return fmt.Errorf("%w: noise %v not in [0, 1]", ErrInvalidFlags, f.Noise)
	case f.Iterations < 0:
		return fmt.Errorf("%w: negative iterations", ErrInvalidFlags)
	case f.Episodes < 0 || f.TrainingEpisodes < 0:
		return fmt.Errorf("%w: negative episode count", ErrInvalidFlags)
	case f.Horizon <= 0:
		return fmt.Errorf("%w: horizon must be positive", ErrInvalidFlags)
	}
	return nil
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
