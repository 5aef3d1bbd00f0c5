package core

import (
	"context"
	"sync"
)

// State is an opaque, hashable state identity. Two states are equal when
// their hashes are equal.
type State interface {
	Hash() string
}

// Action is an opaque, hashable action identity. A nil Action means no
// action is available.
type Action interface {
	Hash() string
}

// ActionSpace enumerates the legal actions of a state. The returned order
// is the order used to break ties between equally valued actions. An empty
// result marks a terminal state.
type ActionSpace interface {
	Actions(State) []Action
}

// Transition is one successor of a (state, action) pair.
type Transition struct {
	Next State
	Prob float64
}

// MDP is a fully known Markov decision process. Probabilities of the
// transitions of a (state, action) pair are expected to sum to 1.
type MDP interface {
	ActionSpace
	States() []State
	Transitions(State, Action) []Transition
	Reward(State, Action, State) float64
	IsTerminal(State) bool
}

// Features is a sparse feature vector keyed by feature name.
type Features map[string]float64

// FeatureExtractor turns a (state, action) pair into features.
type FeatureExtractor interface {
	Features(State, Action) Features
}

// Environment is a sampled episode source driven one step at a time.
type Environment interface {
	ActionSpace
	Reset() (State, error)
	Step(Action, *StepContext) (State, float64, error)
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	StartTimeStep int
	Training      bool

	Agent Agent
	Trace *Trace

	err     error
	timeout bool
	doneCh  chan struct{}
	once    sync.Once
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
		doneCh:  make(chan struct{}),
	}
}

// Error marks the episode as failed. Only the first of Error, Timeout and
// Finish has an effect.
func (e *EpisodeContext) Error(err error) {
	e.once.Do(func() {
		e.err = err
		e.Trace.SetError(err)
		close(e.doneCh)
	})
}

func (e *EpisodeContext) Timeout() {
	e.once.Do(func() {
		e.timeout = true
		close(e.doneCh)
	})
}

func (e *EpisodeContext) Finish() {
	e.once.Do(func() {
		close(e.doneCh)
	})
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

func (e *EpisodeContext) Done() <-chan struct{} {
	return e.doneCh
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}
