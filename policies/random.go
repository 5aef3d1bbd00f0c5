package policies

import (
	erand "golang.org/x/exp/rand"

	"github.com/zeu5/mdp-rl/core"
)

// RandomAgent picks uniformly among the legal actions and never learns.
type RandomAgent struct {
	actions core.ActionSpace
	seed    uint64
	rand    *erand.Rand
}

var _ core.Agent = &RandomAgent{}

func NewRandomAgent(actions core.ActionSpace, seed uint64) *RandomAgent {
	return &RandomAgent{
		actions: actions,
		seed:    seed,
		rand:    erand.New(erand.NewSource(seed)),
	}
}

func (r *RandomAgent) Reset() {
	r.rand = erand.New(erand.NewSource(r.seed))
}

func (r *RandomAgent) GetQValue(_ core.State, _ core.Action) float64 { return 0 }

func (r *RandomAgent) GetValue(_ core.State) float64 { return 0 }

func (r *RandomAgent) GetAction(state core.State) core.Action {
	actions := r.actions.Actions(state)
	if len(actions) == 0 {
		return nil
	}
	return actions[r.rand.Intn(len(actions))]
}

func (r *RandomAgent) GetPolicy(state core.State) core.Action {
	return r.GetAction(state)
}

func (r *RandomAgent) Update(_ core.State, _ core.Action, _ core.State, _ float64) {}

type RandomAgentConstructor struct{}

var _ core.AgentConstructor = &RandomAgentConstructor{}

func (r *RandomAgentConstructor) NewAgent(actions core.ActionSpace, seed uint64) core.Agent {
	return NewRandomAgent(actions, seed)
}
