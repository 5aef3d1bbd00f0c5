package policies

import "github.com/zeu5/mdp-rl/core"

type name string

func (n name) Hash() string { return string(n) }

// tableMDP is a small hand written MDP.
type tableMDP struct {
	states   []core.State
	actions  map[string][]core.Action
	trans    map[string][]core.Transition
	rewards  map[string]float64
	terminal map[string]bool
}

func newTableMDP(states ...string) *tableMDP {
	m := &tableMDP{
		actions:  make(map[string][]core.Action),
		trans:    make(map[string][]core.Transition),
		rewards:  make(map[string]float64),
		terminal: make(map[string]bool),
	}
	for _, s := range states {
		m.states = append(m.states, name(s))
	}
	return m
}

// edge adds action a in s going to next with probability p and reward r.
func (m *tableMDP) edge(s, a, next string, p, r float64) *tableMDP {
	key := s + "|" + a
	if _, ok := m.trans[key]; !ok {
		m.actions[s] = append(m.actions[s], name(a))
	}
	m.trans[key] = append(m.trans[key], core.Transition{Next: name(next), Prob: p})
	m.rewards[key+"|"+next] = r
	return m
}

func (m *tableMDP) setTerminal(s string) *tableMDP {
	m.terminal[s] = true
	return m
}

func (m *tableMDP) States() []core.State { return m.states }

func (m *tableMDP) Actions(s core.State) []core.Action {
	if m.terminal[s.Hash()] {
		return nil
	}
	return m.actions[s.Hash()]
}

func (m *tableMDP) Transitions(s core.State, a core.Action) []core.Transition {
	return m.trans[s.Hash()+"|"+a.Hash()]
}

func (m *tableMDP) Reward(s core.State, a core.Action, next core.State) float64 {
	return m.rewards[s.Hash()+"|"+a.Hash()+"|"+next.Hash()]
}

func (m *tableMDP) IsTerminal(s core.State) bool { return m.terminal[s.Hash()] }
