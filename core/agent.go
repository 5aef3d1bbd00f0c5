package core

// ValueEstimator exposes the values and greedy policy an agent has computed
// or learned. GetAction may explore; GetPolicy never does.
type ValueEstimator interface {
	GetQValue(State, Action) float64
	GetValue(State) float64
	GetPolicy(State) Action
	GetAction(State) Action
}

// Agent learns from transitions fed to it by an external episode driver.
// An Agent is not safe for concurrent use.
type Agent interface {
	ValueEstimator
	// Update observes state -action-> nextState with the given reward.
	Update(state State, action Action, nextState State, reward float64)
	// Reset forgets everything learned so far.
	Reset()
}

// Trainable agents can have learning and exploration switched off once
// the training episodes are over.
type Trainable interface {
	SetEpsilon(float64)
	SetAlpha(float64)
}

type AgentConstructor interface {
	// NewAgent creates a fresh agent for the given action space and seed.
	NewAgent(ActionSpace, uint64) Agent
}
