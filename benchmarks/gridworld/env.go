package gridworld

import (
	"errors"
	"fmt"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/zeu5/mdp-rl/core"
	"github.com/zeu5/mdp-rl/features"
)

var ErrNoLayout = errors.New("no such layout")

// Cell is a non wall position of the grid.
type Cell struct {
	X int
	Y int
}

var _ features.Coordinated = Cell{}

func (c Cell) Hash() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

func (c Cell) Coordinates() (int, int) {
	return c.X, c.Y
}

type terminalState struct{}

func (terminalState) Hash() string {
	return "TERMINAL_STATE"
}

// Terminal is the absorbing state reached by exiting.
var Terminal core.State = terminalState{}

type Move string

func (m Move) Hash() string {
	return string(m)
}

const (
	North Move = "north"
	West  Move = "west"
	South Move = "south"
	East  Move = "east"
	Exit  Move = "exit"
)

var moves = []core.Action{North, West, South, East}

// Config describes a grid world.
type Config struct {
	Layout       string  `json:"layout" yaml:"layout"`
	Noise        float64 `json:"noise" yaml:"noise"`
	LivingReward float64 `json:"living_reward" yaml:"living_reward"`
}

func DefaultConfig() Config {
	return Config{
		Layout:       "book",
		Noise:        0.2,
		LivingReward: 0,
	}
}

// GridWorld is a noisy grid MDP. A move goes in the intended direction
// with probability 1-noise and to either perpendicular direction with
// probability noise/2; moving into a wall or off the grid stays put. Exit
// cells only allow the exit action, which leads to Terminal and pays the
// cell's reward. Every other transition pays the living reward.
type GridWorld struct {
	layout *layout
	config Config
}

var _ core.MDP = &GridWorld{}

func New(config Config) (*GridWorld, error) {
	text, ok := layouts[config.Layout]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLayout, config.Layout)
	}
	return NewFromText(text, config)
}

// NewFromText builds a grid world from a layout string in the format of
// the built in layouts.
func NewFromText(text string, config Config) (*GridWorld, error) {
	l, err := parseLayout(text)
	if err != nil {
		return nil, fmt.Errorf("error parsing layout: %w", err)
	}
	return &GridWorld{layout: l, config: config}, nil
}

func (g *GridWorld) Width() int  { return g.layout.width }
func (g *GridWorld) Height() int { return g.layout.height }

func (g *GridWorld) Start() core.State {
	return Cell{X: g.layout.startX, Y: g.layout.startY}
}

// States lists Terminal followed by every non wall cell, column by column.
func (g *GridWorld) States() []core.State {
	states := []core.State{Terminal}
	for x := 0; x < g.layout.width; x++ {
		for y := 0; y < g.layout.height; y++ {
			if g.layout.cells[x][y].kind != wallCell {
				states = append(states, Cell{X: x, Y: y})
			}
		}
	}
	return states
}

func (g *GridWorld) cellOf(state core.State) (Cell, cell, bool) {
	c, ok := state.(Cell)
	if !ok || !g.inside(c.X, c.Y) {
		return Cell{}, cell{}, false
	}
	return c, g.layout.cells[c.X][c.Y], true
}

func (g *GridWorld) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.layout.width && y < g.layout.height
}

func (g *GridWorld) IsTerminal(state core.State) bool {
	return state.Hash() == Terminal.Hash()
}

func (g *GridWorld) Actions(state core.State) []core.Action {
	_, ce, ok := g.cellOf(state)
	if !ok {
		return []core.Action{}
	}
	if ce.kind == exitCell {
		return []core.Action{Exit}
	}
	return moves
}

func (g *GridWorld) Transitions(state core.State, action core.Action) []core.Transition {
	c, ce, ok := g.cellOf(state)
	if !ok {
		return nil
	}
	if ce.kind == exitCell {
		return []core.Transition{{Next: Terminal, Prob: 1.0}}
	}

	var left, right Move
	switch action {
	case North, South:
		left, right = West, East
	case West, East:
		left, right = North, South
	default:
		return nil
	}

	probs := make(map[Cell]float64)
	order := make([]Cell, 0, 3)
	add := func(next Cell, p float64) {
		if p == 0 {
			return
		}
		if _, ok := probs[next]; !ok {
			order = append(order, next)
		}
		probs[next] += p
	}
	add(g.move(c, action.(Move)), 1-g.config.Noise)
	add(g.move(c, left), g.config.Noise/2)
	add(g.move(c, right), g.config.Noise/2)

	out := make([]core.Transition, len(order))
	for i, next := range order {
		out[i] = core.Transition{Next: next, Prob: probs[next]}
	}
	return out
}

func (g *GridWorld) move(c Cell, m Move) Cell {
	x, y := c.X, c.Y
	switch m {
	case North:
		y++
	case South:
		y--
	case West:
		x--
	case East:
		x++
	}
	if !g.inside(x, y) || g.layout.cells[x][y].kind == wallCell {
		return c
	}
	return Cell{X: x, Y: y}
}

func (g *GridWorld) Reward(state core.State, _ core.Action, _ core.State) float64 {
	_, ce, ok := g.cellOf(state)
	if !ok {
		return 0
	}
	if ce.kind == exitCell {
		return ce.reward
	}
	return g.config.LivingReward
}

// Environment samples episodes from a GridWorld starting at its start cell.
type Environment struct {
	grid  *GridWorld
	state core.State
	src   erand.Source
}

var _ core.Environment = &Environment{}

func NewEnvironment(grid *GridWorld, seed uint64) *Environment {
	return &Environment{
		grid:  grid,
		state: grid.Start(),
		src:   erand.NewSource(seed),
	}
}

func (e *Environment) Actions(state core.State) []core.Action {
	return e.grid.Actions(state)
}

func (e *Environment) Reset() (core.State, error) {
	e.state = e.grid.Start()
	return e.state, nil
}

func (e *Environment) State() core.State {
	return e.state
}

func (e *Environment) Step(action core.Action, _ *core.StepContext) (core.State, float64, error) {
	transitions := e.grid.Transitions(e.state, action)
	if len(transitions) == 0 {
		return nil, 0, fmt.Errorf("action %s is not legal in state %s", action.Hash(), e.state.Hash())
	}
	weights := make([]float64, len(transitions))
	for i, t := range transitions {
		weights[i] = t.Prob
	}
	i, ok := sampleuv.NewWeighted(weights, e.src).Take()
	if !ok {
		return nil, 0, fmt.Errorf("error sampling successor of %s", e.state.Hash())
	}
	next := transitions[i].Next
	reward := e.grid.Reward(e.state, action, next)
	e.state = next
	return next, reward, nil
}

type EnvironmentConstructor struct {
	grid *GridWorld
	seed uint64
}

var _ core.EnvironmentConstructor = &EnvironmentConstructor{}

func NewEnvironmentConstructor(grid *GridWorld, seed uint64) *EnvironmentConstructor {
	return &EnvironmentConstructor{
		grid: grid,
		seed: seed,
	}
}

func (c *EnvironmentConstructor) NewEnvironment(instance int) core.Environment {
	return NewEnvironment(c.grid, c.seed+uint64(instance))
}
