package gridworld

import (
	"fmt"
	"strings"

	"github.com/zeu5/mdp-rl/core"
)

var arrows = map[string]string{
	North.Hash(): "^",
	South.Hash(): "v",
	West.Hash():  "<",
	East.Hash():  ">",
	Exit.Hash():  "x",
}

// Render draws the values and greedy actions of estimator on the grid, top
// row first.
func (g *GridWorld) Render(estimator core.ValueEstimator) string {
	var b strings.Builder
	for y := g.layout.height - 1; y >= 0; y-- {
		for x := 0; x < g.layout.width; x++ {
			ce := g.layout.cells[x][y]
			if ce.kind == wallCell {
				fmt.Fprintf(&b, "%10s", "#####")
				continue
			}
			state := Cell{X: x, Y: y}
			arrow := " "
			if a := estimator.GetPolicy(state); a != nil {
				arrow = arrows[a.Hash()]
			}
			fmt.Fprintf(&b, "%9.2f%s", estimator.GetValue(state), arrow)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderQValues lists Q(s, a) for every cell and legal action.
func (g *GridWorld) RenderQValues(estimator core.ValueEstimator) string {
	var b strings.Builder
	for _, s := range g.States() {
		actions := g.Actions(s)
		if len(actions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:", s.Hash())
		for _, a := range actions {
			fmt.Fprintf(&b, " %s=%.3f", a.Hash(), estimator.GetQValue(s, a))
		}
		b.WriteString("\n")
	}
	return b.String()
}
