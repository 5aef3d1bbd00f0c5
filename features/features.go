// Package features provides feature extractors for linear Q-learning.
package features

import (
	"fmt"

	"github.com/zeu5/mdp-rl/core"
)

// Identity gives every (state, action) pair its own indicator feature, which
// makes a linear agent behave like a tabular one.
type Identity struct{}

var _ core.FeatureExtractor = Identity{}

func (Identity) Features(state core.State, action core.Action) core.Features {
	return core.Features{PairKey(state, action): 1.0}
}

// PairKey is the feature name of a (state, action) pair.
func PairKey(state core.State, action core.Action) string {
	return fmt.Sprintf("(%s,%s)", state.Hash(), action.Hash())
}

// Coordinated states expose a position on a grid.
type Coordinated interface {
	core.State
	Coordinates() (int, int)
}

// Coordinate extends Identity with indicators for the x and y coordinate of
// the state and for the action. States without coordinates only get the
// identity feature.
type Coordinate struct{}

var _ core.FeatureExtractor = Coordinate{}

func (Coordinate) Features(state core.State, action core.Action) core.Features {
	feats := Identity{}.Features(state, action)
	if c, ok := state.(Coordinated); ok {
		x, y := c.Coordinates()
		feats[fmt.Sprintf("x=%d", x)] = 1.0
		feats[fmt.Sprintf("y=%d", y)] = 1.0
	}
	feats["action="+action.Hash()] = 1.0
	return feats
}

const BiasFeature = "bias"

// Bias adds a constant feature to the output of another extractor.
type Bias struct {
	Extractor core.FeatureExtractor
}

var _ core.FeatureExtractor = Bias{}

func (b Bias) Features(state core.State, action core.Action) core.Features {
	feats := make(core.Features)
	if b.Extractor != nil {
		for k, v := range b.Extractor.Features(state, action) {
			feats[k] = v
		}
	}
	feats[BiasFeature] = 1.0
	return feats
}

// Named looks up an extractor by name. Known names are "identity",
// "coordinate" and "bias" (a constant feature on top of coordinate).
func Named(name string) (core.FeatureExtractor, error) {
	switch name {
	case "identity", "IdentityExtractor":
		return Identity{}, nil
	case "coordinate", "CoordinateExtractor":
		return Coordinate{}, nil
	case "bias":
		return Bias{Extractor: Coordinate{}}, nil
	default:
		return nil, fmt.Errorf("unknown feature extractor %q", name)
	}
}
