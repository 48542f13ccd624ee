package ranking

import "distributed-search/internal/signal"

// Tree is one regression tree in a LambdaMart ensemble: an internal node
// splits on whether a signal's score is below Threshold, a leaf carries
// a Value contribution.
type Tree struct {
	Leaf      bool
	Value     float64
	Feature   signal.Kind
	Threshold float64
	Left      *Tree
	Right     *Tree
}

func (t *Tree) eval(signals signal.SignalMap) float64 {
	if t.Leaf {
		return t.Value
	}
	if signals[t.Feature].Score < t.Threshold {
		return t.Left.eval(signals)
	}
	return t.Right.eval(signals)
}

// Ensemble is a gradient-boosted sum of trees, mirroring the shape a
// trained LambdaMart model takes at inference time: no training logic
// here, only the evaluator the ranking pipeline needs to score
// candidates against a model loaded from configuration.
type Ensemble struct {
	Trees        []*Tree
	LearningRate float64
}

// Predict sums every tree's contribution, scaled by the ensemble's
// learning rate.
func (e *Ensemble) Predict(signals signal.SignalMap) float64 {
	if e == nil || len(e.Trees) == 0 {
		return 0
	}
	rate := e.LearningRate
	if rate == 0 {
		rate = 1
	}
	var total float64
	for _, t := range e.Trees {
		total += rate * t.eval(signals)
	}
	return total
}
