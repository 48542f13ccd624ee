package ranking

import "distributed-search/internal/signal"

// inboundSimilaritySmoothing mirrors the source's
// INBOUND_SIMILARITY_SMOOTHING = 8.0 — added to the raw inbound-
// similarity value before it multiplies the LambdaMart prediction, so a
// candidate with zero inbound similarity is not zeroed out entirely.
const inboundSimilaritySmoothing = 8.0

// calculateScore mirrors the source's calculate_score branch exactly:
// when a LambdaMart model is attached and its coefficient is nonzero,
// the final score is the smoothed inbound-similarity value times the
// coefficient times the model's prediction; otherwise it is the plain
// Σ coeff(signal_i) * score_i weighted sum.
func calculateScore(signals signal.SignalMap, coeffs signal.Map, lambdaMart *Ensemble) float64 {
	lambdaCoeff := coeffs.Get(signal.LambdaMart)
	if lambdaMart != nil && lambdaCoeff != 0 {
		inbound := signals[signal.InboundSimilarity].Score
		prediction := lambdaMart.Predict(signals)
		return (inbound + inboundSimilaritySmoothing) * lambdaCoeff * prediction
	}
	return signals.WeightedSum(coeffs)
}
