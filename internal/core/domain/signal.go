package domain

import (
	"fmt"
	"math"
)

// Model input contract. The classifier was trained on fixed-length windows
// scaled with the training set bounds.
const (
	RequiredLength = 9000
	TrainMin       = -7735.0
	TrainMax       = 8257.0
)

const (
	LabelNormal = "Normal"
	LabelAFib   = "Atrial Fibrillation"
	LabelOther  = "Other"
	LabelNoisy  = "Noisy"
)

// Labels is ordered as the classifier's output vector.
var Labels = []string{LabelNormal, LabelAFib, LabelOther, LabelNoisy}

// PrepareSignal pads with zeros or trims to RequiredLength and, when any sample
// falls outside [-1, 1], rescales every sample with the training bounds.
// The input slice is never modified.
func PrepareSignal(in []float64) []float64 {
	out := make([]float64, RequiredLength)
	copy(out, in)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range out {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo >= -1 && hi <= 1 {
		return out
	}

	for i, v := range out {
		out[i] = 2*((v-TrainMin)/(TrainMax-TrainMin)) - 1
	}
	return out
}

// ClassificationFromProbabilities picks the argmax label.
func ClassificationFromProbabilities(probs []float64) (Classification, error) {
	if len(probs) != len(Labels) {
		return Classification{}, fmt.Errorf("expected %d probabilities, got %d", len(Labels), len(probs))
	}
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Classification{Label: Labels[best], Confidence: probs[best]}, nil
}
