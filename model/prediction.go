package model

import "fmt"

// PredictionKind tags which half of a Prediction is set.
type PredictionKind int

const (
	PredictionClassIndex PredictionKind = iota + 1
	PredictionLabel
)

// Prediction is one model output: either a class index into the label
// table or a label string the model produced directly.
type Prediction struct {
	Kind  PredictionKind
	Index int
	Label string
}

// ClassIndex builds an index prediction.
func ClassIndex(i int) Prediction {
	return Prediction{Kind: PredictionClassIndex, Index: i}
}

// LabelString builds a label prediction.
func LabelString(s string) Prediction {
	return Prediction{Kind: PredictionLabel, Label: s}
}

func (p Prediction) String() string {
	switch p.Kind {
	case PredictionClassIndex:
		return fmt.Sprintf("index(%d)", p.Index)
	case PredictionLabel:
		return fmt.Sprintf("label(%q)", p.Label)
	default:
		return "invalid"
	}
}
