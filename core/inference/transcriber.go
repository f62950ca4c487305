package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"voicecmd/model"
)

// Transcriber is the model boundary. It returns one prediction per path.
type Transcriber interface {
	Transcribe(ctx context.Context, paths []string) ([]model.Prediction, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, paths []string) ([]model.Prediction, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, paths []string) ([]model.Prediction, error) {
	return f(ctx, paths)
}

// ParsePrediction decodes one model output value. Integral numbers become
// class indices, strings become labels, and single-element arrays such as
// [[3]] are unwrapped first.
func ParsePrediction(raw json.RawMessage) (model.Prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.Prediction{}, fmt.Errorf("empty prediction")
	}

	switch raw[0] {
	case '[':
		var inner []json.RawMessage
		if err := json.Unmarshal(raw, &inner); err != nil {
			return model.Prediction{}, fmt.Errorf("decode prediction %s: %w", raw, err)
		}
		if len(inner) != 1 {
			return model.Prediction{}, fmt.Errorf("prediction %s is not a scalar", raw)
		}
		return ParsePrediction(inner[0])
	case '"':
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return model.Prediction{}, fmt.Errorf("decode prediction %s: %w", raw, err)
		}
		return model.LabelString(label), nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return model.Prediction{}, fmt.Errorf("unsupported prediction %s", raw)
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
		return model.Prediction{}, fmt.Errorf("prediction %s is not a class index", raw)
	}
	return model.ClassIndex(int(n)), nil
}

// ParsePredictions decodes a list of raw outputs in order.
func ParsePredictions(raws []json.RawMessage) ([]model.Prediction, error) {
	preds := make([]model.Prediction, 0, len(raws))
	for i, raw := range raws {
		p, err := ParsePrediction(raw)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		preds = append(preds, p)
	}
	return preds, nil
}
