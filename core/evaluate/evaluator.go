package evaluate

import (
	"context"
	"strings"

	"voicecmd/core/inference"
	"voicecmd/core/manifest"
	"voicecmd/logger"
	"voicecmd/model"
)

// Outcome classifies one evaluated entry.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeFailed    Outcome = "failed"
)

// Row is the result for one manifest entry.
type Row struct {
	Path      string
	Expected  string
	Predicted string
	Outcome   Outcome
	Err       error
}

// Report summarizes an evaluation run. WER and CER are computed over the
// entries that produced a prediction.
type Report struct {
	Total     int
	Correct   int
	Incorrect int
	Failed    int
	Accuracy  float64 // percent of predicted entries
	WER       float64
	CER       float64
	Rows      []Row
}

// Evaluator runs a model over manifest entries and scores it against their labels.
type Evaluator struct {
	Transcriber inference.Transcriber
	Labels      model.LabelTable
}

// Run transcribes entries one at a time. A failing entry is recorded and
// the run continues.
func (e *Evaluator) Run(ctx context.Context, entries []manifest.Entry) Report {
	labels := e.Labels
	if len(labels) == 0 {
		labels = model.DefaultLabels
	}

	report := Report{Total: len(entries), Rows: make([]Row, 0, len(entries))}
	var wordErrs, words, charErrs, chars int

	for _, entry := range entries {
		row := Row{Path: entry.AudioFilepath, Expected: entry.Label}

		if err := ctx.Err(); err != nil {
			row.Outcome, row.Err = OutcomeFailed, err
			report.Failed++
			report.Rows = append(report.Rows, row)
			continue
		}

		preds, err := e.Transcriber.Transcribe(ctx, []string{entry.AudioFilepath})
		if err != nil {
			logger.Warn("evaluation entry failed",
				logger.String("path", entry.AudioFilepath),
				logger.ErrorField(err))
			row.Outcome, row.Err = OutcomeFailed, err
			report.Failed++
			report.Rows = append(report.Rows, row)
			continue
		}

		row.Predicted = model.UnknownLabel
		if len(preds) > 0 {
			row.Predicted = labels.Resolve(preds[0])
		}
		if strings.EqualFold(row.Predicted, row.Expected) {
			row.Outcome = OutcomeCorrect
			report.Correct++
		} else {
			row.Outcome = OutcomeIncorrect
			report.Incorrect++
		}

		we, w := WordErrors(row.Expected, row.Predicted)
		ce, c := CharErrors(row.Expected, row.Predicted)
		wordErrs, words = wordErrs+we, words+w
		charErrs, chars = charErrs+ce, chars+c

		report.Rows = append(report.Rows, row)
	}

	report.Accuracy = 100 * ratio(report.Correct, report.Correct+report.Incorrect)
	report.WER = ratio(wordErrs, words)
	report.CER = ratio(charErrs, chars)

	logger.Info("evaluation finished",
		logger.Int("total", report.Total),
		logger.Int("correct", report.Correct),
		logger.Int("failed", report.Failed),
		logger.Float64("accuracy", report.Accuracy))
	return report
}
