package manifest

import "voicecmd/model"

// Entry is one manifest line.
type Entry struct {
	AudioFilepath string  `json:"audio_filepath"`
	Duration      float64 `json:"duration"`
	Label         string  `json:"label"`
}

// FromSample projects a catalog sample onto its manifest record.
func FromSample(s model.AudioSample) Entry {
	return Entry{AudioFilepath: s.Path, Duration: s.Duration, Label: s.Label}
}

// FromSamples converts samples in order.
func FromSamples(samples []model.AudioSample) []Entry {
	entries := make([]Entry, len(samples))
	for i, s := range samples {
		entries[i] = FromSample(s)
	}
	return entries
}
