package model

// AudioSample describes one audio file found during a catalog scan.
type AudioSample struct {
	Path       string  `json:"path"`
	Label      string  `json:"label"`
	Duration   float64 `json:"duration"` // seconds
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
}
