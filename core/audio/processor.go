package audio

import "context"

// Processor covers audio operations delegated to external tools.
type Processor interface {
	Prober
	// ConvertToWAV re-encodes inputFile as 16-bit PCM mono at sampleRate.
	ConvertToWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error
}
