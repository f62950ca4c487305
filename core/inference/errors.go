package inference

import "errors"

// ErrMissingInput means the request carried no audio payload.
var ErrMissingInput = errors.New("no audio file provided")

// InferenceError wraps any failure after the payload was accepted: staging,
// normalization, transcription or saving. Its message is the cause's message.
type InferenceError struct {
	Step string
	Err  error
}

func (e *InferenceError) Error() string {
	return e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func failed(step string, err error) error {
	return &InferenceError{Step: step, Err: err}
}
