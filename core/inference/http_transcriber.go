package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voicecmd/model"
)

// HTTPTranscriber calls a model-serving endpoint:
//
//	POST {"audio_paths": ["/tmp/x.wav"]}  ->  {"predictions": [3]}
//
// The client has no timeout of its own; the caller's context bounds the call.
type HTTPTranscriber struct {
	URL    string
	Client *http.Client
}

// NewHTTPTranscriber creates a transcriber posting to url.
func NewHTTPTranscriber(url string) *HTTPTranscriber {
	return &HTTPTranscriber{URL: url, Client: &http.Client{}}
}

type transcribeRequest struct {
	AudioPaths []string `json:"audio_paths"`
}

type transcribeResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, paths []string) ([]model.Prediction, error) {
	body, err := json.Marshal(transcribeRequest{AudioPaths: paths})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}

	var decoded transcribeResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != "" {
			return nil, fmt.Errorf("model returned %d: %s", resp.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("model returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode model response: %w", decodeErr)
	}
	return ParsePredictions(decoded.Predictions)
}
