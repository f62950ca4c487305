package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"reflect"
	"testing"

	"voicecmd/model"
)

func TestParsePrediction(t *testing.T) {
	tests := []struct {
		raw     string
		want    model.Prediction
		wantErr bool
	}{
		{raw: `3`, want: model.ClassIndex(3)},
		{raw: ` 13 `, want: model.ClassIndex(13)},
		{raw: `2.0`, want: model.ClassIndex(2)},
		{raw: `[[7]]`, want: model.ClassIndex(7)},
		{raw: `[5]`, want: model.ClassIndex(5)},
		{raw: `"avanti"`, want: model.LabelString("avanti")},
		{raw: `["fermo"]`, want: model.LabelString("fermo")},
		{raw: `2.5`, wantErr: true},
		{raw: `[1, 2]`, wantErr: true},
		{raw: `{"index": 1}`, wantErr: true},
		{raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePrediction(json.RawMessage(tt.raw))
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePrediction(%q) = %v, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePrediction(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrediction(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestHTTPTranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transcribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.AudioPaths) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions": [[4], "vola"]}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL)
	got, err := tr.Transcribe(context.Background(), []string{"/a.wav", "/b.wav"})
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Prediction{model.ClassIndex(4), model.LabelString("vola")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := tr.Transcribe(context.Background(), []string{"/only.wav"}); err == nil {
		t.Fatal("expected error for non-200 reply")
	}
}

func TestParseCommandOutput(t *testing.T) {
	tests := []struct {
		out  string
		want []model.Prediction
	}{
		{"[3, \"su\"]\n", []model.Prediction{model.ClassIndex(3), model.LabelString("su")}},
		{"1\n\n[2]\n", []model.Prediction{model.ClassIndex(1), model.ClassIndex(2)}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := parseCommandOutput([]byte(tt.out))
		if err != nil {
			t.Errorf("parseCommandOutput(%q): %v", tt.out, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommandOutput(%q) = %v, want %v", tt.out, got, tt.want)
		}
	}
}

func TestCommandTranscriber(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	// The script prints one index per argument.
	tr := NewCommandTranscriber([]string{"sh", "-c", `for f in "$@"; do echo 6; done`, "model"})
	got, err := tr.Transcribe(context.Background(), []string{"/x.wav", "/y.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != model.ClassIndex(6) {
		t.Fatalf("got %v", got)
	}

	failing := NewCommandTranscriber([]string{"sh", "-c", "echo boom >&2; exit 3"})
	if _, err := failing.Transcribe(context.Background(), []string{"/x.wav"}); err == nil {
		t.Fatal("expected error from failing command")
	}
	if _, err := NewCommandTranscriber(nil).Transcribe(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
