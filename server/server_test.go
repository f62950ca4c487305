package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"voicecmd/core/auth"
	"voicecmd/core/events"
	"voicecmd/core/inference"
	"voicecmd/model"
)

func newTestServer(t *testing.T, tr inference.Transcriber, opts Options) *Server {
	t.Helper()
	d := inference.NewDispatcher(tr, model.DefaultLabels, inference.WithTempDir(t.TempDir()))
	return New(d, opts)
}

func fixedIndex(i int) inference.Transcriber {
	return inference.TranscriberFunc(func(context.Context, []string) ([]model.Prediction, error) {
		return []model.Prediction{model.ClassIndex(i)}, nil
	})
}

func multipartRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "clip.wav")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(payload)
	} else {
		mw.WriteField("note", "no audio here")
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestPredictStatusMapping(t *testing.T) {
	failing := inference.TranscriberFunc(func(context.Context, []string) ([]model.Prediction, error) {
		return nil, errors.New("model unavailable")
	})

	tests := []struct {
		name       string
		tr         inference.Transcriber
		field      string
		payload    []byte
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"success", fixedIndex(3), "file", []byte("RIFF audio"), http.StatusOK, "command", "destra"},
		{"out of range", fixedIndex(99), "file", []byte("RIFF audio"), http.StatusOK, "command", "Unknown"},
		{"missing file", fixedIndex(0), "", nil, http.StatusBadRequest, "error", "no audio file provided"},
		{"empty file", fixedIndex(0), "file", nil, http.StatusBadRequest, "error", "no audio file provided"},
		{"model failure", failing, "file", []byte("RIFF audio"), http.StatusInternalServerError, "error", "model unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.tr, Options{})
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, multipartRequest(t, tt.field, tt.payload))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode(t, rec.Body)[tt.wantKey]; got != tt.wantValue {
				t.Fatalf("%s = %v, want %q", tt.wantKey, got, tt.wantValue)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, fixedIndex(0), Options{})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "file", []byte("audio")))
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	health := decode(t, rec.Body)
	if health["status"] != "ok" || health["state"] != "idle" || health["labels"] != float64(14) {
		t.Fatalf("health = %v", health)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`voicecmd_prediction_requests_total{status="success",transport="http"} 1`,
		`voicecmd_predicted_labels_total{label="avanti"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	srv := newTestServer(t, fixedIndex(1), Options{JWTSecret: secret})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "file", []byte("audio")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}

	token, err := auth.GenerateToken(secret, "tester", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := multipartRequest(t, "file", []byte("audio"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d body %s", rec.Code, rec.Body.String())
	}

	req = multipartRequest(t, "file", []byte("audio"))
	req.Header.Set("Authorization", "Token "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad scheme status = %d", rec.Code)
	}

	// Health stays open.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

type fakeHistory struct {
	recs  []*model.PredictionRecord
	limit int
}

func (f *fakeHistory) Record(_ context.Context, rec *model.PredictionRecord) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeHistory) GetByID(context.Context, int64) (*model.PredictionRecord, error) {
	return nil, nil
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]*model.PredictionRecord, error) {
	f.limit = limit
	return f.recs, nil
}

func (f *fakeHistory) CountByLabel(context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, r := range f.recs {
		counts[r.Label]++
	}
	return counts, nil
}

func TestHistoryEndpoints(t *testing.T) {
	disabled := newTestServer(t, fixedIndex(0), Options{}).Router()
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled history status = %d", rec.Code)
	}

	history := &fakeHistory{recs: []*model.PredictionRecord{{ID: 1, Label: "su"}, {ID: 2, Label: "su"}}}
	router := newTestServer(t, fixedIndex(0), Options{History: history}).Router()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?limit=7", nil))
	var recs []model.PredictionRecord
	if err := json.NewDecoder(rec.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(recs) != 2 || history.limit != 7 {
		t.Fatalf("status %d, %d records, limit %d", rec.Code, len(recs), history.limit)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predictions/stats", nil))
	if stats := decode(t, rec.Body); stats["su"] != float64(2) {
		t.Fatalf("stats = %v", stats)
	}
}

func TestWebSocketPredict(t *testing.T) {
	srv := newTestServer(t, fixedIndex(6), Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF audio")); err != nil {
		t.Fatal(err)
	}
	var reply map[string]string
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply["command"] != "fermo" {
		t.Fatalf("reply = %v", reply)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	reply = nil
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply["error"] == "" {
		t.Fatalf("text message should be rejected, got %v", reply)
	}
}

func TestEventsStreamServedPredictions(t *testing.T) {
	disabled := newTestServer(t, fixedIndex(0), Options{}).Router()
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/events", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("events without hub: status %d, want 404", rec.Code)
	}

	hub := events.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := newTestServer(t, fixedIndex(3), Options{Events: hub})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/events", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, multipartRequest(t, "file", []byte("RIFF audio")))
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status %d", rec.Code)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != events.EventPrediction || ev.Label != "destra" || ev.Transport != "http" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestLabelMetricBucketsFreeFormLabels(t *testing.T) {
	var next string
	tr := inference.TranscriberFunc(func(context.Context, []string) ([]model.Prediction, error) {
		return []model.Prediction{model.LabelString(next)}, nil
	})
	router := newTestServer(t, tr, Options{}).Router()

	for _, label := range []string{"destra", "turn left please", "xyzzy", "Unknown"} {
		next = label
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartRequest(t, "file", []byte("audio")))
		if rec.Code != http.StatusOK {
			t.Fatalf("predict %q: status %d", label, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`voicecmd_predicted_labels_total{label="destra"} 1`,
		`voicecmd_predicted_labels_total{label="other"} 2`,
		`voicecmd_predicted_labels_total{label="Unknown"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
	if strings.Contains(body, "xyzzy") {
		t.Error("free-form label leaked into metrics")
	}
}
