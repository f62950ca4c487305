package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voicecmd/logger"
	"voicecmd/model"
)

// State is the dispatcher's position in the request cycle.
type State int32

const (
	StateIdle State = iota
	StateProcessing
)

func (s State) String() string {
	if s == StateProcessing {
		return "processing"
	}
	return "idle"
}

// Normalizer re-encodes staged audio before it reaches the model.
type Normalizer interface {
	ConvertToWAV(ctx context.Context, inputFile, outputFile string, sampleRate int) error
}

// Cache remembers labels by key. Keys combine the model identity, the label
// table and the payload digest, see Dispatcher.cacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (label string, ok bool, err error)
	Set(ctx context.Context, key, label string) error
}

// Archiver copies saved audio to long-term storage and returns its key.
type Archiver interface {
	Archive(ctx context.Context, localPath string) (string, error)
}

// Recorder keeps a history of served predictions.
type Recorder interface {
	Record(ctx context.Context, rec *model.PredictionRecord) error
}

// Result describes one served prediction.
type Result struct {
	Label      string
	ClassIndex *int
	SavedPath  string
	ArchiveKey string
	SHA256     string
	CacheHit   bool
	Elapsed    time.Duration
}

// Dispatcher turns uploaded audio into a command label. It is the
// application context handed to the transport layer: the model, the label
// table and the optional collaborators are fixed at construction.
type Dispatcher struct {
	transcriber Transcriber
	labels      model.LabelTable

	tempDir    string
	saveDir    string
	normalizer Normalizer
	sampleRate int
	cache      Cache
	modelID    string
	cacheScope string
	archiver   Archiver
	recorder   Recorder

	mu    sync.Mutex
	state atomic.Int32
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTempDir sets where payloads are staged. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(d *Dispatcher) { d.tempDir = dir }
}

// WithSaveDir keeps every received payload in dir, named after its label.
// An empty dir disables saving.
func WithSaveDir(dir string) Option {
	return func(d *Dispatcher) { d.saveDir = dir }
}

// WithNormalizer re-encodes payloads to sampleRate mono before transcription.
func WithNormalizer(n Normalizer, sampleRate int) Option {
	return func(d *Dispatcher) {
		d.normalizer = n
		d.sampleRate = sampleRate
	}
}

func WithCache(c Cache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithModelID names the model behind the transcriber (endpoint, command or
// an explicit namespace). Cached labels are only reused for the same model
// and label table.
func WithModelID(id string) Option {
	return func(d *Dispatcher) { d.modelID = id }
}

func WithArchiver(a Archiver) Option {
	return func(d *Dispatcher) { d.archiver = a }
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher creates a dispatcher. An empty label table falls back to
// model.DefaultLabels.
func NewDispatcher(t Transcriber, labels model.LabelTable, opts ...Option) *Dispatcher {
	if len(labels) == 0 {
		labels = model.DefaultLabels
	}
	d := &Dispatcher{
		transcriber: t,
		labels:      labels,
		tempDir:     os.TempDir(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cacheScope = cacheScope(d.modelID, d.labels)
	return d
}

func cacheScope(modelID string, labels model.LabelTable) string {
	h := sha256.New()
	io.WriteString(h, modelID)
	for _, label := range labels {
		io.WriteString(h, "\x00")
		io.WriteString(h, label)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// cacheKey scopes a payload digest to the current model and label table.
func (d *Dispatcher) cacheKey(digest string) string {
	return d.cacheScope + ":" + digest
}

// State reports whether a request is currently being processed.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Labels returns the label table used for resolution.
func (d *Dispatcher) Labels() model.LabelTable {
	return d.labels
}

// Predict stages payload, asks the model for a label and optionally keeps
// the audio. Requests are served one at a time. A nil or empty payload yields
// ErrMissingInput; any later failure is an *InferenceError. Staged files are
// removed before Predict returns.
func (d *Dispatcher) Predict(ctx context.Context, payload io.Reader) (*Result, error) {
	if payload == nil {
		return nil, ErrMissingInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Store(int32(StateProcessing))
	defer d.state.Store(int32(StateIdle))

	start := time.Now()

	if err := os.MkdirAll(d.tempDir, 0755); err != nil {
		return nil, failed("stage", fmt.Errorf("create temp directory: %w", err))
	}
	staged := filepath.Join(d.tempDir, uuid.New().String()+".wav")
	digest, size, err := stage(staged, payload)
	defer os.Remove(staged)
	if err != nil {
		return nil, failed("stage", err)
	}
	if size == 0 {
		return nil, ErrMissingInput
	}

	input := staged
	if d.normalizer != nil {
		normalized := strings.TrimSuffix(staged, ".wav") + "_norm.wav"
		defer os.Remove(normalized)
		if err := d.normalizer.ConvertToWAV(ctx, staged, normalized, d.sampleRate); err != nil {
			return nil, failed("normalize", err)
		}
		input = normalized
	}

	res := &Result{SHA256: digest}
	if label, ok := d.cached(ctx, digest); ok {
		res.Label = label
		res.CacheHit = true
	} else {
		preds, err := d.transcriber.Transcribe(ctx, []string{input})
		if err != nil {
			return nil, failed("transcribe", err)
		}
		res.Label = model.UnknownLabel
		if len(preds) > 0 {
			res.Label = d.labels.Resolve(preds[0])
			if preds[0].Kind == model.PredictionClassIndex {
				idx := preds[0].Index
				res.ClassIndex = &idx
			}
		}
		d.remember(ctx, digest, res.Label)
	}

	if d.saveDir != "" {
		// The received bytes are kept, not the normalized copy.
		saved, err := SaveUnique(staged, d.saveDir, res.Label, ".wav")
		if err != nil {
			return nil, failed("save", err)
		}
		res.SavedPath = saved

		if d.archiver != nil {
			key, err := d.archiver.Archive(ctx, saved)
			if err != nil {
				logger.Warn("archive saved audio failed", logger.String("path", saved), logger.ErrorField(err))
			} else {
				res.ArchiveKey = key
			}
		}
	}

	res.Elapsed = time.Since(start)
	d.record(ctx, res)

	logger.Info("prediction served",
		logger.String("label", res.Label),
		logger.String("sha256", digest),
		logger.Bool("cacheHit", res.CacheHit),
		logger.String("savedPath", res.SavedPath),
		logger.Duration("elapsed", res.Elapsed))
	return res, nil
}

// stage writes payload to path and returns its sha256 and size.
func stage(path string, payload io.Reader) (string, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), payload)
	if err != nil {
		f.Close()
		return "", n, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", n, fmt.Errorf("close temp file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func (d *Dispatcher) cached(ctx context.Context, digest string) (string, bool) {
	if d.cache == nil {
		return "", false
	}
	label, ok, err := d.cache.Get(ctx, d.cacheKey(digest))
	if err != nil {
		logger.Warn("prediction cache lookup failed", logger.ErrorField(err))
		return "", false
	}
	return label, ok
}

func (d *Dispatcher) remember(ctx context.Context, digest, label string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, d.cacheKey(digest), label); err != nil {
		logger.Warn("prediction cache store failed", logger.ErrorField(err))
	}
}

func (d *Dispatcher) record(ctx context.Context, res *Result) {
	if d.recorder == nil {
		return
	}
	rec := &model.PredictionRecord{
		Label:         res.Label,
		ClassIndex:    res.ClassIndex,
		SavedPath:     res.SavedPath,
		PayloadSHA256: res.SHA256,
		CacheHit:      res.CacheHit,
		DurationMs:    res.Elapsed.Milliseconds(),
	}
	if err := d.recorder.Record(ctx, rec); err != nil {
		logger.Warn("record prediction failed", logger.ErrorField(err))
	}
}
