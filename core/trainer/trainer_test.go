package trainer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"voicecmd/logger"
	"voicecmd/model"
)

func TestJobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs", "train.toml")
	job := DefaultJob()
	job.TrainManifest = "/data/train_manifest.json"
	job.ValManifest = "/data/val_manifest.json"
	job.Labels = model.DefaultLabels
	job.MaxEpochs = 5

	if err := WriteJob(path, job); err != nil {
		t.Fatalf("WriteJob: %v", err)
	}
	got, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if !reflect.DeepEqual(got, job) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, job)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadJobDefaultsAndUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	partial := filepath.Join(dir, "partial.toml")
	if err := os.WriteFile(partial, []byte("train_manifest = \"t.json\"\nval_manifest = \"v.json\"\nlabels = [\"su\", \"giu\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := LoadJob(partial)
	if err != nil {
		t.Fatal(err)
	}
	if job.BatchSize != 32 || job.SampleRate != 16000 || job.Seed != 42 {
		t.Fatalf("defaults not applied: %+v", job)
	}

	unknown := filepath.Join(dir, "unknown.toml")
	if err := os.WriteFile(unknown, []byte("epochz = 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJob(unknown); err == nil {
		t.Fatal("unknown keys should be rejected")
	}
}

func TestValidate(t *testing.T) {
	job := DefaultJob()
	if err := job.Validate(); err == nil || !strings.Contains(err.Error(), "train manifest") {
		t.Fatalf("expected train manifest error, got %v", err)
	}
}

func TestRunStreamsOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	cmd := []string{"sh", "-c", `echo "epoch 1"; echo "job $1" >&2`, "trainer"}
	if err := Run(context.Background(), cmd, "/tmp/job.toml"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var lines []string
	for _, e := range logs.FilterMessage("trainer").All() {
		lines = append(lines, e.ContextMap()["line"].(string))
	}
	want := map[string]bool{"epoch 1": true, "job /tmp/job.toml": true}
	if len(lines) != 2 || !want[lines[0]] || !want[lines[1]] {
		t.Fatalf("streamed lines = %v", lines)
	}

	if err := Run(context.Background(), []string{"sh", "-c", "exit 2"}, "x"); err == nil {
		t.Fatal("expected failure exit to be reported")
	}
	if err := Run(context.Background(), nil, "x"); err == nil {
		t.Fatal("expected error for empty command")
	}
}
