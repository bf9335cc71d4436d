package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// tempCardWriter writes artifacts under a temp root, run-id first.
type tempCardWriter struct {
	root string
}

func (w tempCardWriter) Dir(runID string, subpath ...string) string {
	parts := append([]string{w.root, runID}, subpath...)
	return filepath.Join(parts...)
}

func (w tempCardWriter) WriteFile(runID, subpath string, data []byte) error {
	path := filepath.Join(w.root, runID, subpath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type fakeRegistrar struct {
	next    int
	name    string
	path    string
	failErr error
}

func (f *fakeRegistrar) RegisterModelVersion(name, runID, artifactPath string) (int, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.next++
	f.name, f.path = name, artifactPath
	return f.next, nil
}

func TestLog_WritesCard(t *testing.T) {
	arts := tempCardWriter{root: t.TempDir()}
	reg := &fakeRegistrar{}

	version, err := Log(arts, reg, LogOptions{
		RunID: "run1",
		Card:  Card{Flavor: "translation"},
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if version != 0 {
		t.Errorf("unregistered log should return version 0, got %d", version)
	}

	// Card lands at the default "model" subpath.
	if _, err := ReadCard(arts.Dir("run1", "model")); err != nil {
		t.Errorf("card not readable: %v", err)
	}
	if reg.next != 0 {
		t.Error("no registration expected without a name")
	}
}

func TestLog_RegistersVersion(t *testing.T) {
	arts := tempCardWriter{root: t.TempDir()}
	reg := &fakeRegistrar{}

	version, err := Log(arts, reg, LogOptions{
		RunID: "run1",
		Path:  "models/scorer",
		Name:  "scorer",
		Card:  Card{Flavor: "sentence_similarity"},
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if version != 1 {
		t.Errorf("version: got %d, want 1", version)
	}
	if reg.name != "scorer" || reg.path != "models/scorer" {
		t.Errorf("registered %q at %q", reg.name, reg.path)
	}
}

func TestLog_Errors(t *testing.T) {
	arts := tempCardWriter{root: t.TempDir()}

	if _, err := Log(arts, &fakeRegistrar{}, LogOptions{Card: Card{Flavor: "x"}}); err == nil {
		t.Error("expected error for missing run id")
	}
	if _, err := Log(arts, &fakeRegistrar{}, LogOptions{RunID: "r"}); err == nil {
		t.Error("expected error for card without flavor")
	}

	reg := &fakeRegistrar{failErr: errors.New("db closed")}
	if _, err := Log(arts, reg, LogOptions{RunID: "r", Name: "m", Card: Card{Flavor: "x"}}); err == nil {
		t.Error("expected registrar error to propagate")
	}
}
