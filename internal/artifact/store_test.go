package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestStore_LogFile(t *testing.T) {
	store := NewStore(t.TempDir())
	src := writeTestFile(t, t.TempDir(), "weights.bin", "data")

	if err := store.LogFile("run1", src, "model"); err != nil {
		t.Fatalf("LogFile: %v", err)
	}

	got, err := os.ReadFile(store.Dir("run1", "model", "weights.bin"))
	if err != nil {
		t.Fatalf("read logged file: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content: got %q", got)
	}
}

func TestStore_LogFile_RejectsDir(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.LogFile("run1", t.TempDir(), "model"); err == nil {
		t.Error("expected error logging a directory via LogFile")
	}
}

func TestStore_LogDir(t *testing.T) {
	store := NewStore(t.TempDir())
	src := t.TempDir()
	writeTestFile(t, src, "a.txt", "a")
	writeTestFile(t, src, "sub/b.txt", "b")

	n, err := store.LogDir("run1", src, "model")
	if err != nil {
		t.Fatalf("LogDir: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files copied, got %d", n)
	}

	if _, err := os.Stat(store.Dir("run1", "model", "sub", "b.txt")); err != nil {
		t.Errorf("nested file not copied: %v", err)
	}
}

func TestStore_LogDir_HonorsIgnoreFile(t *testing.T) {
	store := NewStore(t.TempDir())
	src := t.TempDir()
	writeTestFile(t, src, "keep.txt", "k")
	writeTestFile(t, src, "skip.log", "s")
	writeTestFile(t, src, "tmp/cache.bin", "c")
	writeTestFile(t, src, IgnoreFileName, "*.log\ntmp/\n")

	n, err := store.LogDir("run1", src, "model")
	if err != nil {
		t.Fatalf("LogDir: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 file copied, got %d", n)
	}

	if _, err := os.Stat(store.Dir("run1", "model", "skip.log")); !os.IsNotExist(err) {
		t.Error("ignored file was copied")
	}
	// The ignore file itself is never logged.
	if _, err := os.Stat(store.Dir("run1", "model", IgnoreFileName)); !os.IsNotExist(err) {
		t.Error("ignore file was copied")
	}
}

func TestStore_WriteFileAndResolve(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.WriteFile("run1", "model/modelyard.yaml", []byte("flavor: x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	path, err := store.Resolve("run1", "model/modelyard.yaml")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("resolved path missing: %v", err)
	}
}

func TestStore_Resolve_Missing(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Resolve("run1", "nothing"); err == nil {
		t.Error("expected error resolving missing artifact")
	}
}

func TestStore_Resolve_EscapeRejected(t *testing.T) {
	store := NewStore(t.TempDir())
	store.WriteFile("run1", "f.txt", []byte("x"))

	if _, err := store.Resolve("run1", "../run2/secret"); err == nil {
		t.Error("expected error for path escaping the run directory")
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(t.TempDir())
	store.WriteFile("run1", "model/card.yaml", []byte("a"))
	store.WriteFile("run1", "data/input.txt", []byte("b"))

	files, err := store.List("run1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 artifacts, got %d", len(files))
	}
}

func TestStore_List_UnknownRun(t *testing.T) {
	store := NewStore(t.TempDir())

	files, err := store.List("ghost")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if files != nil {
		t.Errorf("expected nil for unknown run, got %v", files)
	}
}

func TestStore_DeleteRunAndRunDirs(t *testing.T) {
	store := NewStore(t.TempDir())
	store.WriteFile("run1", "f", []byte("x"))
	store.WriteFile("run2", "f", []byte("y"))

	dirs, _ := store.RunDirs()
	if len(dirs) != 2 {
		t.Fatalf("expected 2 run dirs, got %d", len(dirs))
	}

	if err := store.DeleteRun("run1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	dirs, _ = store.RunDirs()
	if len(dirs) != 1 {
		t.Errorf("expected 1 run dir after delete, got %d", len(dirs))
	}
}

func TestStore_DeleteRun_EmptyID(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.DeleteRun(""); err == nil {
		t.Error("expected error deleting empty run id")
	}
}

func TestIgnoreMatcher_NoFile(t *testing.T) {
	m := NewIgnoreMatcher(t.TempDir())

	if m.Match("anything.txt") {
		t.Error("matcher without ignore file should not match regular files")
	}
	if !m.Match(".git") {
		t.Error("hard-ignored names should always match")
	}
}
