package fsx_test

import (
	"path/filepath"
	"testing"

	"dirqueue/internal/dirqueue/fsx"
)

func TestMkdirDistinguishesCreatedFromExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")

	outcome, err := fsx.Mkdir(dir)
	if err != nil {
		t.Fatalf("first Mkdir: %v", err)
	}
	if outcome != fsx.Created {
		t.Fatalf("expected Created, got %v", outcome)
	}

	outcome, err = fsx.Mkdir(dir)
	if err != nil {
		t.Fatalf("second Mkdir: %v", err)
	}
	if outcome != fsx.Exists {
		t.Fatalf("expected Exists, got %v", outcome)
	}
}

func TestRmdirDistinguishesRemovedFromMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	if _, err := fsx.Mkdir(dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	outcome, err := fsx.Rmdir(dir)
	if err != nil {
		t.Fatalf("first Rmdir: %v", err)
	}
	if outcome != fsx.Removed {
		t.Fatalf("expected Removed, got %v", outcome)
	}

	outcome, err = fsx.Rmdir(dir)
	if err != nil {
		t.Fatalf("second Rmdir: %v", err)
	}
	if outcome != fsx.Missing {
		t.Fatalf("expected Missing, got %v", outcome)
	}
}

func TestRmdirReportsNotEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "child")
	if _, err := fsx.Mkdir(dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := fsx.Mkdir(filepath.Join(dir, "occupant")); err != nil {
		t.Fatalf("Mkdir occupant: %v", err)
	}

	outcome, err := fsx.Rmdir(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if outcome != fsx.NotEmpty {
		t.Fatalf("expected NotEmpty, got %v", outcome)
	}
}

func TestReadDirToleratesMissingWhenNotStrict(t *testing.T) {
	names, err := fsx.ReadDir(filepath.Join(t.TempDir(), "gone"), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty result, got %v", names)
	}
}

func TestReadDirFailsOnMissingWhenStrict(t *testing.T) {
	if _, err := fsx.ReadDir(filepath.Join(t.TempDir(), "gone"), true); err == nil {
		t.Fatal("expected error for missing directory in strict mode")
	}
}

func TestWriteFileThenReadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field")
	want := []byte("some field content")
	if err := fsx.WriteFile(path, want, 0o666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, found, err := fsx.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadFileReportsNotFound(t *testing.T) {
	_, found, err := fsx.ReadFile(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Fatal("expected found=false")
	}
}

func TestCountSubdirsCountsOnlyDirectories(t *testing.T) {
	root := t.TempDir()
	if _, err := fsx.Mkdir(filepath.Join(root, "a")); err != nil {
		t.Fatalf("Mkdir a: %v", err)
	}
	if _, err := fsx.Mkdir(filepath.Join(root, "b")); err != nil {
		t.Fatalf("Mkdir b: %v", err)
	}
	if err := fsx.WriteFile(filepath.Join(root, "file"), []byte("x"), 0o666); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	count, err := fsx.CountSubdirs(root, fsx.Probe(root))
	if err != nil {
		t.Fatalf("CountSubdirs: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 sub-directories, got %d", count)
	}
}
