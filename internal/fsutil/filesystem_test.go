package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeAll(t *testing.T, fsys FileSystem, name, content string) {
	t.Helper()
	w, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteRenameRead(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	tmp := filepath.Join(dir, ".out.csv.tmp")
	final := filepath.Join(dir, "out.csv")
	writeAll(t, fs, tmp, "x,y\n1,2\n")

	if err := fs.Rename(tmp, final); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if fs.Exists(tmp) {
		t.Error("temp file should be gone after rename")
	}
	data, err := fs.ReadFile(final)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "x,y\n1,2\n" {
		t.Errorf("unexpected content %q", data)
	}
	if err := fs.Remove(final); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
}

func TestMemoryFileSystem_CreateRequiresParent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Create("/out/a.csv"); err == nil {
		t.Fatal("expected error creating file in missing directory")
	}

	if err := mfs.MkdirAll("/out", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeAll(t, mfs, "/out/a.csv", "created content")

	data, err := mfs.ReadFile("/out/a.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "created content" {
		t.Errorf("expected 'created content', got %q", data)
	}
}

func TestMemoryFileSystem_Rename(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/out", 0755)
	writeAll(t, mfs, "/out/.a.tmp", "data")

	if err := mfs.Rename("/out/.a.tmp", "/out/a.csv"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if mfs.Exists("/out/.a.tmp") {
		t.Error("old name should not exist")
	}
	if !mfs.Exists("/out/a.csv") {
		t.Error("new name should exist")
	}
	if err := mfs.Rename("/out/missing", "/out/b.csv"); err == nil {
		t.Error("expected error renaming missing file")
	}
}

func TestMemoryFileSystem_CloseErr(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/out", 0755)
	mfs.CloseErr = errors.New("disk full")

	w, err := mfs.Create("/out/a.csv")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, _ = w.Write([]byte("partial"))
	if err := w.Close(); err == nil {
		t.Fatal("expected Close to fail")
	}
	data, _ := mfs.ReadFile("/out/a.csv")
	if len(data) != 0 {
		t.Errorf("failed write should leave no content, got %q", data)
	}
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/out/sub", 0755)
	writeAll(t, mfs, "/out/sub/a.csv", "x")

	if err := mfs.Remove("/out/sub"); err == nil {
		t.Error("expected error removing non-empty directory")
	}
	if err := mfs.Remove("/out/sub/a.csv"); err != nil {
		t.Fatalf("Remove file failed: %v", err)
	}
	if err := mfs.Remove("/out/sub"); err != nil {
		t.Fatalf("Remove dir failed: %v", err)
	}
	if err := mfs.Remove("/out/sub"); err == nil {
		t.Error("expected error removing missing path")
	}
}

func TestMemoryFileSystem_MkdirAllCreatesParents(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/a/b/c", 0755)
	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
	}
}

func TestMemoryFileSystem_FilesSorted(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/o", 0755)
	writeAll(t, mfs, "/o/b.csv", "")
	writeAll(t, mfs, "/o/a.csv", "")

	got := mfs.Files()
	if len(got) != 2 || got[0] != "/o/a.csv" || got[1] != "/o/b.csv" {
		t.Errorf("unexpected files %v", got)
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/o", 0755)
	writeAll(t, mfs, "/o/./x/../a.csv", "clean")

	if !mfs.Exists("/o/a.csv") {
		t.Error("expected cleaned path to exist")
	}
}
