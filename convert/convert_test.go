package convert_test

import (
	"io/fs"
	"os"
	"testing"

	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/convert"
	"github.com/ospfs/ospfs/filesystem/ospfs"
)

func mkfsT(t *testing.T) *ospfs.FileSystem {
	t.Helper()
	arena := mem.New(4 * 1024 * 1024)
	fsys, err := ospfs.Mkfs(arena, ospfs.MkfsOptions{TotalBlocks: 4096})
	if err != nil {
		t.Fatalf("mkfs: %v", err)
	}
	return fsys
}

func TestFSReadDirAndOpen(t *testing.T) {
	fsys := mkfsT(t)
	if err := fsys.Mkdir("/greetings"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h, err := fsys.OpenFile("/greetings/hello.txt", os.O_RDWR|os.O_CREATE)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := h.Write([]byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.Close()

	bridge := convert.FS(fsys)
	entries, err := fs.ReadDir(bridge, "greetings")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "hello.txt" {
		t.Fatalf("unexpected entries: %v", entries)
	}

	data, err := fs.ReadFile(bridge, "greetings/hello.txt")
	if err != nil {
		t.Fatalf("readfile: %v", err)
	}
	if string(data) != "hi" {
		t.Fatalf("got %q, want %q", data, "hi")
	}
}
