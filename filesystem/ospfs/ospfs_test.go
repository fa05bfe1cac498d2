package ospfs_test

import (
	"os"
	"testing"

	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/filesystem/ospfs"
)

func mustMkfs(t *testing.T, totalBlocks uint32) (*ospfs.FileSystem, *mem.Arena) {
	t.Helper()
	arena := mem.New(int64(totalBlocks) * ospfs.BlockSize)
	fs, err := ospfs.Mkfs(arena, ospfs.MkfsOptions{TotalBlocks: totalBlocks})
	if err != nil {
		t.Fatalf("mkfs: %v", err)
	}
	return fs, arena
}

func TestMkfsThenReadRoundTrip(t *testing.T) {
	fs, arena := mustMkfs(t, 2048)

	entries, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("readdir /: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh root should be empty, got %d entries", len(entries))
	}

	before := fs.UUID()

	reopened, err := ospfs.Read(arena, ospfs.ReadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reopened.UUID() != before {
		t.Fatalf("uuid changed across read: %v != %v", reopened.UUID(), before)
	}
	if reopened.Type() != fs.Type() {
		t.Fatalf("type changed across read")
	}
}

func TestMkdirAndCreateFile(t *testing.T) {
	fs, _ := mustMkfs(t, 2048)

	if err := fs.Mkdir("/etc"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h, err := fs.OpenFile("/etc/passwd", os.O_CREATE|os.O_RDWR)
	if err != nil {
		t.Fatalf("openfile: %v", err)
	}
	if _, err := h.Write([]byte("root:x:0:0")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := fs.ReadDir("/etc")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "passwd" {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func TestSymlinkFollowedThroughPath(t *testing.T) {
	fs, _ := mustMkfs(t, 2048)

	h, err := fs.OpenFile("/target", os.O_CREATE|os.O_RDWR)
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	if _, err := h.Write([]byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.Close()

	if err := fs.Symlink("/target", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	h, err = fs.OpenFile("/link", os.O_RDONLY)
	if err != nil {
		t.Fatalf("open via symlink: %v", err)
	}
	buf := make([]byte, 7)
	if _, err := h.Read(buf); err != nil {
		t.Fatalf("read via symlink: %v", err)
	}
	if string(buf) != "payload" {
		t.Fatalf("got %q via symlink", buf)
	}
}

func TestLinkRenameRemove(t *testing.T) {
	fs, _ := mustMkfs(t, 2048)

	h, err := fs.OpenFile("/a", os.O_CREATE|os.O_RDWR)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.Close()

	if err := fs.Link("/a", "/b"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := fs.Rename("/b", "/c"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := fs.OpenFile("/c", os.O_RDONLY); err != nil {
		t.Fatalf("renamed target should open: %v", err)
	}
	if _, err := fs.OpenFile("/b", os.O_RDONLY); err == nil {
		t.Fatalf("old name should no longer resolve")
	}

	if err := fs.Remove("/c"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := fs.OpenFile("/a", os.O_RDONLY); err != nil {
		t.Fatalf("hardlinked original should still exist: %v", err)
	}
}

func TestRemoveRefusesNonEmptyDirectory(t *testing.T) {
	fs, _ := mustMkfs(t, 2048)

	if err := fs.Mkdir("/d"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fs.Mkdir("/d/child"); err != nil {
		t.Fatalf("mkdir child: %v", err)
	}
	if err := fs.Remove("/d"); err == nil {
		t.Fatalf("expected removing a non-empty directory to fail")
	}
	if err := fs.Remove("/d/child"); err != nil {
		t.Fatalf("remove child: %v", err)
	}
	if err := fs.Remove("/d"); err != nil {
		t.Fatalf("remove now-empty directory: %v", err)
	}
}
