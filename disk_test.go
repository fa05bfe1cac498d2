package ospfs_test

import (
	"os"
	"testing"

	ospfs "github.com/ospfs/ospfs"
	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/filesystem"
	ospfsfs "github.com/ospfs/ospfs/filesystem/ospfs"
)

func TestDiskCreateFilesystemThenMount(t *testing.T) {
	d, err := ospfs.CreateMem(4 * 1024 * 1024)
	if err != nil {
		t.Fatalf("create mem disk: %v", err)
	}

	fsys, err := d.CreateFilesystem(ospfsfs.MkfsOptions{TotalBlocks: 4096})
	if err != nil {
		t.Fatalf("create filesystem: %v", err)
	}
	if fsys.Type() != filesystem.TypeOspfs {
		t.Fatalf("unexpected filesystem type")
	}

	if err := fsys.Mkdir("/srv"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h, err := fsys.OpenFile("/srv/hello.txt", os.O_CREATE|os.O_RDWR)
	if err != nil {
		t.Fatalf("openfile: %v", err)
	}
	if _, err := h.Write([]byte("hi there")); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.Close()

	if got := d.Filesystem(); got != fsys {
		t.Fatalf("Filesystem() did not return the mounted fs")
	}
}

func TestDiskCreateFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/image.ospfs"

	d, err := ospfs.CreateFile(path, 2*1024*1024)
	if err != nil {
		t.Fatalf("create file disk: %v", err)
	}
	if _, err := d.CreateFilesystem(ospfsfs.MkfsOptions{TotalBlocks: 2048}); err != nil {
		t.Fatalf("create filesystem: %v", err)
	}

	reopened, err := ospfs.OpenFile(path, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Size() != d.Size() {
		t.Fatalf("size mismatch across reopen: %d != %d", reopened.Size(), d.Size())
	}
	if _, err := reopened.Mount(ospfsfs.ReadOptions{}); err != nil {
		t.Fatalf("mount reopened image: %v", err)
	}
}

// TestDiskWithRegionConfinesToSubrange mounts an ospfs image inside the
// tail of a larger arena, leaving a header region untouched, and confirms
// the filesystem only ever sees its own confined window.
func TestDiskWithRegionConfinesToSubrange(t *testing.T) {
	const headerSize = 512
	const fsSize = 2 * 1024 * 1024

	arena := mem.New(headerSize + fsSize)
	copy(arena.Bytes(), []byte("container-header"))

	b, err := ospfs.Create(arena, headerSize+fsSize, ospfs.WithRegion(headerSize, fsSize))
	if err != nil {
		t.Fatalf("create disk: %v", err)
	}
	if b.Size() != fsSize {
		t.Fatalf("expected confined size %d, got %d", fsSize, b.Size())
	}

	fsys, err := b.CreateFilesystem(ospfsfs.MkfsOptions{TotalBlocks: 2048})
	if err != nil {
		t.Fatalf("create filesystem in confined region: %v", err)
	}
	if err := fsys.Mkdir("/x"); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if string(arena.Bytes()[:len("container-header")]) != "container-header" {
		t.Fatalf("filesystem writes leaked into the header region")
	}
}
