package syncutil_test

import (
	"testing"
	"testing/fstest"

	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/filesystem/ospfs"
	"github.com/ospfs/ospfs/syncutil"
)

func TestCopyTree(t *testing.T) {
	src := fstest.MapFS{
		"a.txt":        {Data: []byte("hello")},
		"sub/b.txt":    {Data: []byte("world")},
		"sub/deep/c.txt": {Data: []byte("!")},
	}

	arena := mem.New(4 * 1024 * 1024)
	dst, err := ospfs.Mkfs(arena, ospfs.MkfsOptions{TotalBlocks: 4096})
	if err != nil {
		t.Fatalf("mkfs: %v", err)
	}

	if err := syncutil.CopyTree(src, dst); err != nil {
		t.Fatalf("copy tree: %v", err)
	}

	for name, want := range map[string]string{
		"/a.txt":         "hello",
		"/sub/b.txt":     "world",
		"/sub/deep/c.txt": "!",
	} {
		h, err := dst.OpenFile(name, 0)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		buf := make([]byte, len(want))
		if _, err := h.Read(buf); err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(buf) != want {
			t.Errorf("%s: got %q, want %q", name, buf, want)
		}
		h.Close()
	}
}
