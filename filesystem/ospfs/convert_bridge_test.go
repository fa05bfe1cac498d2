package ospfs_test

import (
	iofs "io/fs"
	"os"
	"testing"

	"github.com/ospfs/ospfs/convert"
	"github.com/ospfs/ospfs/filesystem/internal/testutil"
)

// TestConvertedTreeHasNoCycles runs the shared fs.ReadDirFS sanity walk
// (also used against fat32/iso9660/squashfs in the teacher corpus) over an
// ospfs image exposed through convert.FS, so the bridge is held to the same
// structural bar as every other filesystem.FileSystem implementation.
func TestConvertedTreeHasNoCycles(t *testing.T) {
	fsys, _ := mustMkfs(t, 2048)

	if err := fsys.Mkdir("/a"); err != nil {
		t.Fatalf("mkdir /a: %v", err)
	}
	if err := fsys.Mkdir("/a/b"); err != nil {
		t.Fatalf("mkdir /a/b: %v", err)
	}
	h, err := fsys.OpenFile("/a/b/leaf.txt", os.O_CREATE|os.O_RDWR)
	if err != nil {
		t.Fatalf("create leaf: %v", err)
	}
	h.Close()

	testutil.TestFSTree(t, convert.FS(fsys).(iofs.ReadDirFS))
}
