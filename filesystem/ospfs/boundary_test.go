package ospfs

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ospfs/ospfs/backend/mem"
)

func mkfsInternal(t *testing.T, totalBlocks uint32) *FileSystem {
	t.Helper()
	arena := mem.New(int64(totalBlocks) * BlockSize)
	fs, err := Mkfs(arena, MkfsOptions{TotalBlocks: totalBlocks})
	if err != nil {
		t.Fatalf("mkfs: %v", err)
	}
	return fs
}

func mkfile(t *testing.T, fs *FileSystem, name string) *inode {
	t.Helper()
	root, err := fs.readInode(RootIno)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	ino, err := fs.create(root, name, 0o644)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return ino
}

// scenario 1: NDIRECT*BLKSIZE bytes stay fully direct; one more byte forces
// a singly-indirect block without disturbing the direct pointers.
func TestBoundaryDirectToIndirect(t *testing.T) {
	fs := mkfsInternal(t, 4096)
	ino := mkfile(t, fs, "f")

	if err := fs.changeSize(ino, NDirect*BlockSize); err != nil {
		t.Fatalf("grow to direct boundary: %v", err)
	}
	if ino.indirect != 0 {
		t.Fatalf("indirect block allocated early: %d", ino.indirect)
	}
	directSnapshot := ino.direct

	if err := fs.changeSize(ino, NDirect*BlockSize+1); err != nil {
		t.Fatalf("grow past direct boundary: %v", err)
	}
	if ino.indirect == 0 {
		t.Fatalf("expected an indirect block to be allocated")
	}
	if directSnapshot != ino.direct {
		t.Fatalf("direct pointers changed when they shouldn't have: %v != %v", directSnapshot, ino.direct)
	}
}

// scenario 2: growing past the singly-indirect region forces exactly one
// doubly-indirect block and exactly one inner indirect block.
func TestBoundaryIndirectToDoublyIndirect(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	ino := mkfile(t, fs, "f")

	want := uint32((NDirect+NIndirect)*BlockSize + 1)
	if err := fs.changeSize(ino, want); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if ino.indirect2 == 0 {
		t.Fatalf("expected a doubly-indirect block")
	}
	blk, err := fs.store.readBlock(ino.indirect2)
	if err != nil {
		t.Fatalf("reading doubly-indirect block: %v", err)
	}
	entries := decodeIndirectBlock(blk)
	nonzero := 0
	for _, e := range entries {
		if e != 0 {
			nonzero++
		}
	}
	if nonzero != 1 {
		t.Fatalf("expected exactly one inner indirect block, got %d", nonzero)
	}
}

// scenario 3: growing past the available free space leaves size and free
// count untouched.
func TestNoSpaceRollback(t *testing.T) {
	fs := mkfsInternal(t, 64)
	ino := mkfile(t, fs, "f")

	freeBefore := fs.FreeBlocks()
	tooBig := uint32(freeBefore+1) * BlockSize
	err := fs.changeSize(ino, tooBig)
	if err == nil {
		t.Fatalf("expected no-space error")
	}
	if ino.size != 0 {
		t.Fatalf("size changed after rollback: %d", ino.size)
	}
	if fs.FreeBlocks() != freeBefore {
		t.Fatalf("free count changed after rollback: %d != %d", fs.FreeBlocks(), freeBefore)
	}
}

// scenario 4: 100 files created and every-other unlinked; tombstones get
// reused by subsequent creates.
func TestCreateUnlinkCycleReusesTombstones(t *testing.T) {
	fs := mkfsInternal(t, 4096)
	root, err := fs.readInode(RootIno)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}

	seen := map[uint32]bool{}
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("f%03d", i)
		ino, err := fs.create(root, name, 0o644)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if seen[ino.number] {
			t.Fatalf("inode %d reused while still live", ino.number)
		}
		seen[ino.number] = true
	}

	entries, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(entries))
	}

	for i := 0; i < 100; i += 2 {
		name := fmt.Sprintf("f%03d", i)
		if err := fs.unlink(root, name); err != nil {
			t.Fatalf("unlink %s: %v", name, err)
		}
	}

	entries, err = fs.ReadDir("/")
	if err != nil {
		t.Fatalf("readdir after unlink: %v", err)
	}
	if len(entries) != 50 {
		t.Fatalf("expected 50 entries after unlinking every other, got %d", len(entries))
	}

	reused, err := fs.create(root, "g000", 0o644)
	if err != nil {
		t.Fatalf("create g000: %v", err)
	}
	if !seen[reused.number] {
		t.Fatalf("expected a tombstoned inode slot to be reused, got fresh inode %d", reused.number)
	}
}

// scenario 5: conditional symlink resolution depends on caller UID; a
// plain target resolves identically for every caller.
func TestConditionalSymlinkResolution(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	root, err := fs.readInode(RootIno)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}

	cond, err := fs.symlink(root, "cond", "root?/a:/b")
	if err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if got, err := followLink(cond, Caller{UID: 0}); err != nil || got != "/a" {
		t.Fatalf("root resolution: got %q, err %v", got, err)
	}
	if got, err := followLink(cond, Caller{UID: 42}); err != nil || got != "/b" {
		t.Fatalf("non-root resolution: got %q, err %v", got, err)
	}

	plain, err := fs.symlink(root, "plain", "/plain")
	if err != nil {
		t.Fatalf("symlink: %v", err)
	}
	for _, uid := range []uint32{0, 1, 1000} {
		if got, err := followLink(plain, Caller{UID: uid}); err != nil || got != "/plain" {
			t.Fatalf("plain resolution for uid %d: got %q, err %v", uid, got, err)
		}
	}
}

// scenario 6: an append-mode write onto a 100-byte file yields a 150-byte
// file with the first 100 bytes untouched.
func TestAppendModeWrite(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	ino := mkfile(t, fs, "f")

	original := bytes.Repeat([]byte{0xAB}, 100)
	var pos int64
	if _, err := fs.WriteFile(ino, original, len(original), &pos, false); err != nil {
		t.Fatalf("initial write: %v", err)
	}

	appended := bytes.Repeat([]byte{0xCD}, 50)
	pos = 0
	n, err := fs.WriteFile(ino, appended, len(appended), &pos, true)
	if err != nil {
		t.Fatalf("append write: %v", err)
	}
	if n != 50 {
		t.Fatalf("expected 50 bytes written, got %d", n)
	}
	if ino.size != 150 {
		t.Fatalf("expected size 150, got %d", ino.size)
	}

	buf := make([]byte, 150)
	var readPos int64
	if _, err := fs.ReadFile(ino, buf, 150, &readPos); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(buf[:100], original) {
		t.Fatalf("original bytes disturbed by append")
	}
	if !bytes.Equal(buf[100:150], appended) {
		t.Fatalf("appended bytes not as expected")
	}
}

// Resize idempotence: change_size(i, s); change_size(i, s) equals one call.
func TestResizeIdempotence(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	ino := mkfile(t, fs, "f")

	if err := fs.changeSize(ino, 5000); err != nil {
		t.Fatalf("first resize: %v", err)
	}
	firstDirect := ino.direct
	firstIndirect := ino.indirect

	if err := fs.changeSize(ino, 5000); err != nil {
		t.Fatalf("second resize: %v", err)
	}
	if ino.size != 5000 || ino.direct != firstDirect || ino.indirect != firstIndirect {
		t.Fatalf("resize was not idempotent")
	}
}

// Create/unlink cancellation: free-block count after create(name);
// unlink(name) equals the original count.
func TestCreateUnlinkCancellation(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	root, err := fs.readInode(RootIno)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	before := fs.FreeBlocks()

	ino, err := fs.create(root, "tmp", 0o644)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := fs.changeSize(ino, 20000); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := fs.unlink(root, "tmp"); err != nil {
		t.Fatalf("unlink: %v", err)
	}

	if fs.FreeBlocks() != before {
		t.Fatalf("free blocks not restored: before=%d after=%d", before, fs.FreeBlocks())
	}
}

// Grow/shrink symmetry: change_size(i, s); change_size(i, 0) releases every
// block it allocated.
func TestGrowShrinkSymmetry(t *testing.T) {
	fs := mkfsInternal(t, 2048)
	ino := mkfile(t, fs, "f")
	before := fs.FreeBlocks()

	want := uint32((NDirect+NIndirect)*BlockSize + 1)
	if err := fs.changeSize(ino, want); err != nil {
		t.Fatalf("grow: %v", err)
	}
	if err := fs.changeSize(ino, 0); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if fs.FreeBlocks() != before {
		t.Fatalf("blocks leaked: before=%d after=%d", before, fs.FreeBlocks())
	}
	if ino.indirect != 0 || ino.indirect2 != 0 {
		t.Fatalf("pointer tree not fully released: indirect=%d indirect2=%d", ino.indirect, ino.indirect2)
	}
}
