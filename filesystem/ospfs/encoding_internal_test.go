package ospfs

import (
	"bytes"
	"testing"

	"github.com/ospfs/ospfs/util"
)

// Mirrors the teacher's ext4/fat32 encode-decode table tests: build a
// value, round-trip it through its on-disk encoding, and on mismatch dump
// a byte-level diff rather than a bare "not equal" failure.
func TestSuperblockEncodeDecodeRoundTrip(t *testing.T) {
	l := computeLayout(4096, 1024)
	want := newSuperblock(l)

	encoded := want.encode()
	got, err := decodeSuperblock(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	reEncoded := got.encode()
	if !bytes.Equal(encoded, reEncoded) {
		_, diff := util.DumpByteSlicesWithDiffs(encoded, reEncoded, 16, true, true, false)
		t.Fatalf("superblock did not round-trip:\n%s", diff)
	}
	if got.totalBlocks != want.totalBlocks || got.totalInodes != want.totalInodes {
		t.Fatalf("decoded superblock fields mismatch: got %+v, want %+v", got, want)
	}
}

func TestDirentEncodeDecodeRoundTrip(t *testing.T) {
	want := dirent{ino: 7, name: "some-file.txt"}

	encoded := encodeDirent(want)
	if len(encoded) != DirentSize {
		t.Fatalf("unexpected dirent encoding size: %d", len(encoded))
	}

	got := decodeDirent(encoded)
	reEncoded := encodeDirent(got)
	if !bytes.Equal(encoded, reEncoded) {
		_, diff := util.DumpByteSlicesWithDiffs(encoded, reEncoded, 16, true, true, false)
		t.Fatalf("dirent did not round-trip:\n%s", diff)
	}
	if got.ino != want.ino || got.name != want.name {
		t.Fatalf("decoded dirent mismatch: got %+v, want %+v", got, want)
	}
}
