// Command ospfsutil is a manual-testing convenience over filesystem/ospfs:
// format an arena, list/read/write its contents, and snapshot it to or
// restore it from a host file. It is not part of any correctness surface.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ospfs/ospfs/backend/file"
	"github.com/ospfs/ospfs/backend/mem"
	"github.com/ospfs/ospfs/filesystem/ospfs"
)

func check(err error) {
	if err == nil {
		return
	}
	log.Fatal(err)
}

func codecFromFlag(name string) file.Codec {
	switch name {
	case "lz4":
		return file.CodecLZ4
	case "xz":
		return file.CodecXZ
	default:
		return file.CodecRaw
	}
}

func loadArena(snapshotPath string, codec file.Codec, totalBlocks uint32) *mem.Arena {
	size := int64(totalBlocks) * ospfs.BlockSize
	if snapshotPath == "" {
		return mem.New(size)
	}
	if _, err := os.Stat(snapshotPath); err != nil {
		return mem.New(size)
	}
	buf, err := file.Restore(snapshotPath, size, codec, nil)
	check(err)
	return mem.NewFromBytes(buf)
}

func saveArena(arena *mem.Arena, snapshotPath string, codec file.Codec) {
	if snapshotPath == "" {
		return
	}
	check(file.Snapshot(snapshotPath, arena.Bytes(), codec))
}

func main() {
	snapshotFlag := flag.String("snapshot", "", "path to a host-file snapshot to load/save the arena from/to")
	codecFlag := flag.String("codec", "raw", "snapshot codec: raw, lz4, or xz")
	blocksFlag := flag.Uint("blocks", 65536, "total block count for a freshly formatted image")
	flag.Parse()

	codec := codecFromFlag(*codecFlag)
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ospfsutil [-snapshot path] [-codec raw|lz4|xz] <mkfs|ls|cat|write|ln|symlink|mkdir> ...")
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "mkfs":
		arena := mem.New(int64(*blocksFlag) * ospfs.BlockSize)
		_, err := ospfs.Mkfs(arena, ospfs.MkfsOptions{TotalBlocks: uint32(*blocksFlag)})
		check(err)
		saveArena(arena, *snapshotFlag, codec)

	case "ls":
		if len(rest) != 1 {
			log.Fatal("usage: ospfsutil ls <path>")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		entries, err := fs.ReadDir(rest[0])
		check(err)
		for _, e := range entries {
			kind := "-"
			if e.IsDir() {
				kind = "d"
			}
			fmt.Printf("%s %8d %s\n", kind, e.Size(), e.Name())
		}

	case "cat":
		if len(rest) != 1 {
			log.Fatal("usage: ospfsutil cat <path>")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		h, err := fs.OpenFile(rest[0], os.O_RDONLY)
		check(err)
		_, err = io.Copy(os.Stdout, h)
		check(err)
		check(h.Close())

	case "write":
		if len(rest) != 1 {
			log.Fatal("usage: ospfsutil write <path> (reads stdin)")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		h, err := fs.OpenFile(rest[0], os.O_CREATE|os.O_TRUNC|os.O_RDWR)
		check(err)
		_, err = io.Copy(h, os.Stdin)
		check(err)
		check(h.Close())
		saveArena(arena, *snapshotFlag, codec)

	case "ln":
		if len(rest) != 2 {
			log.Fatal("usage: ospfsutil ln <oldpath> <newpath>")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		check(fs.Link(rest[0], rest[1]))
		saveArena(arena, *snapshotFlag, codec)

	case "symlink":
		if len(rest) != 2 {
			log.Fatal("usage: ospfsutil symlink <target> <linkpath>")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		check(fs.Symlink(rest[0], rest[1]))
		saveArena(arena, *snapshotFlag, codec)

	case "mkdir":
		if len(rest) != 1 {
			log.Fatal("usage: ospfsutil mkdir <path>")
		}
		arena := loadArena(*snapshotFlag, codec, uint32(*blocksFlag))
		fs, err := ospfs.Read(arena, ospfs.ReadOptions{})
		check(err)
		check(fs.Mkdir(rest[0]))
		saveArena(arena, *snapshotFlag, codec)

	default:
		log.Fatalf("unknown command %q", cmd)
	}
}
