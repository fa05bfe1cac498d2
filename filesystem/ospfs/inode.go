package ospfs

import "encoding/binary"

// inode is the in-memory form of one inode-table entry (spec.md §3). Every
// variant shares the same header (size, ftype, nlink, mode); the tail is
// interpreted according to ftype, per the tagged-variant design in
// spec.md §9.
type inode struct {
	number uint32 // position in the inode table; not stored on disk

	size  uint32
	ftype ftype
	nlink uint32
	mode  uint32

	// valid when ftype is ftypeRegular or ftypeDirectory
	direct    [NDirect]uint32
	indirect  uint32
	indirect2 uint32

	// valid when ftype is ftypeSymlink; length is sized by size
	symlinkTarget string
}

func (i *inode) isFree() bool { return i.nlink == 0 }

// zeroed resets the inode to the free state required before reuse
// (spec.md §9 open question: a free inode must be fully zeroed - pointers,
// size - before reuse, not merely have nlink bumped).
func (i *inode) zeroed() {
	num := i.number
	*i = inode{number: num}
}

func encodeInode(i *inode) []byte {
	buf := make([]byte, inodeSize)
	binary.LittleEndian.PutUint32(buf[0:4], i.size)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(i.ftype))
	binary.LittleEndian.PutUint32(buf[8:12], i.nlink)
	binary.LittleEndian.PutUint32(buf[12:16], i.mode)

	tail := buf[inodeHeaderSize:]
	switch i.ftype {
	case ftypeSymlink:
		copy(tail, i.symlinkTarget)
		// tail is zero-padded by make(); NUL-termination is implicit.
	default:
		off := 0
		for _, d := range i.direct {
			binary.LittleEndian.PutUint32(tail[off:off+blockNumberSize], d)
			off += blockNumberSize
		}
		binary.LittleEndian.PutUint32(tail[off:off+blockNumberSize], i.indirect)
		off += blockNumberSize
		binary.LittleEndian.PutUint32(tail[off:off+blockNumberSize], i.indirect2)
	}
	return buf
}

func decodeInode(number uint32, buf []byte) *inode {
	i := &inode{number: number}
	i.size = binary.LittleEndian.Uint32(buf[0:4])
	i.ftype = ftype(binary.LittleEndian.Uint32(buf[4:8]))
	i.nlink = binary.LittleEndian.Uint32(buf[8:12])
	i.mode = binary.LittleEndian.Uint32(buf[12:16])

	tail := buf[inodeHeaderSize:]
	switch i.ftype {
	case ftypeSymlink:
		end := 0
		for end < len(tail) && tail[end] != 0 {
			end++
		}
		i.symlinkTarget = string(tail[:end])
	default:
		off := 0
		for d := 0; d < NDirect; d++ {
			i.direct[d] = binary.LittleEndian.Uint32(tail[off : off+blockNumberSize])
			off += blockNumberSize
		}
		i.indirect = binary.LittleEndian.Uint32(tail[off : off+blockNumberSize])
		off += blockNumberSize
		i.indirect2 = binary.LittleEndian.Uint32(tail[off : off+blockNumberSize])
	}
	return i
}

// blockCount returns ceil(size / BlockSize), the number of data blocks the
// inode's pointer tree should reach (invariant I3). It is meaningless for
// symlinks, whose size instead measures the inline target (I8).
func (i *inode) blockCount() uint32 {
	return ceilDiv(i.size, BlockSize)
}
