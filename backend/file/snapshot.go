package file

import (
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
	times "gopkg.in/djherbis/times.v1"
)

// Codec selects the on-disk framing used by Snapshot/Restore. None of these
// are a durability mechanism - they are an offline export/import format for
// tooling and tests, distinct from the in-memory arena's lack of crash
// consistency.
type Codec int

const (
	// CodecRaw writes the arena bytes with no framing.
	CodecRaw Codec = iota
	// CodecLZ4 frames the arena with LZ4 block compression, favoring speed.
	CodecLZ4
	// CodecXZ frames the arena with XZ compression, favoring ratio over speed.
	CodecXZ
)

// Snapshot writes the contents of buf to the file at path using the given
// codec, creating or truncating it. It never mutates buf.
func Snapshot(path string, buf []byte, codec Codec) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not create snapshot %s: %w", path, err)
	}
	defer f.Close()

	switch codec {
	case CodecRaw:
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("writing raw snapshot: %w", err)
		}
	case CodecLZ4:
		w := lz4.NewWriter(f)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("writing lz4 snapshot: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("closing lz4 snapshot: %w", err)
		}
	case CodecXZ:
		w, err := xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("initializing xz writer: %w", err)
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("writing xz snapshot: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("closing xz snapshot: %w", err)
		}
	default:
		return fmt.Errorf("unknown snapshot codec %d", codec)
	}
	return nil
}

// Restore reads a snapshot previously written by Snapshot back into a byte
// slice of exactly arenaSize bytes. If the decoded content is shorter than
// arenaSize, the remainder stays zero-filled; longer is an error.
func Restore(path string, arenaSize int64, codec Codec, log logrus.FieldLogger) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot %s: %w", path, err)
	}
	defer f.Close()

	if log != nil {
		if t, err := times.Stat(path); err == nil {
			entry := log.WithField("path", path)
			if t.HasBirthTime() {
				entry = entry.WithField("birthtime", t.BirthTime())
			}
			entry.WithField("changetime", t.ChangeTime()).Debug("restoring ospfs snapshot")
		}
	}

	var r io.Reader
	switch codec {
	case CodecRaw:
		r = f
	case CodecLZ4:
		r = lz4.NewReader(f)
	case CodecXZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("initializing xz reader: %w", err)
		}
		r = xr
	default:
		return nil, fmt.Errorf("unknown snapshot codec %d", codec)
	}

	buf := make([]byte, arenaSize)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == io.ErrUnexpectedEOF || err == io.EOF:
		// shorter than arenaSize is fine, rest stays zero
	case err != nil:
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	default:
		// check there isn't more data left over than arenaSize allows
		var extra [1]byte
		if m, _ := r.Read(extra[:]); m > 0 {
			return nil, fmt.Errorf("snapshot %s is larger than arena size %d", path, arenaSize)
		}
	}
	_ = n
	return buf, nil
}
