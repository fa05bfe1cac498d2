package ospfs

import (
	"bufio"
	"bytes"

	"github.com/sirupsen/logrus"
)

// replayJournal is the diagnostic hook described in spec.md §6: it reads
// whatever bytes sit at JournalIno as a textual log and writes them to the
// supplied logger, one Info call per line. There is no write path that ever
// populates JournalIno - nothing in this package journals anything - so on
// a freshly made image this is always a no-op. It exists only so tooling
// that wants to leave a trail behind has somewhere fixed to put it, and so
// that trail surfaces somewhere other than silence.
func (fs *FileSystem) replayJournal(log logrus.FieldLogger) {
	if log == nil {
		log = fs.log
	}

	ino, err := fs.readInode(JournalIno)
	if err != nil {
		log.WithError(err).Debug("no journal inode present")
		return
	}
	if ino.isFree() || ino.size == 0 {
		log.Debug("journal inode empty; nothing to replay")
		return
	}

	buf := make([]byte, ino.size)
	if _, err := fs.copyOut(ino, 0, buf); err != nil {
		log.WithError(err).Warn("failed reading journal inode")
		return
	}

	scanner := bufio.NewScanner(bytes.NewReader(buf))
	for scanner.Scan() {
		log.Info(scanner.Text())
	}
}
