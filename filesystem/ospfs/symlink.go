package ospfs

import (
	"fmt"
	"strings"
)

// conditionalPrefix marks a symlink target whose resolved path depends on
// the resolving caller's effective UID (spec.md §4.6): a target of the form
// "root?<path-if-uid-0>:<path-otherwise>".
const conditionalPrefix = "root?"

// symlink creates a new symlink inode named name in dir pointing at target.
// target is stored verbatim, conditional or not; only followLink interprets
// the "root?a:b" grammar.
func (fs *FileSystem) symlink(dir *inode, name, target string) (*inode, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if len(target) > MaxSymlinkLen {
		return nil, fmt.Errorf("symlink target %q exceeds %d bytes: %w", target, MaxSymlinkLen, ErrNameTooLong)
	}
	if _, _, found, err := fs.findDirEntry(dir, name); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("%q: %w", name, ErrExists)
	}

	slot, err := fs.createBlankDirEntry(dir)
	if err != nil {
		return nil, err
	}

	ino, err := fs.allocInode()
	if err != nil {
		return nil, err
	}
	ino.ftype = ftypeSymlink
	ino.nlink = 1
	ino.mode = 0777
	ino.size = uint32(len(target))
	ino.symlinkTarget = target
	if err := fs.writeInode(ino); err != nil {
		return nil, err
	}

	if err := fs.writeDirentSlot(dir, slot, dirent{ino: ino.number, name: name}); err != nil {
		return nil, err
	}
	return ino, nil
}

// followLink resolves a symlink inode's stored target into the path a
// resolver should continue walking, applying the conditional grammar
// (spec.md §4.6): "root?<path-if-uid-0>:<path-otherwise>" selects on the
// caller's effective UID; anything else is an ordinary literal target.
func followLink(i *inode, caller Caller) (string, error) {
	if i.ftype != ftypeSymlink {
		return "", fmt.Errorf("inode %d is not a symlink: %w", i.number, ErrBadAddress)
	}
	target := i.symlinkTarget
	if !strings.HasPrefix(target, conditionalPrefix) {
		return target, nil
	}

	rest := target[len(conditionalPrefix):]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		// Malformed conditional target: no ':' separator. Treat the whole
		// thing as a literal path rather than failing resolution.
		return target, nil
	}
	ifRoot := rest[:colon]
	ifNotRoot := rest[colon+1:]
	if caller.IsRoot() {
		return ifRoot, nil
	}
	return ifNotRoot, nil
}
