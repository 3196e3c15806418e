package onimage

import (
	"strings"

	"github.com/dargueta/ext2fsal/internal/layout"
)

const pathMax = 4096

// Resolve walks an absolute path to the inode number it names, honestly —
// every ".." is resolved via the current directory's own ".." entry rather
// than being shortcut straight to the root, per spec §4.6 and §9 (one
// observed source variant snapped ".." to root directly, which is wrong in
// the general case once a directory has been moved or hard-linked oddly;
// this module always walks).
func (e *Engine) Resolve(path string) (uint32, *mutatorError) {
	if len(path) == 0 || path[0] != '/' {
		return 0, errNotFound("path must be absolute")
	}
	if len(path) > pathMax {
		return 0, errNameTooLong("path exceeds maximum length")
	}
	if path == "/" {
		return layout.RootInodeNum, nil
	}

	current := uint32(layout.RootInodeNum)
	for _, token := range strings.Split(path, "/") {
		if token == "" || token == "." {
			continue
		}
		if len(token) > layout.MaxNameLength {
			return 0, errNameTooLong("path component too long: " + token)
		}

		in := e.ReadInode(current)
		if !in.IsDir() {
			return 0, errNotFound("not a directory: component before " + token)
		}

		child, found := e.FindEntry(current, token)
		if !found {
			return 0, errNotFound("no such file or directory: " + token)
		}
		current = child
	}
	return current, nil
}

// SplitParentName splits an absolute path into its parent directory path
// and final component name, per spec §4.6. Trailing slashes are stripped
// before splitting (preserving a lone "/"); the root path itself can't be
// split, and an empty or over-long name is rejected.
func SplitParentName(path string) (parent, name string, err *mutatorError) {
	if len(path) == 0 || path[0] != '/' {
		return "", "", errNotFound("path must be absolute")
	}

	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		// path was "/" or "////" etc.
		return "", "", errIsDirectory("root path has no parent")
	}

	idx := strings.LastIndexByte(trimmed, '/')
	name = trimmed[idx+1:]
	if idx == 0 {
		parent = "/"
	} else {
		parent = trimmed[:idx]
	}

	if name == "" {
		return "", "", errNotFound("empty path component")
	}
	if len(name) > layout.MaxNameLength {
		return "", "", errNameTooLong("component name too long: " + name)
	}
	if name == "." || name == ".." {
		return "", "", errExists("cannot create an entry named . or ..")
	}
	return parent, name, nil
}

// HadTrailingSlash reports whether the original (untrimmed) path ended in a
// "/" other than the root itself — namespace ops use this to distinguish
// "/foo" from "/foo/", which matters for ENOENT-vs-EEXIST decisions on a
// non-directory target.
func HadTrailingSlash(path string) bool {
	return len(path) > 1 && strings.HasSuffix(path, "/")
}
