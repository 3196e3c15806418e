package ext2fsal

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dargueta/ext2fsal/internal/onimage"
)

// MountOptions configures Mount.
type MountOptions struct {
	// ImagePath is the path to the ext2 image file on the host filesystem.
	// The file must already be a formatted ext2 image; this package never
	// writes a superblock from scratch.
	ImagePath string
}

// Image is a mounted ext2 image: a live memory mapping plus the mutator
// engine wired up against it. The zero value is not usable; construct one
// with Mount.
type Image struct {
	data   []byte
	engine *onimage.Engine
}

// Mount opens the image file at opts.ImagePath, memory-maps it read-write
// and shared, and wires up the mutator engine against the mapping. The
// descriptor is closed immediately afterward; the mapping keeps the kernel
// reference alive (spec §4.9).
//
// A failure to open, stat, or map the image is fatal to this call (it
// returns an error, it does not panic) — but once a mapping exists, this
// package has no recovery path for a later mmap-related fault, matching the
// "fatal condition" classification in the design notes.
func Mount(opts MountOptions) (*Image, error) {
	f, err := os.OpenFile(opts.ImagePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ext2fsal: opening image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ext2fsal: statting image: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ext2fsal: mmap: %w", err)
	}
	// The mapping holds its own reference; the descriptor isn't needed past
	// this point (spec §4.9).
	if err := f.Close(); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("ext2fsal: closing image descriptor: %w", err)
	}

	img := &Image{
		data:   data,
		engine: onimage.New(data),
	}
	return img, nil
}

// Unmount unmaps the image. Any namespace operation in flight must have
// already returned; this package provides no mid-operation cancellation.
func (img *Image) Unmount() error {
	if err := unix.Munmap(img.data); err != nil {
		return fmt.Errorf("ext2fsal: munmap: %w", err)
	}
	return nil
}

// adaptErr converts an internal engine error into the package's public
// *MutatorError, or returns nil for a nil input.
func adaptErr(err error) *MutatorError {
	if err == nil {
		return nil
	}
	return NewErrorf(onimage.Errno(err), "%s", err.Error())
}
