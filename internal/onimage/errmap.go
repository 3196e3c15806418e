package onimage

import "syscall"

// Errno maps an error returned from this package's Engine methods to the
// POSIX errno constant a namespace op surfaces to its caller. Unrecognized
// errors (including anything that isn't one of this package's own error
// values) map to EIO, never to a zero value.
func Errno(err error) syscall.Errno {
	me, ok := err.(*mutatorError)
	if !ok {
		return syscall.EIO
	}
	switch me.Code {
	case ENOENT:
		return syscall.ENOENT
	case EEXIST:
		return syscall.EEXIST
	case EISDIR:
		return syscall.EISDIR
	case ENOSPC:
		return syscall.ENOSPC
	case ENAMETOOLONG:
		return syscall.ENAMETOOLONG
	case EALREADY:
		return syscall.EALREADY
	default:
		return syscall.EIO
	}
}
