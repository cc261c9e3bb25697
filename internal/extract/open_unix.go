//go:build !windows

package extract

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/pillbox/internal/errors"
)

// openFileNoFollowRead opens path read-only, refusing a symlink as the final
// component.
func openFileNoFollowRead(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewExtraction(path, stderrors.New("cannot read from symlink"))
		}
		if stderrors.Is(err, syscall.ENOENT) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
