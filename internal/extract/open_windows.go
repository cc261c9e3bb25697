//go:build windows

package extract

import (
	"os"

	"github.com/hpungsan/pillbox/internal/errors"
)

// openFileNoFollowRead opens path read-only. Windows has no O_NOFOLLOW.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
