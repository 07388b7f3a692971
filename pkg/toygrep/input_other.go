//go:build !unix

package toygrep

import (
	"io"
	"os"
)

// mapFile reads the file into memory on platforms without mmap support.
func mapFile(f *os.File, size int64) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}

	return data, nil, nil
}
