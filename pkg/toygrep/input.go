package toygrep

import (
	"fmt"
	"os"
)

// InputFile is a read-only view of the whole input file. The bytes are
// shared by all extractors and never written.
type InputFile struct {
	file  *os.File
	data  []byte
	path  string
	unmap func([]byte) error
}

// OpenInput opens path and maps it into memory.
func OpenInput(path string) (*InputFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenInput, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrStatInput, err)
	}

	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrOpenInput, path)
	}

	in := &InputFile{file: f, path: path}
	if info.Size() == 0 {
		return in, nil
	}

	data, unmap, err := mapFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrMapInput, err)
	}
	in.data = data
	in.unmap = unmap

	return in, nil
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (in *InputFile) Bytes() []byte {
	return in.data
}

func (in *InputFile) Size() int64 {
	return int64(len(in.data))
}

func (in *InputFile) Path() string {
	return in.path
}

// Close unmaps the view and closes the file.
func (in *InputFile) Close() error {
	var unmapErr error
	if in.unmap != nil && in.data != nil {
		unmapErr = in.unmap(in.data)
		in.data = nil
	}

	closeErr := in.file.Close()
	if unmapErr != nil {
		return fmt.Errorf("unmap %s: %w", in.path, unmapErr)
	}

	return closeErr
}
