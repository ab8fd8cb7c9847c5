// File: pkg/combine/binary.go
package combine

import (
	"io"
	"os"

	"gitlab.com/tozd/go/errors"
)

// ChunkSize is the default read size used when sniffing for binary content.
const ChunkSize = 8192

// IsBinary reports whether the file at path contains any byte above 127.
// The file is read in chunks of chunkSize bytes and reading stops at the first
// such byte. A path that does not exist is reported as not binary so the caller's
// subsequent read surfaces the real error.
func IsBinary(path string, chunkSize int) (bool, error) {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	defer file.Close()

	return containsHighByte(file, chunkSize)
}

// containsHighByte reads r in chunkSize reads and stops at the first chunk
// holding a byte above 127.
func containsHighByte(r io.Reader, chunkSize int) (bool, error) {
	buffer := make([]byte, chunkSize)
	for {
		n, err := r.Read(buffer)
		for _, b := range buffer[:n] {
			if b > 127 {
				return true, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, errors.WithStack(err)
		}
	}
}
