package scan

import (
	"bufio"
	"io"
	"iter"
	"os"
	"strings"
)

// maxLineLen is the longest line the reader accepts.
const maxLineLen = 4 << 20

// LineReader yields the lines of a reader without their terminators.
type LineReader struct {
	sc  *bufio.Scanner
	err error
}

// NewLineReader creates a LineReader. Both "\n" and "\r\n" end a line.
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLen)
	return &LineReader{sc: sc}
}

// Lines returns a single-use sequence of lines. Check Err once it is done.
func (lr *LineReader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for lr.sc.Scan() {
			if !yield(strings.TrimSuffix(lr.sc.Text(), "\r")) {
				return
			}
		}
		lr.err = lr.sc.Err()
	}
}

// Err returns the first read error.
func (lr *LineReader) Err() error {
	return lr.err
}

// Open opens path for reading, or returns stdin for Stdin. The returned
// closer is a no-op for stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
