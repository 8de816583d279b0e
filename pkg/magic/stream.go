package magic

import (
	"bufio"
	"io"
	"math"
)

// maxConsecutiveEmptyReads bounds how often a reader may return (0, nil)
// before ReadByte gives up with io.ErrNoProgress.
const maxConsecutiveEmptyReads = 100

// Stream is the forward-only byte source a Matcher consumes.
//
// Skip is best effort: it returns how many bytes were actually skipped, and
// 0 is a legal result meaning the stream cannot skip right now. Callers make
// up any shortfall with ReadByte. Reaching the end of the stream while
// skipping is reported as a short skip, not as an error.
type Stream interface {
	io.Reader
	io.ByteReader
	Skip(n int64) (int64, error)
}

// NewStream adapts r to a Stream without reading ahead of the caller, so a
// detection never consumes more of r than it inspects.
func NewStream(r io.Reader) Stream {
	switch v := r.(type) {
	case Stream:
		return v
	case *bufio.Reader:
		return bufioStream{v}
	}

	s := &readerStream{r: r}
	if br, ok := r.(io.ByteReader); ok {
		s.br = br
	}
	return s
}

// readerStream wraps a plain io.Reader. Skipping copies into io.Discard.
type readerStream struct {
	r   io.Reader
	br  io.ByteReader
	one [1]byte
}

func (s *readerStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *readerStream) ReadByte() (byte, error) {
	if s.br != nil {
		return s.br.ReadByte()
	}
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := s.r.Read(s.one[:])
		if n == 1 {
			return s.one[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}

func (s *readerStream) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	skipped, err := io.CopyN(io.Discard, s.r, n)
	if err == io.EOF {
		err = nil
	}
	return skipped, err
}

// bufioStream skips through the reader's buffer with Discard.
type bufioStream struct {
	*bufio.Reader
}

func (s bufioStream) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if n > math.MaxInt {
		n = math.MaxInt
	}
	skipped, err := s.Discard(int(n))
	if err == io.EOF {
		err = nil
	}
	return int64(skipped), err
}
