package data

import (
	"io"
	"math/rand"
)

// shuffleBuffer keeps up to size records and emits a uniformly chosen one,
// refilling from src before every draw. With size >= len(src) this is a full
// shuffle; smaller buffers only mix records that are close in the file.
type shuffleBuffer struct {
	src     func() ([]string, error)
	size    int
	rng     *rand.Rand
	buf     [][]string
	drained bool
}

func newShuffleBuffer(src func() ([]string, error), size int, rng *rand.Rand) *shuffleBuffer {
	initial := size
	if initial > parseChunk {
		initial = parseChunk
	}
	return &shuffleBuffer{
		src:  src,
		size: size,
		rng:  rng,
		buf:  make([][]string, 0, initial),
	}
}

func (s *shuffleBuffer) Next() ([]string, error) {
	for !s.drained && len(s.buf) < s.size {
		record, err := s.src()
		if err == io.EOF {
			s.drained = true
			break
		}
		if err != nil {
			return nil, err
		}
		s.buf = append(s.buf, record)
	}

	if len(s.buf) == 0 {
		return nil, io.EOF
	}

	i := s.rng.Intn(len(s.buf))
	record := s.buf[i]
	last := len(s.buf) - 1
	s.buf[i] = s.buf[last]
	s.buf[last] = nil
	s.buf = s.buf[:last]
	return record, nil
}
