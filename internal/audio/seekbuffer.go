package audio

import (
	"errors"
	"io"
)

var errNegativeOffset = errors.New("seek to negative offset")

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder rewrites its header after streaming.
type seekBuffer struct {
	buf []byte
	pos int
}

func newSeekBuffer(capacity int) *seekBuffer {
	return &seekBuffer{buf: make([]byte, 0, capacity)}
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.buf) {
		if end > cap(b.buf) {
			grown := make([]byte, len(b.buf), max(end, 2*cap(b.buf)))
			copy(grown, b.buf)
			b.buf = grown
		}
		b.buf = b.buf[:end]
	}

	copy(b.buf[b.pos:], p)
	b.pos = end

	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}

	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte {
	return b.buf
}
