package build

import (
	"bytes"
	"io"
	"os"

	"github.com/dictcol/dictcol/internal/pool"
)

// chunkReader stages a file's raw bytes in a pooled pool.ByteBuffer and
// splits them into lines on demand, growing the buffer for lines longer
// than one fill and compacting already-consumed bytes out of the way
// before refilling.
type chunkReader struct {
	f    *os.File
	buf  *pool.ByteBuffer
	pos  int
	eof  bool
	rerr error // non-EOF read error, sticky once set
}

func newChunkReader(f *os.File) *chunkReader {
	return &chunkReader{f: f, buf: pool.GetChunkBuffer()}
}

// release returns the staging buffer to the chunk pool. Call once the
// chunkReader is no longer needed.
func (cr *chunkReader) release() {
	pool.PutChunkBuffer(cr.buf)
}

// fill compacts any unconsumed bytes to the front of buf and reads more
// from f. It returns false once f is exhausted, or failed, and nothing new
// was read; a failure is recorded in cr.rerr for readLine to surface.
func (cr *chunkReader) fill() bool {
	if cr.eof || cr.rerr != nil {
		return false
	}

	if cr.pos > 0 {
		remaining := copy(cr.buf.B, cr.buf.B[cr.pos:])
		cr.buf.SetLength(remaining)
		cr.pos = 0
	}

	start := cr.buf.Len()
	cr.buf.ExtendOrGrow(pool.ChunkBufferDefaultSize)
	n, err := cr.f.Read(cr.buf.B[start:])
	cr.buf.SetLength(start + n)

	switch {
	case err == io.EOF:
		cr.eof = true
	case err != nil:
		cr.rerr = err
	}

	return n > 0
}

// readLine returns the next line with its terminating newline (and any
// preceding \r) stripped, and the number of raw bytes it consumed from the
// file including that terminator. A trailing line with no final newline is
// returned once at EOF; io.EOF is returned once there is nothing left, and
// a read failure from the underlying file is returned as-is.
func (cr *chunkReader) readLine() (line string, consumed int, err error) {
	for {
		if idx := bytes.IndexByte(cr.buf.B[cr.pos:], '\n'); idx >= 0 {
			raw := cr.buf.B[cr.pos : cr.pos+idx]
			raw = bytes.TrimSuffix(raw, []byte("\r"))
			s := string(raw)
			cr.pos += idx + 1

			return s, idx + 1, nil
		}

		if !cr.fill() {
			if cr.pos < cr.buf.Len() {
				raw := cr.buf.B[cr.pos:]
				raw = bytes.TrimSuffix(raw, []byte("\r"))
				s := string(raw)
				n := cr.buf.Len() - cr.pos
				cr.pos = cr.buf.Len()

				return s, n, nil
			}

			if cr.rerr != nil {
				return "", 0, cr.rerr
			}

			return "", 0, io.EOF
		}
	}
}
