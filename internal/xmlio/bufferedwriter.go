// Package xmlio implements a streaming worksheet XML reader/writer.
package xmlio

import (
	"bytes"
	"io"
	"os"
)

// bufferedWriter uses a temp file to back an extended in-memory buffer once
// the buffer grows past chunk bytes: writes to the in-memory buffer always
// succeed, and Sync periodically spills to disk so worksheet generation
// does not hold the entire XML blob in RAM for very large sheets.
type bufferedWriter struct {
	tmp *os.File
	buf bytes.Buffer
}

const spillChunk = 1 << 24 // 16 MiB

func (bw *bufferedWriter) Write(p []byte) (int, error) { return bw.buf.Write(p) }

func (bw *bufferedWriter) WriteString(s string) (int, error) { return bw.buf.WriteString(s) }

// Reader exposes read access to whatever has been written so far, flushing
// to the temp file first if one is in use.
func (bw *bufferedWriter) Reader() (io.Reader, error) {
	if bw.tmp == nil {
		return bytes.NewReader(bw.buf.Bytes()), nil
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	fi, err := bw.tmp.Stat()
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(bw.tmp, 0, fi.Size()), nil
}

// Bytes returns the entire written content.
func (bw *bufferedWriter) Bytes() ([]byte, error) {
	if bw.tmp == nil {
		return bw.buf.Bytes(), nil
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if fi, err := bw.tmp.Stat(); err == nil {
		if size := fi.Size() + bytes.MinRead; size > bytes.MinRead && int64(int(size)) == size {
			out.Grow(int(size))
		}
	}
	if _, err := bw.tmp.Seek(0, 0); err != nil {
		return nil, err
	}
	_, err := out.ReadFrom(bw.tmp)
	return out.Bytes(), err
}

// Sync spills the in-memory buffer to a temp file once it has grown past
// spillChunk. Errors opening the temp file are swallowed: falling back to
// pure in-memory buffering is always a valid (if more memory-hungry) choice.
func (bw *bufferedWriter) Sync() error {
	if bw.buf.Len() < spillChunk {
		return nil
	}
	if bw.tmp == nil {
		f, err := os.CreateTemp(os.TempDir(), "xlcore-")
		if err != nil {
			return nil
		}
		bw.tmp = f
	}
	return bw.Flush()
}

// Flush writes the entire in-memory buffer to the temp file, if one exists.
func (bw *bufferedWriter) Flush() error {
	if bw.tmp == nil {
		return nil
	}
	if _, err := bw.buf.WriteTo(bw.tmp); err != nil {
		return err
	}
	bw.buf.Reset()
	return nil
}

// Close releases the temp file, if any.
func (bw *bufferedWriter) Close() error {
	bw.buf.Reset()
	if bw.tmp == nil {
		return nil
	}
	defer os.Remove(bw.tmp.Name())
	return bw.tmp.Close()
}
