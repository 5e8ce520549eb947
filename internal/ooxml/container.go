package ooxml

import (
	"archive/zip"
	"compress/flate"
	"io"
)

// Storage is the write side of the ZIP container adapter: implementations
// place one named part (its OOXML-package-relative path) at a time, letting
// the writer target either a real .xlsx ZIP or a plain directory for
// debugging.
type Storage interface {
	WritePart(path string, data []byte) error
}

// ZipStorage writes every part into a single ZIP archive, the actual
// .xlsx container format.
type ZipStorage struct {
	zw *zip.Writer
	level int
}

// NewZipStorage opens a ZIP writer over w. A non-zero level is the deflate
// compression level used for every part; 0 stores every part uncompressed.
func NewZipStorage(w io.Writer, level int) *ZipStorage {
	zw := zip.NewWriter(w)
	if level != 0 {
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}
	return &ZipStorage{zw: zw, level: level}
}

// WritePart adds one named entry to the archive, using the store method
// for level 0 (matching how Excel itself stores [Content_Types].xml
// uncompressed-ish small parts) and deflate otherwise.
func (z *ZipStorage) WritePart(path string, data []byte) error {
	method := zip.Deflate
	if z.level == 0 {
		method = zip.Store
	}
	fw, err := z.zw.CreateHeader(&zip.FileHeader{Name: path, Method: method})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

// Close finalizes the archive. Must be called after every part is written;
// an unclosed ZipStorage produces a truncated, unreadable.xlsx file.
func (z *ZipStorage) Close() error { return z.zw.Close() }

// Reader is the read side: a ZIP archive opened for random access to its
// named parts.
type Reader struct {
	zr *zip.Reader
}

// OpenReader wraps an already-opened ZIP reader (e.g. from zip.NewReader
// over a ReaderAt/io.ReaderAt-backed file or in-memory buffer).
func OpenReader(zr *zip.Reader) *Reader { return &Reader{zr: zr} }

// ReadPart returns the named part's bytes, or an error if absent.
func (r *Reader) ReadPart(path string) ([]byte, error) {
	for _, f := range r.zr.File {
		if f.Name == path {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, &PartNotFoundError{Path: path}
}

// Parts lists every part name present in the archive.
func (r *Reader) Parts() []string {
	out := make([]string, len(r.zr.File))
	for i, f := range r.zr.File {
		out[i] = f.Name
	}
	return out
}

// PartNotFoundError reports a missing required OOXML part.
type PartNotFoundError struct{ Path string }

func (e *PartNotFoundError) Error() string { return "ooxml: part not found: " + e.Path }
