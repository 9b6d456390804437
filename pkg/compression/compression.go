// Package compression implements the DEFLATE wrapping used for archived
// historical manifests (spec §6, "<metadata-dir>/archive/sN-sync.json.<compression>").
package compression

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// defaultCompressionLevel is the default compression level used for
// archived manifests; small text files don't warrant the time cost of
// flate.BestCompression.
const defaultCompressionLevel = 6

// Extension is the filename suffix archived manifests carry, matching the
// format NewCompressingWriter/NewDecompressingReader implement.
const Extension = "flate"

// finalEmptyBlock is a byte-aligned, empty, final stored DEFLATE block. A
// stream that ends right after a flush (as NewCompressingWriter's output
// does) lacks a final block; appending this one lets it read to a clean
// io.EOF. A stream that already ends in a final block never reaches it.
var finalEmptyBlock = []byte{0x01, 0x00, 0x00, 0xff, 0xff}

// NewDecompressingReader wraps source in a DEFLATE decompressor.
func NewDecompressingReader(source io.Reader) io.Reader {
	// flate.NewReader returns an io.ReadCloser, but its Close only checks
	// for stream errors already surfaced through Read; callers don't need
	// to call it separately.
	return flate.NewReader(io.MultiReader(source, bytes.NewReader(finalEmptyBlock)))
}

// automaticallyFlushingFlateWriter wraps a flate.Writer, flushing after
// every Write so a caller that writes once and walks away (as an archiver
// does) still produces a fully readable stream without an explicit Close.
type automaticallyFlushingFlateWriter struct {
	compressor *flate.Writer
}

// Write implements io.Writer.
func (w *automaticallyFlushingFlateWriter) Write(buffer []byte) (int, error) {
	count, err := w.compressor.Write(buffer)
	if err != nil {
		return count, err
	} else if err = w.compressor.Flush(); err != nil {
		return 0, fmt.Errorf("unable to flush compressor: %w", err)
	}
	return count, nil
}

// NewCompressingWriter wraps destination in a DEFLATE compressor.
func NewCompressingWriter(destination io.Writer) io.Writer {
	// defaultCompressionLevel is a valid level, so construction cannot fail.
	compressor, _ := flate.NewWriter(destination, defaultCompressionLevel)
	return &automaticallyFlushingFlateWriter{compressor}
}
