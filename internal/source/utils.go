package source

import (
	"bytes"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	crlf    = []byte("\r\n")
)

// normalize strips a UTF-8 BOM and turns CRLF into LF. A lone \r is kept.
// The returned flags tell which of the two happened.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if trimmed, ok := bytes.CutPrefix(content, utf8BOM); ok {
		content = trimmed
		flags |= FileHadBOM
	}
	if bytes.Contains(content, crlf) {
		content = bytes.ReplaceAll(content, crlf, []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// buildLineIndex records the byte offset of every '\n' in content.
func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte("\n")))
	for base := 0; ; {
		i := bytes.IndexByte(content[base:], '\n')
		if i < 0 {
			return out
		}
		off, err := safecast.Conv[uint32](base + i)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		out = append(out, off)
		base += i + 1
	}
}

// pathKey is the FileSet index key for p.
func pathKey(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
