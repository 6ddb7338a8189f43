package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet caches source files read while walking stacks.
// It is safe for concurrent use.
type FileSet struct {
	mu    sync.RWMutex
	files []File
	index map[string]FileID // path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores content under path and returns its FileID. Content must already
// be normalized. Every call creates a new version; lookups by path see the
// latest one.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	file := File{
		Path:    pathKey(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}

	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	file.ID = FileID(n)
	fileSet.files = append(fileSet.files, file)
	fileSet.index[file.Path] = file.ID
	return file.ID
}

// Load reads path from disk.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from runtime frame information
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.add(path, content, 0), nil
}

// AddVirtual adds source text that did not come from disk (a loader, embed, test).
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.add(name, content, FileVirtual)
}

func (fileSet *FileSet) add(path string, content []byte, flags FileFlags) FileID {
	content, normalized := normalize(content)
	return fileSet.Add(path, content, flags|normalized)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	f := fileSet.files[id]
	return &f
}

// GetByPath returns the latest version of a file loaded under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if id, ok := fileSet.index[pathKey(path)]; ok {
		f := fileSet.files[id]
		return &f, true
	}
	return nil, false
}

// Len returns the number of stored file versions.
func (fileSet *FileSet) Len() int {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return len(fileSet.files)
}

// LineCount returns the number of lines in the file.
// A trailing newline does not open a new line.
func (f *File) LineCount() int {
	if len(f.Content) == 0 {
		return 0
	}
	n := len(f.LineIdx)
	if f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// GetLine возвращает строку с заданным номером (1-based) без перевода строки.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	n, err := safecast.Conv[int](lineNum)
	if err != nil {
		return ""
	}
	return f.line(n)
}

func (f *File) line(n int) string {
	if n < 1 || n > f.LineCount() {
		return ""
	}
	start, end := 0, len(f.Content)
	if n > 1 {
		start = int(f.LineIdx[n-2]) + 1
	}
	if n <= len(f.LineIdx) {
		end = int(f.LineIdx[n-1])
	}
	return string(f.Content[start:end])
}

// Lines returns lines first..last (1-based, inclusive), clipped to the file.
func (f *File) Lines(first, last int) []string {
	first = max(first, 1)
	last = min(last, f.LineCount())
	if last < first {
		return []string{}
	}
	out := make([]string, 0, last-first+1)
	for n := first; n <= last; n++ {
		out = append(out, f.line(n))
	}
	return out
}
