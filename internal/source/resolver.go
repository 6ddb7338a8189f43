package source

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultContextLines is the number of lines kept on each side of the active line.
const DefaultContextLines = 7

// ErrNoSource is returned by loaders that do not know a module or file.
var ErrNoSource = errors.New("source not available")

// Loader supplies source text for a module before the filesystem is tried.
// Any error makes the resolver fall back to reading file from disk.
type Loader interface {
	Source(module, file string) (string, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(module, file string) (string, error)

func (f LoaderFunc) Source(module, file string) (string, error) {
	return f(module, file)
}

// MapLoader serves in-memory sources keyed by "module/basename".
type MapLoader map[string]string

func (m MapLoader) Source(module, file string) (string, error) {
	if text, ok := m[path.Join(module, filepath.Base(file))]; ok {
		return text, nil
	}
	return "", ErrNoSource
}

// FSLoader reads sources from an fs.FS, typically an embed.FS shipped with
// the binary. File paths are made relative to Root before lookup.
type FSLoader struct {
	FS   fs.FS
	Root string
}

func (l FSLoader) Source(_, file string) (string, error) {
	if l.FS == nil {
		return "", ErrNoSource
	}
	name := filepath.ToSlash(file)
	if l.Root != "" {
		rel, err := filepath.Rel(l.Root, file)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", ErrNoSource
		}
		name = filepath.ToSlash(rel)
	}
	data, err := fs.ReadFile(l.FS, strings.TrimPrefix(name, "/"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type parsedFile struct {
	fset *token.FileSet
	file *ast.File
}

// Resolver turns (file, module, line) triples into windows of source text.
// Loaded files and parsed syntax trees are cached; it is safe for concurrent use.
type Resolver struct {
	loader       Loader
	contextLines int
	files        *FileSet

	mu     sync.Mutex
	cache  map[string]*File
	parsed map[string]*parsedFile
}

// NewResolver creates a Resolver. A negative contextLines selects DefaultContextLines.
func NewResolver(loader Loader, contextLines int) *Resolver {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	return &Resolver{
		loader:       loader,
		contextLines: contextLines,
		files:        NewFileSet(),
		cache:        make(map[string]*File),
		parsed:       make(map[string]*parsedFile),
	}
}

// ContextLines returns the configured window margin.
func (r *Resolver) ContextLines() int {
	return r.contextLines
}

// Files exposes the underlying file cache.
func (r *Resolver) Files() *FileSet {
	return r.files
}

// Resolve returns the window of source around line, or nil when neither the
// loader nor the filesystem can provide the text. When pos is set the window
// spans pos.StartLine-c .. pos.EndLine+c instead of line-c .. line+c.
// A line outside the file (source edited after the build) resolves to nil.
func (r *Resolver) Resolve(file, module string, line int, pos *Position) *Info {
	f := r.file(file, module)
	if f == nil || line < 1 || line > f.LineCount() {
		return nil
	}
	c := r.contextLines
	var first, last int
	if pos != nil {
		first = max(1, pos.StartLine-c)
		last = pos.EndLine + c
	} else {
		first = max(1, line-c)
		last = line + c
	}
	return &Info{
		FileName:    displayName(file, module),
		FirstLine:   first,
		CurrentLine: line,
		Lines:       f.Lines(first, last),
		Pos:         pos,
	}
}

func displayName(file, module string) string {
	switch {
	case file != "":
		return file
	case module != "":
		return module
	default:
		return Unknown
	}
}

func cacheKey(file, module string) string {
	return module + "\x00" + file
}

func (r *Resolver) file(file, module string) *File {
	key := cacheKey(file, module)
	r.mu.Lock()
	f, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return f
	}

	f = r.load(file, module)

	r.mu.Lock()
	r.cache[key] = f
	r.mu.Unlock()
	return f
}

func (r *Resolver) load(file, module string) *File {
	if r.loader != nil && module != "" {
		if text, err := r.fromLoader(module, file); err == nil && text != "" {
			id := r.files.AddVirtual(displayName(file, module), []byte(text))
			return r.files.Get(id)
		}
	}
	if file == "" {
		return nil
	}
	id, err := r.files.Load(file)
	if err != nil {
		return nil
	}
	return r.files.Get(id)
}

// fromLoader shields the resolver from loaders that panic.
func (r *Resolver) fromLoader(module, file string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("loader panic: %v", rec)
		}
	}()
	return r.loader.Source(module, file)
}

// SupportsExactPositions reports whether exact code positions are computed.
// Setting FAULTLINE_NODEBUGRANGES disables them; the value is read once.
var SupportsExactPositions = sync.OnceValue(func() bool {
	_, off := os.LookupEnv("FAULTLINE_NODEBUGRANGES")
	return !off
})
