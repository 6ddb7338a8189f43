package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (loader, test, embed).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
)

// Unknown is the file name reported for frames whose file cannot be named.
const Unknown = "unknown"

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// Anchor narrows a caret to the most relevant sub-expression of a Position.
// Left and Right are absolute 0-based byte columns on the start line.
type Anchor struct {
	Left  int
	Right int
}

// Position is the exact sub-line span of the code a frame was executing.
// Lines are 1-based, columns are 0-based byte offsets, End is exclusive.
type Position struct {
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
	Anchor    *Anchor
}

// Info is a window of source lines around a frame's active line.
type Info struct {
	FileName    string
	FirstLine   int
	CurrentLine int
	Lines       []string
	Pos         *Position
}
