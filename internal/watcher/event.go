package watcher

import "fmt"

// EventKind is the type of change observed for a file.
type EventKind int

const (
	// FileAdded indicates a file appeared.
	FileAdded EventKind = iota

	// FileChanged indicates a file's contents were written.
	FileChanged

	// FileDeleted indicates a file was removed or renamed away.
	FileDeleted
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	switch k {
	case FileAdded:
		return "added"
	case FileChanged:
		return "changed"
	case FileDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a change to one file. Path is project-relative and slash separated.
type Event struct {
	Path string
	Kind EventKind
}

// Merge folds a later event kind into a pending one for the same path.
// The later kind wins, except that a delete followed by an add is a change.
func Merge(pending, next EventKind) EventKind {
	if pending == FileDeleted && next == FileAdded {
		return FileChanged
	}
	if pending == FileAdded && next == FileChanged {
		return FileAdded
	}
	return next
}
