package filesystem

import "github.com/tobimo/brackets/fs/core"

// ChangeType identifies the kind of a ChangeEvent.
type ChangeType string

const (
	// ChangeTypeChange reports that an entry's content or metadata changed.
	ChangeTypeChange ChangeType = "change"
	// ChangeTypeRename reports that an entry moved from OldPath to Path.
	ChangeTypeRename ChangeType = "rename"
	// ChangeTypeDelete reports that an entry no longer exists.
	ChangeTypeDelete ChangeType = "delete"
)

// ChangeEvent is delivered to listeners registered with OnChange.
type ChangeEvent struct {
	Type ChangeType
	Path string

	// OldPath is set for rename events.
	OldPath string

	// Entry is the affected handle, or nil when the registry held none.
	// For delete events the handle is already stale.
	Entry Entry

	// Stat is the new snapshot reported with the change, if any.
	Stat *core.Stat
}

type listener struct {
	id int
	fn func(ChangeEvent)
}

// pendingChange is an external change queued behind the write barrier.
type pendingChange struct {
	path string
	stat *core.Stat
}
