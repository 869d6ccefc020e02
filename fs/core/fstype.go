package core

// FSType represents the underlying type of storage implementation.
type FSType int

const (
	// FSTypeUnknown indicates the storage type is unknown or unspecified.
	FSTypeUnknown FSType = iota
	// FSTypeLocal indicates a local, disk-backed storage.
	FSTypeLocal
	// FSTypeMemory indicates an in-memory storage.
	FSTypeMemory
	// FSTypeRemote indicates a remote storage (e.g., S3, cloud storage).
	FSTypeRemote
)

// String returns a string representation of the FSType.
func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ParseFSType is the inverse of FSType.String. Unknown names map to
// FSTypeUnknown.
func ParseFSType(name string) FSType {
	switch name {
	case "local":
		return FSTypeLocal
	case "memory":
		return FSTypeMemory
	case "remote":
		return FSTypeRemote
	default:
		return FSTypeUnknown
	}
}
