package ports

// FileSystem abstracts the file operations used by a build.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating or truncating it.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	Exists(path string) (bool, error)

	// Remove deletes a file. Removing a missing file is not an error.
	Remove(path string) error

	// Rename moves oldPath to newPath, replacing newPath if it exists.
	Rename(oldPath, newPath string) error

	// Size returns the size of a file in bytes.
	Size(path string) (int64, error)
}
