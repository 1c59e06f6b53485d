package markblog

import (
	"os"
	"path/filepath"
)

// FileSystem gives the Store access to the content directory.
type FileSystem interface {
	// Ensure creates the content directory. It reports whether the directory had to be created.
	Ensure() (bool, error)
	// List returns the names of the files in the content directory.
	List() ([]string, error)
	// Read returns the contents of the named file in the content directory.
	Read(name string) ([]byte, error)
}

// LocalFileSystem implements FileSystem for a directory on the local file system
type LocalFileSystem struct {
	rootDir string
}

func NewLocalFileSystem(rootDir string) *LocalFileSystem {
	return &LocalFileSystem{rootDir: rootDir}
}

// Root returns the content directory.
func (fs *LocalFileSystem) Root() string {
	return fs.rootDir
}

func (fs *LocalFileSystem) Ensure() (bool, error) {
	if _, err := os.Stat(fs.rootDir); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.MkdirAll(fs.rootDir, 0755); err != nil {
		return false, err
	}

	return true, nil
}

func (fs *LocalFileSystem) List() ([]string, error) {
	entries, err := os.ReadDir(fs.rootDir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

func (fs *LocalFileSystem) Read(name string) ([]byte, error) {
	return os.ReadFile(fs.buildPath(name))
}

func (fs *LocalFileSystem) buildPath(name string) string {
	return filepath.Join(fs.rootDir, name)
}
