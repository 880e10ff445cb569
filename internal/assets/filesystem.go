package assets

import (
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemLoader loads assets from a directory on disk. The directory is
// opened as an os.Root, so symlinks cannot lead reads outside of it.
type FilesystemLoader struct {
	basePath string
	root     *os.Root
}

// NewFilesystemLoader opens basePath.
// Returns ErrInvalidBasePath if the path is not a readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	return &FilesystemLoader{basePath: absPath, root: root}, nil
}

// BasePath returns the absolute directory the loader reads from.
func (f *FilesystemLoader) BasePath() string {
	return f.basePath
}

func (f *FilesystemLoader) LoadStyle(name string) (string, error) {
	return readAsset(f.root.FS(), "styles", name, ".css", ErrStyleNotFound)
}

func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	return readAsset(f.root.FS(), "templates", name, ".html", ErrTemplateNotFound)
}

// Close releases the directory handle.
func (f *FilesystemLoader) Close() error {
	return f.root.Close()
}

// Compile-time interface check.
var _ Loader = (*FilesystemLoader)(nil)
