package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed styles/*.css templates/*.html
var embedded embed.FS

// Loader loads stylesheets and page templates by name.
type Loader interface {
	// LoadStyle returns the CSS of styles/{name}.css.
	LoadStyle(name string) (string, error)
	// LoadTemplate returns the source of templates/{name}.html.
	LoadTemplate(name string) (string, error)
}

// EmbeddedLoader serves the assets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return readAsset(embedded, "styles", name, ".css", ErrStyleNotFound)
}

func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return readAsset(embedded, "templates", name, ".html", ErrTemplateNotFound)
}

// readAsset reads dir/name+ext from fsys. A missing file maps to notFound,
// any other failure to ErrAssetRead.
func readAsset(fsys fs.FS, dir, name, ext string, notFound error) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := fs.ReadFile(fsys, dir+"/"+name+ext)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", notFound, name)
		}
		return "", fmt.Errorf("%w: %s/%s%s: %v", ErrAssetRead, dir, name, ext, err)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ Loader = (*EmbeddedLoader)(nil)
