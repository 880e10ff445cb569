package assets

import (
	"errors"
	"fmt"
	"os"

	"github.com/alnah/go-mdlive/internal/fileutil"
)

// Resolver combines a custom directory with the embedded assets.
// Custom assets take precedence; only "not found" falls back.
type Resolver struct {
	custom   *FilesystemLoader // nil if no custom path configured
	embedded Loader
}

// NewResolver creates a Resolver. An empty customBasePath uses the embedded
// assets only; a non-empty one must be a readable directory.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}
	if customBasePath == "" {
		return r, nil
	}

	fsLoader, err := NewFilesystemLoader(customBasePath)
	if err != nil {
		return nil, err
	}
	r.custom = fsLoader
	return r, nil
}

func (r *Resolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(Loader.LoadStyle, name)
}

func (r *Resolver) LoadTemplate(name string) (string, error) {
	return r.loadWithFallback(Loader.LoadTemplate, name)
}

// ResolveStyle turns a --style value into CSS. The value may be empty (the
// default style), a path to a CSS file, inline CSS, or a style name.
func (r *Resolver) ResolveStyle(value string) (string, error) {
	switch {
	case value == "":
		return r.LoadStyle(DefaultStyleName)
	case fileutil.IsFilePath(value):
		content, err := os.ReadFile(value) // #nosec G304 -- user-provided path
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrStyleNotFound, value)
			}
			return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
		return string(content), nil
	case fileutil.IsCSS(value):
		return value, nil
	default:
		return r.LoadStyle(value)
	}
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Close releases the custom directory handle, if any.
func (r *Resolver) Close() error {
	if r.custom == nil {
		return nil
	}
	return r.custom.Close()
}

func (r *Resolver) loadWithFallback(load func(Loader, string) (string, error), name string) (string, error) {
	if r.custom == nil {
		return load(r.embedded, name)
	}

	content, err := load(r.custom, name)
	if err == nil {
		return content, nil
	}
	if !isNotFoundError(err) {
		return "", err
	}
	return load(r.embedded, name)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrStyleNotFound) || errors.Is(err, ErrTemplateNotFound)
}

// Compile-time interface check.
var _ Loader = (*Resolver)(nil)
