package assets

import (
	"fmt"
	"strings"
)

// Built-in asset names.
const (
	DefaultStyleName = "default"
	PreviewTemplate  = "preview"
	ExportTemplate   = "export"
)

// ValidateAssetName rejects names that could address anything but a single
// file in the asset directory: empty names and names holding separators or
// dots.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
