// Package assets provides the stylesheet and HTML page templates of the
// live preview.
//
// # Loaders
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - go:embed copies of styles/ and templates/
//	    ├── FilesystemLoader  - a user directory opened as an os.Root
//	    └── Resolver          - custom directory first, embedded fallback
//
// A custom directory mirrors the embedded layout:
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    ├── preview.html
//	    └── export.html
//
// Only missing assets fall back to the embedded copies; a custom file that
// exists but cannot be read is an error.
//
// # Templates
//
// preview.html and export.html are html/template sources. Neither carries
// CSS; the server injects the resolved stylesheet into the executed page.
package assets
