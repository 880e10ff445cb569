// Package pipeline turns the standard markdown produced by the segment
// renderers into HTML.
//
// Stages:
//   - ==highlight== marks outside code and raw HTML
//   - markdown to HTML via goldmark, raw HTML kept, code highlighted by chroma
//   - CSS injection into the preview and export pages
//   - relative link rewriting for pages printed from a temp file
package pipeline
