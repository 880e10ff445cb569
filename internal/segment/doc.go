// Package segment splits an enhanced markdown document into typed,
// line-addressed segments.
//
// A document is scanned once. Fenced diagram blocks (```d2, ```puml,
// ```mmd) and data blocks (```data) become dedicated segments; every line
// in between belongs to a PlainMarkdown segment. The resulting Sequence
// covers each source line exactly once, in document order.
package segment
