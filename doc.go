// Package mdlive renders enhanced markdown for a live preview.
//
// Enhanced markdown is standard markdown plus a few block types that a
// plain converter does not understand:
//
//   - ```d2, ```puml (```puml_mindmap) and ```mmd fences, compiled to inline
//     SVG by the d2, PlantUML and Mermaid command-line tools;
//   - ```data fences holding JSON, rendered as markdown tables;
//   - {< ... >} expandable sections and {| .| |} column layouts.
//
// # Quick Start
//
//	r := mdlive.NewRenderer(
//	    mdlive.WithTools(mdlive.Tools{PlantUMLJar: "/opt/plantuml.jar"}),
//	    mdlive.WithTimeout(20 * time.Second),
//	)
//	md, err := r.Render(ctx, doc, false)
//
// The result is standard markdown with diagrams inlined as HTML, ready for
// any CommonMark converter that passes raw HTML through.
//
// # Pipeline
//
//  1. Partition the document into plain, diagram and data segments
//  2. Render every segment concurrently; compilers queue on a CompilerPool
//  3. Reassemble the fragments in document order
//
// Rendered fragments are cached by their source text, so editing one
// paragraph does not recompile every diagram. A diagram that stops
// compiling mid-edit keeps showing its last good rendering as long as the
// broken source still looks like it.
//
// # Errors
//
// Diagram and data errors never fail a render: they show up in the
// document as fenced error blocks. Render only fails with ErrStructure when
// fences cross each other, or with the context's error.
package mdlive
