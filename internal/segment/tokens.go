package segment

// Fence tokens recognized at the start of a line.
const (
	D2Fence              = "```d2"
	PlantUMLFence        = "```puml"
	PlantUMLMindmapFence = "```puml_mindmap"
	MermaidFence         = "```mmd"
	DataFence            = "```data"

	// CloseFence terminates any fenced enhancement block when it is the
	// whole (trimmed) line.
	CloseFence = "```"
)

// Structural tokens handled by the inline renderer.
const (
	ExpandableStart = "{<"
	ExpandableEnd   = ">}"

	ColumnsStart = "{|"
	ColumnsAdd   = ".|"
	ColumnsEnd   = "|}"
)
