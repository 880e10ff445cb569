// Package datatable renders ```data blocks (JSON objects or arrays of
// objects) as markdown tables.
package datatable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Sentinel errors for data block parsing.
var (
	ErrUnsupportedData = errors.New("data block must be a JSON object or array")
	ErrInvalidJSON     = errors.New("data block is not valid JSON")
)

// Rendered output for empty results.
const (
	Nothing = "`(nothing)`"
	Null    = "`(null)`"
)

// Render converts a fenced data block into a markdown table.
// The first and last lines are the fences and are dropped.
func Render(block string) (string, error) {
	body := stripFences(block)

	trimmed := strings.TrimLeft(body, " \t\n")
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", ErrUnsupportedData
	}
	if !gjson.Valid(body) {
		return "", ErrInvalidJSON
	}

	doc := gjson.Parse(body)
	if doc.IsArray() {
		return renderRows(doc.Array(), rowLabel(len(doc.Array())), false), nil
	}

	if items, ok := wrappedItems(doc); ok {
		count := doc.Get("count")
		rows := items.Array()
		if len(rows) == 0 {
			return "", nil
		}
		truncated := count.Int() > int64(len(rows))
		return renderRows(rows, count.Raw+"rows", truncated), nil
	}

	return renderRows([]gjson.Result{doc}, rowLabel(1), false), nil
}

// wrappedItems recognizes {"count": N, "items": [...]}; "_" is accepted
// in place of "items".
func wrappedItems(doc gjson.Result) (gjson.Result, bool) {
	count := doc.Get("count")
	if !count.Exists() || count.Type != gjson.Number {
		return gjson.Result{}, false
	}
	for _, key := range []string{"items", "_"} {
		if items := doc.Get(key); items.IsArray() {
			return items, true
		}
	}
	return gjson.Result{}, false
}

func rowLabel(n int) string {
	if n == 1 {
		return "1row"
	}
	return fmt.Sprintf("%drows", n)
}

// renderRows writes header, separator and one line per row. Columns follow
// the key order of the first row.
func renderRows(rows []gjson.Result, label string, truncated bool) string {
	if len(rows) == 0 {
		return Nothing
	}

	var keys []string
	rows[0].ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})

	var b strings.Builder
	b.WriteString("| " + label + " |")
	for _, k := range keys {
		b.WriteString(" " + escape(k) + " |")
	}
	b.WriteByte('\n')

	b.WriteString("|" + strings.Repeat(" -- |", len(keys)+1) + "\n")

	for i, row := range rows {
		values := make(map[string]gjson.Result, len(keys))
		row.ForEach(func(key, value gjson.Result) bool {
			values[key.String()] = value
			return true
		})

		fmt.Fprintf(&b, "| #%d |", i+1)
		for _, k := range keys {
			b.WriteString(" " + cell(values[k]) + " |")
		}
		b.WriteByte('\n')
	}

	if truncated {
		b.WriteString("| #... |" + strings.Repeat(" - |", len(keys)) + "\n")
	}
	return b.String()
}

func cell(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return "`` " + escape(v.String()) + " ``"
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return Null
	default:
		if !v.Exists() {
			return Null
		}
		return escape(v.Raw)
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func stripFences(block string) string {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
