// Package notebook turns Jupyter notebook documents into plain text, either
// internally or by delegating to an external conversion tool.
package notebook

import (
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"gitlab.com/tozd/go/errors"
)

// Extension is the file extension that marks a notebook document.
const Extension = ".ipynb"

// ErrInvalidDocument is returned when notebook JSON is malformed or has no cells array.
var ErrInvalidDocument = errors.New("invalid notebook document")

// CellType identifies the kind of a notebook cell.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellOther    CellType = "other"
)

// Document is a parsed notebook.
type Document struct {
	Cells []Cell
}

// Cell is a single notebook cell. Outputs are only populated for code cells.
type Cell struct {
	Type           CellType
	Source         []string // Source fragments, concatenated to form the cell body.
	ExecutionCount *int     // nil when the cell was never executed.
	Outputs        []Output
}

// Output is a rendered cell output keyed by MIME type.
type Output struct {
	Data map[string]string
}

// Text returns the cell body.
func (c Cell) Text() string {
	return strings.Join(c.Source, "")
}

// PlainText returns the text/plain payload of the output, if any.
func (o Output) PlainText() (string, bool) {
	text, ok := o.Data["text/plain"]
	return text, ok
}

// Parse decodes notebook JSON. Both string and string-array forms of source and
// output payloads are accepted.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Errorf("%w: malformed JSON", ErrInvalidDocument)
	}

	cells := gjson.GetBytes(data, "cells")
	if !cells.IsArray() {
		return nil, errors.Errorf("%w: missing cells array", ErrInvalidDocument)
	}

	doc := &Document{}
	cells.ForEach(func(_, c gjson.Result) bool {
		doc.Cells = append(doc.Cells, parseCell(c))
		return true
	})
	return doc, nil
}

// ParseFile reads and parses the notebook at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading notebook %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("parsing notebook %s: %w", path, err)
	}
	return doc, nil
}

func parseCell(c gjson.Result) Cell {
	cell := Cell{
		Type:   parseCellType(c.Get("cell_type").String()),
		Source: stringList(c.Get("source")),
	}

	if ec := c.Get("execution_count"); ec.Type == gjson.Number {
		n := int(ec.Int())
		cell.ExecutionCount = &n
	}

	if cell.Type != CellCode {
		return cell
	}

	c.Get("outputs").ForEach(func(_, o gjson.Result) bool {
		out := Output{Data: map[string]string{}}
		o.Get("data").ForEach(func(mime, payload gjson.Result) bool {
			out.Data[mime.String()] = strings.Join(stringList(payload), "")
			return true
		})
		cell.Outputs = append(cell.Outputs, out)
		return true
	})
	return cell
}

func parseCellType(s string) CellType {
	switch CellType(s) {
	case CellCode, CellMarkdown:
		return CellType(s)
	default:
		return CellOther
	}
}

// stringList flattens a JSON string or array of strings.
func stringList(r gjson.Result) []string {
	switch {
	case r.IsArray():
		var out []string
		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, v.String())
			return true
		})
		return out
	case r.Type == gjson.String:
		return []string{r.Str}
	default:
		return nil
	}
}
