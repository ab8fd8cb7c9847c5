package notebook

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Format is a plain-text rendering of a notebook.
type Format string

const (
	FormatAsciidoc Format = "asciidoc"
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported format names.
var ErrUnknownFormat = errors.New("unknown notebook format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatAsciidoc, FormatMarkdown:
		return f, nil
	default:
		return "", errors.Errorf("%w: %q (expected asciidoc or markdown)", ErrUnknownFormat, s)
	}
}

// Extension is the file extension an external converter produces for the format.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Convert renders doc as text in the given format. Markdown cells are copied
// verbatim, code cells are fenced together with their text/plain outputs, and
// every other cell or output kind is skipped.
func Convert(doc *Document, format Format) string {
	var b strings.Builder
	for _, cell := range doc.Cells {
		switch cell.Type {
		case CellMarkdown:
			b.WriteString(cell.Text())
			b.WriteString("\n\n")
		case CellCode:
			if format == FormatMarkdown {
				writeMarkdownCode(&b, cell)
			} else {
				writeAsciidocCode(&b, cell)
			}
		}
	}
	return b.String()
}

// ConvertFile parses the notebook at path and renders it in-process.
func ConvertFile(path string, format Format) (string, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return "", err
	}
	return Convert(doc, format), nil
}

func writeAsciidocCode(b *strings.Builder, cell Cell) {
	count := executionLabel(cell.ExecutionCount)
	fmt.Fprintf(b, "+*In[%s]:*+\n", count)
	fmt.Fprintf(b, "[source, ipython3]\n----\n%s\n----\n\n", trimNewline(cell.Text()))

	for _, out := range cell.Outputs {
		text, ok := out.PlainText()
		if !ok {
			continue
		}
		fmt.Fprintf(b, "+*Out[%s]:*+\n----\n%s\n----\n\n", count, trimNewline(text))
	}
}

func writeMarkdownCode(b *strings.Builder, cell Cell) {
	fmt.Fprintf(b, "```python\n%s\n```\n\n", trimNewline(cell.Text()))

	for _, out := range cell.Outputs {
		text, ok := out.PlainText()
		if !ok {
			continue
		}
		fmt.Fprintf(b, "```\n%s\n```\n\n", trimNewline(text))
	}
}

// executionLabel renders an execution count; cells never run get an empty label.
func executionLabel(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func trimNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
