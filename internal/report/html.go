package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"piquant/domain/stats"
)

// Markdown renders the assessment as Markdown tables
func Markdown(a *stats.Assessment) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", a.RunName)

	buf.WriteString("## Overall\n\n")
	writeTable(&buf, [][]string{OverallHeader(a), OverallRow(a)})

	for _, s := range a.Strata {
		fmt.Fprintf(&buf, "## By %s\n\n", s.Stratifier)
		writeTable(&buf, StratifiedRows(a, s))
	}
	return buf.Bytes()
}

func writeTable(buf *bytes.Buffer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	buf.WriteString("| " + strings.Join(escapeCells(rows[0]), " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
	for _, row := range rows[1:] {
		buf.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}
	buf.WriteString("\n")
}

// bin labels such as "> 3162" would otherwise start a blockquote or be
// read as inline HTML
func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		c = strings.ReplaceAll(c, "<", `\<`)
		out[i] = strings.ReplaceAll(c, ">", `\>`)
	}
	return out
}

// HTML renders the Markdown summary as a complete HTML page
func HTML(a *stats.Assessment) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: a.RunName,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(Markdown(a), p, renderer)
}
