package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// printMarkdown renders a markdown document for the terminal. When the
// styled renderer cannot run (no TTY, unknown TERM), it falls back to
// the document's plain text content.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(plainText(md))
		return
	}
	fmt.Print(out)
}

// plainText strips the markdown formatting, keeping the text content.
func plainText(md string) string {
	source := []byte(md)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if txt, ok := n.(*ast.Text); ok && entering {
			b.Write(txt.Segment.Value(source))
			if txt.SoftLineBreak() || txt.HardLineBreak() {
				b.WriteByte('\n')
			}
		}
		if !entering && n.Type() == ast.TypeBlock {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
