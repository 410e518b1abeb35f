package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// WriteMarkdown writes md to w, rendered for the terminal when render is true.
func WriteMarkdown(w io.Writer, md string, render bool) error {
	if !render {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
