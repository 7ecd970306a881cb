package cloud

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WriteSVG renders c as a standalone SVG document. Each label is drawn
// with its top-left corner at (X, Y) of the layout.
func WriteSVG(w io.Writer, c Cloud) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`+"\n",
		c.Width, c.Height, c.Width, c.Height)
	if c.Title != "" {
		fmt.Fprintf(bw, "  <title>%s</title>\n", escape(c.Title))
	}
	for _, it := range c.Items {
		fmt.Fprintf(bw,
			`  <text x="%.2f" y="%.2f" font-family="Go, sans-serif" font-size="%.2f" fill="%s" dominant-baseline="text-before-edge" class="w%d">%s</text>`+"\n",
			it.X, it.Y, it.FontSize, it.Color, it.Level, escape(it.Text))
	}
	fmt.Fprintln(bw, "</svg>")

	return bw.Flush()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
