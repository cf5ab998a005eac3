package tspio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

// WriteTikz renders the node layout as a pgfplots axis, one marker plot per
// color group, for inclusion in LaTeX documents. A non-empty path is drawn
// underneath the markers.
func WriteTikz(w io.Writer, nodes model.NodeSet, scale float64, path tour.Tour) error {
	bw := bufio.NewWriter(w)
	xmin, xmax, ymin, ymax := bounds(nodes, scale)

	bw.WriteString("\\begin{tikzpicture}\n")
	bw.WriteString("\\begin{axis}[%\n")
	bw.WriteString("width=\\textwidth,\n")
	bw.WriteString("scale only axis,\n")
	fmt.Fprintf(bw, "xmin=%s,\nxmax=%s,\nymin=%s,\nymax=%s,\n", num(xmin), num(xmax), num(ymin), num(ymax))
	bw.WriteString("y dir=reverse,\n")
	bw.WriteString("axis x line*=bottom,\n")
	bw.WriteString("axis y line*=left\n")
	bw.WriteString("]\n")

	if len(path) > 1 {
		bw.WriteString("\\addplot [color=black,solid,no marks,forget plot]\n")
		bw.WriteString("table[row sep=crcr]{%\n")
		for _, id := range path {
			if id < 0 || id >= len(nodes) {
				return fmt.Errorf("tspio: tikz path id %d out of range", id)
			}
			n := nodes[id]
			fmt.Fprintf(bw, "%s %s\\\\\n", num(float64(n.X)*scale), num(float64(n.Y)*scale))
		}
		bw.WriteString("};\n")
	}

	for _, c := range sortedColors(nodes) {
		fmt.Fprintf(bw, "\\addplot [color=black,mark size=5.0pt,only marks,mark=*,mark options={solid,fill=%s},forget plot]\n",
			strings.ToLower(c.String()))
		bw.WriteString("table[row sep=crcr]{%\n")
		for _, n := range nodes {
			if n.Color == c {
				fmt.Fprintf(bw, "%s %s\\\\\n", num(float64(n.X)*scale), num(float64(n.Y)*scale))
			}
		}
		bw.WriteString("};\n")
	}
	bw.WriteString("\\end{axis}\n")
	bw.WriteString("\\end{tikzpicture}%\n")
	return bw.Flush()
}

// bounds pads the scaled bounding box by one grid unit on each side.
func bounds(nodes model.NodeSet, scale float64) (xmin, xmax, ymin, ymax float64) {
	if len(nodes) == 0 {
		return -scale, scale, -scale, scale
	}
	xmin, xmax = float64(nodes[0].X), float64(nodes[0].X)
	ymin, ymax = float64(nodes[0].Y), float64(nodes[0].Y)
	for _, n := range nodes[1:] {
		xmin = min(xmin, float64(n.X))
		xmax = max(xmax, float64(n.X))
		ymin = min(ymin, float64(n.Y))
		ymax = max(ymax, float64(n.Y))
	}
	return (xmin - 1) * scale, (xmax + 1) * scale, (ymin - 1) * scale, (ymax + 1) * scale
}
