// Package tspio reads and writes the TSPLIB dialect used for problem files,
// reads exact-solver solution files and renders node layouts as tikz.
//
// Grouping and start-node metadata ride along in COMMENT lines:
//
//	COMMENT : CLUSTERS : [[1, 2], [3]]   (1-based node numbers per group)
//	COMMENT : STARTNODES : [0, 4]        (0-based node ids)
package tspio

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

var ErrMalformed = errors.New("tspio: malformed file")

const (
	DefaultName    = "No Name"
	DefaultComment = "PUT PROBLEM DESCRIPTION HERE"

	keyName       = "NAME :"
	keyComment    = "COMMENT :"
	keyClusters   = "COMMENT : CLUSTERS :"
	keyStartNodes = "COMMENT : STARTNODES :"
	keyStartNode  = "COMMENT : STARTNODE :"
)

// Write serializes p with coordinates multiplied by scale.
func Write(w io.Writer, p model.Problem, scale float64) error {
	bw := bufio.NewWriter(w)
	name := p.Name
	if name == "" {
		name = DefaultName
	}
	comment := p.Comment
	if comment == "" {
		comment = DefaultComment
	}
	fmt.Fprintf(bw, "NAME : %s\n", name)
	for _, line := range strings.Split(strings.TrimRight(comment, "\n"), "\n") {
		fmt.Fprintf(bw, "COMMENT : %s\n", line)
	}
	if groups := clusters(p.Nodes); len(groups) > 1 {
		fmt.Fprintf(bw, "COMMENT : CLUSTERS : %s\n", listString(groups))
	}
	if starts := p.Nodes.Starts(); len(starts) > 0 {
		ids := make([]int, len(starts))
		for i, n := range starts {
			ids[i] = n.ID
		}
		fmt.Fprintf(bw, "COMMENT : STARTNODES : %s\n", intsString(ids))
	}
	fmt.Fprintf(bw, "TYPE: TSP\n")
	fmt.Fprintf(bw, "DIMENSION: %d\n", len(p.Nodes))
	fmt.Fprintf(bw, "EDGE_WEIGHT_TYPE : EUC_2D\n")
	fmt.Fprintf(bw, "NODE_COORD_SECTION\n")
	for i, n := range p.Nodes {
		fmt.Fprintf(bw, "%d  %s %s\n", i+1, num(float64(n.X)*scale), num(float64(n.Y)*scale))
	}
	fmt.Fprint(bw, "EOF\n")
	return bw.Flush()
}

// sortedColors lists the colors in use in palette order.
func sortedColors(ns model.NodeSet) []model.Color {
	cs := ns.Groups()
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return cs
}

// clusters groups 1-based node numbers by color, in palette order.
func clusters(ns model.NodeSet) [][]int {
	var out [][]int
	for _, c := range sortedColors(ns) {
		var g []int
		for _, n := range ns {
			if n.Color == c {
				g = append(g, n.ID+1)
			}
		}
		out = append(out, g)
	}
	return out
}

func intsString(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func listString(groups [][]int) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = intsString(g)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Parse reads a problem file. Coordinates are divided by scale and
// truncated to the grid. The i-th cluster gets the i-th palette color.
// Unknown lines are ignored.
func Parse(r io.Reader, scale float64) (model.Problem, error) {
	if scale <= 0 {
		return model.Problem{}, fmt.Errorf("%w: scale must be positive", ErrMalformed)
	}
	p := model.Problem{Name: DefaultName, Scale: scale}
	var (
		comments []string
		groups   [][]int
		starts   []int
		coords   [][2]float64
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, keyName):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, keyName))
		case strings.HasPrefix(line, keyClusters):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, keyClusters)), &groups); err != nil {
				return p, fmt.Errorf("%w: line %d: clusters: %v", ErrMalformed, lineNo, err)
			}
		case strings.HasPrefix(line, keyStartNodes):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, keyStartNodes)), &starts); err != nil {
				return p, fmt.Errorf("%w: line %d: start nodes: %v", ErrMalformed, lineNo, err)
			}
		case strings.HasPrefix(line, keyStartNode):
			id, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, keyStartNode)))
			if err != nil {
				return p, fmt.Errorf("%w: line %d: start node: %v", ErrMalformed, lineNo, err)
			}
			starts = []int{id}
		case strings.HasPrefix(line, keyComment):
			comments = append(comments, strings.TrimPrefix(strings.TrimPrefix(line, keyComment), " "))
		default:
			if xy, ok := coordLine(line); ok {
				coords = append(coords, xy)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return p, err
	}

	p.Comment = strings.Join(comments, "\n")
	for _, xy := range coords {
		p.Nodes = p.Nodes.Add(int(math.Trunc(xy[0])/scale), int(math.Trunc(xy[1])/scale), model.Black)
	}
	if len(groups) > model.PaletteSize {
		return p, fmt.Errorf("%w: %d clusters, palette has %d colors", ErrMalformed, len(groups), model.PaletteSize)
	}
	for gi, g := range groups {
		for _, nr := range g {
			if nr < 1 || nr > len(p.Nodes) {
				return p, fmt.Errorf("%w: cluster %d references node %d", ErrMalformed, gi, nr)
			}
			p.Nodes[nr-1].Color = model.Color(gi)
		}
	}
	for _, id := range starts {
		if id < 0 || id >= len(p.Nodes) {
			return p, fmt.Errorf("%w: start node %d out of range", ErrMalformed, id)
		}
		p.Nodes[id].Start = true
	}
	return p, nil
}

// coordLine parses "<index> <x> <y>".
func coordLine(line string) ([2]float64, bool) {
	f := strings.Fields(line)
	if len(f) != 3 {
		return [2]float64{}, false
	}
	if _, err := strconv.Atoi(f[0]); err != nil {
		return [2]float64{}, false
	}
	x, errX := strconv.ParseFloat(f[1], 64)
	y, errY := strconv.ParseFloat(f[2], 64)
	if errX != nil || errY != nil {
		return [2]float64{}, false
	}
	return [2]float64{x, y}, true
}

// ParseSolution reads a solution file: a node count line followed by the
// 0-based tour, whitespace separated across any number of lines. The
// returned tour is open; the solver does not repeat the first id.
func ParseSolution(r io.Reader) (tour.Tour, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty solution", ErrMalformed)
	}
	var t tour.Tour
	for sc.Scan() {
		for _, f := range strings.Fields(sc.Text()) {
			id, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: solution id %q", ErrMalformed, f)
			}
			t = append(t, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: solution has no ids", ErrMalformed)
	}
	return t, nil
}
