package tspio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

func sample() model.Problem {
	var ns model.NodeSet
	ns = ns.Add(1, 2, model.Black)
	ns = ns.Add(3, 4, model.Orange)
	ns = ns.Add(5, 6, model.Black)
	ns[2].Start = true
	return model.Problem{Name: "three", Comment: "first line\nsecond line", Nodes: ns}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), 100))
	want := `NAME : three
COMMENT : first line
COMMENT : second line
COMMENT : CLUSTERS : [[1, 3], [2]]
COMMENT : STARTNODES : [2]
TYPE: TSP
DIMENSION: 3
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1  100 200
2  300 400
3  500 600
EOF
`
	assert.Equal(t, want, buf.String())
}

func TestWriteSingleGroupDefaults(t *testing.T) {
	var buf bytes.Buffer
	p := model.Problem{Nodes: model.NodeSet{}.Add(1, 1, model.Cyan)}
	require.NoError(t, Write(&buf, p, 1))
	out := buf.String()
	assert.Contains(t, out, "NAME : "+DefaultName+"\n")
	assert.Contains(t, out, "COMMENT : "+DefaultComment+"\n")
	assert.NotContains(t, out, "CLUSTERS")
	assert.NotContains(t, out, "STARTNODES")
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), 100))
	p, err := Parse(&buf, 100)
	require.NoError(t, err)
	assert.Equal(t, "three", p.Name)
	assert.Equal(t, "first line\nsecond line", p.Comment)
	assert.Equal(t, sample().Nodes, p.Nodes)
	require.NoError(t, p.Nodes.Validate())
}

func TestParse(t *testing.T) {
	in := `NAME : berlin
COMMENT : a comment
COMMENT : STARTNODE : 1
TYPE: TSP
DIMENSION: 3
EDGE_WEIGHT_TYPE : EUC_2D
NODE_COORD_SECTION
1 565.0 575.0
2 25.0 185.0
3 345.0 750.0
EOF
`
	p, err := Parse(strings.NewReader(in), 100)
	require.NoError(t, err)
	assert.Equal(t, "berlin", p.Name)
	assert.Equal(t, "a comment", p.Comment)
	require.Len(t, p.Nodes, 3)
	assert.Equal(t, model.Node{ID: 0, X: 5, Y: 5}, p.Nodes[0])
	assert.Equal(t, model.Node{ID: 1, X: 0, Y: 1, Start: true}, p.Nodes[1])
	assert.Equal(t, model.Node{ID: 2, X: 3, Y: 7}, p.Nodes[2])
}

func TestParseClustersAssignPaletteByPosition(t *testing.T) {
	in := "COMMENT : CLUSTERS : [[2], [1, 3]]\n1 0 0\n2 1 1\n3 2 2\n"
	p, err := Parse(strings.NewReader(in), 1)
	require.NoError(t, err)
	assert.Equal(t, model.Orange, p.Nodes[0].Color)
	assert.Equal(t, model.Black, p.Nodes[1].Color)
	assert.Equal(t, model.Orange, p.Nodes[2].Color)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"bad clusters":    "COMMENT : CLUSTERS : [[1,\n1 0 0\n",
		"cluster range":   "COMMENT : CLUSTERS : [[1], [4]]\n1 0 0\n",
		"start range":     "COMMENT : STARTNODES : [3]\n1 0 0\n",
		"bad start":       "COMMENT : STARTNODE : x\n1 0 0\n",
		"bad start nodes": "COMMENT : STARTNODES : nope\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in), 1)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
	_, err := Parse(strings.NewReader(""), 0)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseSolution(t *testing.T) {
	got, err := ParseSolution(strings.NewReader("5\n0 3 1\n4 2\n"))
	require.NoError(t, err)
	assert.Equal(t, tour.Tour{0, 3, 1, 4, 2}, got)

	_, err = ParseSolution(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMalformed)
	_, err = ParseSolution(strings.NewReader("3\n"))
	require.ErrorIs(t, err, ErrMalformed)
	_, err = ParseSolution(strings.NewReader("3\n0 a 2\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestWriteTikz(t *testing.T) {
	var buf bytes.Buffer
	p := sample()
	require.NoError(t, WriteTikz(&buf, p.Nodes, 100, tour.Tour{0, 1, 2, 0}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\\begin{tikzpicture}\n"))
	assert.True(t, strings.HasSuffix(out, "\\end{tikzpicture}%\n"))
	assert.Contains(t, out, "xmin=0,\nxmax=600,\nymin=100,\nymax=700,\n")
	assert.Contains(t, out, "fill=black")
	assert.Contains(t, out, "fill=orange")
	assert.Equal(t, 3, strings.Count(out, "\\addplot"))
	assert.Contains(t, out, "300 400\\\\\n")

	err := WriteTikz(&bytes.Buffer{}, p.Nodes, 1, tour.Tour{0, 7})
	assert.Error(t, err)
}
