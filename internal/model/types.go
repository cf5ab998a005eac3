// Package model holds the node-set types shared by the tour engine, the
// problem store and the HTTP layer.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNodeSet is returned when node ids are not dense and positional.
var ErrInvalidNodeSet = errors.New("invalid node set")

// Color is a grouping tag drawn from a fixed palette.
type Color int

// Palette order matters: tsp files store groups by palette index.
var palette = []string{"Black", "Orange", "Cyan", "Magenta", "Yellow", "Blue",
	"White", "Brown", "Pink", "Gray", "Violet"}

const (
	Black Color = iota
	Orange
	Cyan
	Magenta
	Yellow
	Blue
	White
	Brown
	Pink
	Gray
	Violet
)

// PaletteSize is the number of available colors.
const PaletteSize = 11

func (c Color) String() string {
	if c < 0 || int(c) >= len(palette) {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return palette[c]
}

// ParseColor accepts a palette name (case-insensitive).
func ParseColor(s string) (Color, error) {
	for i, name := range palette {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Color(i), nil
		}
	}
	return Black, fmt.Errorf("unknown color %q", s)
}

func (c Color) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *Color) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		v, err := ParseColor(name)
		if err != nil {
			return err
		}
		*c = v
		return nil
	}
	var idx int
	if err := json.Unmarshal(b, &idx); err != nil {
		return fmt.Errorf("color must be a name or palette index: %w", err)
	}
	if idx < 0 || idx >= PaletteSize {
		return fmt.Errorf("color index %d out of palette", idx)
	}
	*c = Color(idx)
	return nil
}

// Node is a grid point with a positional id.
type Node struct {
	ID    int   `json:"id"`
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"color"`
	Start bool  `json:"start,omitempty"`
}

// Problem is a named node set as stored and exchanged over the API.
type Problem struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Comment string  `json:"comment,omitempty"`
	Scale   float64 `json:"scale"`
	Version int     `json:"version"`
	Nodes   NodeSet `json:"nodes"`
}

// TraceRecord is a stored step trace. Steps are kept as raw JSON so the
// store does not depend on the tour package.
type TraceRecord struct {
	ID             string          `json:"id"`
	ProblemID      string          `json:"problemId"`
	ProblemVersion int             `json:"problemVersion"`
	Strategy       string          `json:"strategy"`
	Steps          json.RawMessage `json:"steps"`
	CreatedAt      string          `json:"createdAt"`
}
