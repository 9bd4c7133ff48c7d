package media

import (
	"fmt"
	"strings"
)

// filterGraph assembles an ffmpeg -filter_complex expression for a base
// stream with zero or more overlay inputs.
type filterGraph struct {
	steps []string
}

func newFilterGraph() *filterGraph {
	return &filterGraph{}
}

func (g *filterGraph) add(step string) *filterGraph {
	g.steps = append(g.steps, step)
	return g
}

// scaleOverlay scales overlay input n to the given size, labelling the result.
func (g *filterGraph) scaleOverlay(n, width, height int) string {
	label := fmt.Sprintf("ov%d", n)
	g.add(fmt.Sprintf("[%d:v]scale=%d:%d[%s]", n, width, height, label))
	return label
}

// composite places a labelled overlay at (x, y) over the current base,
// producing a new base label.
func (g *filterGraph) composite(baseLabel, overlayLabel string, x, y, n int) string {
	out := fmt.Sprintf("base%d", n)
	g.add(fmt.Sprintf("[%s][%s]overlay=%d:%d[%s]", baseLabel, overlayLabel, x, y, out))
	return out
}

func (g *filterGraph) String() string {
	return strings.Join(g.steps, ";")
}

// BuildOverlayFilter produces the -filter_complex expression that burns the
// given overlays into input 0, and the label of the final video stream.
func BuildOverlayFilter(overlays []ExportOverlay) (string, string) {
	if len(overlays) == 0 {
		return "", "0:v"
	}
	g := newFilterGraph()
	base := "0:v"
	for i, ov := range overlays {
		scaled := g.scaleOverlay(i+1, ov.Width, ov.Height)
		base = g.composite(base, scaled, ov.X, ov.Y, i+1)
	}
	return g.String(), base
}
