package diag

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/notargets/avs/assets"
	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// RenderText is one text label on a lineout figure, placed in data
// coordinates.
type RenderText struct {
	Color color.RGBA
	Text  string
	Pitch uint32
	X, Y  float32
}

// Lineout samples component comp of f along one grid axis through the
// center of the valid box. Coordinates follow the staggering: node
// positions on node-centered axes, cell centers otherwise.
func Lineout(f *mesh.Field, comp, axis int, g *mesh.Geometry, lev int) (xs, vals []float64) {
	var (
		vb = f.Valid
		dx = g.CellSize(lev)
		iv mesh.IntVect
	)
	if axis < 0 || axis >= vb.NDim {
		panic(fmt.Sprintf("lineout axis %d on a %d-D field", axis, vb.NDim))
	}
	for a := 0; a < vb.NDim; a++ {
		iv[a] = (vb.Lo[a] + vb.Hi[a]) / 2
	}
	for i := vb.Lo[axis]; i <= vb.Hi[axis]; i++ {
		iv[axis] = i
		x := g.NodeCoord(lev, axis, i)
		if !f.Stag[axis] {
			x += 0.5 * dx[axis]
		}
		xs = append(xs, x)
		vals = append(vals, f.At(comp, iv))
	}
	return
}

// AppendLineout converts one sampled lineout to chart segments and adds
// them to the color-keyed line set.
func AppendLineout(xs, vals []float64, col color.RGBA, lines map[color.RGBA][]float32) {
	if len(xs) != len(vals) {
		panic(fmt.Sprintf("lineout with %d coordinates, %d values", len(xs), len(vals)))
	}
	for i := 0; i+1 < len(xs); i++ {
		lines[col] = append(lines[col],
			float32(xs[i]), float32(vals[i]),
			float32(xs[i+1]), float32(vals[i+1]),
		)
	}
}

// PlotLineouts opens a chart window with every line drawn over shared axes
// and keeps it alive for the given delay, or forever when the delay is
// zero.
func PlotLineouts(lines map[color.RGBA][]float32, text []RenderText, delay time.Duration) {
	var (
		xMin, xMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
		yMin, yMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	)
	if len(lines) == 0 {
		panic("lineout plot with no lines")
	}
	for _, line := range lines {
		xMin, xMax, yMin, yMax = foldMinMax(line, xMin, xMax, yMin, yMax)
	}
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}
	ch := chart2d.NewChart2D(xMin, xMax, yMin, yMax,
		1024, 1024, utils2.WHITE, utils2.BLACK)
	for col, line := range lines {
		ch.AddLine(line, col)
	}
	for _, txt := range text {
		tf := assets.NewTextFormatter("NotoSans",
			"Regular", txt.Pitch,
			txt.Color, true, false)
		ch.Printf(tf, txt.X, txt.Y, "%s", txt.Text)
	}
	if delay > 0 {
		time.Sleep(delay)
		return
	}
	for {
	}
}

func foldMinMax(xy []float32, xi, xa, yi, ya float32) (xMin, xMax, yMin, yMax float32) {
	xMin, xMax, yMin, yMax = xi, xa, yi, ya
	for i := 0; i < len(xy)/2; i++ {
		x, y := xy[2*i+0], xy[2*i+1]
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
		if y < yMin {
			yMin = y
		}
		if y > yMax {
			yMax = y
		}
	}
	return
}
