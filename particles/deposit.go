package particles

import (
	"fmt"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// shapeWeights computes the order-n spline weights of a particle at node
// coordinate s and returns the first node index written. Orders follow the
// usual particle-in-cell family: 1 is cloud-in-cell over two nodes, 2 is
// triangular-shaped-cloud over three, 3 is the cubic B-spline over four.
func shapeWeights(order int, s float64, w []float64) (i0 int) {
	switch order {
	case 1:
		i0 = floorInt(s)
		d := s - float64(i0)
		w[0] = 1 - d
		w[1] = d
	case 2:
		base := floorInt(s + 0.5)
		d := s - float64(base)
		i0 = base - 1
		w[0] = 0.5 * (0.5 - d) * (0.5 - d)
		w[1] = 0.75 - d*d
		w[2] = 0.5 * (0.5 + d) * (0.5 + d)
	case 3:
		j := floorInt(s)
		t := s - float64(j)
		i0 = j - 1
		w[0] = (1 - t) * (1 - t) * (1 - t) / 6
		w[1] = (3*t*t*t - 6*t*t + 4) / 6
		w[2] = (-3*t*t*t + 3*t*t + 3*t + 1) / 6
		w[3] = t * t * t / 6
	default:
		panic(fmt.Sprintf("unsupported particle shape order %d", order))
	}
	return
}

func floorInt(x float64) int {
	i := int(x)
	if x < 0 && float64(i) != x {
		i--
	}
	return i
}

// DepositCharge accumulates the population's charge density onto the
// node-centered rho field of every level, order-shape splines per axis.
// Each level receives the particles inside its patch, scaled by that
// level's cell volume. reset zeroes the destinations first; unless local is
// set, halo charge is folded back across periodic faces afterwards. rho
// halos must be at least shape points wide.
func (pc *Container) DepositCharge(rho []*mesh.Field, g *mesh.Geometry,
	shape int, local, reset bool) {
	if shape < 1 || shape > 3 {
		panic(fmt.Sprintf("unsupported particle shape order %d", shape))
	}
	if len(rho) != g.NumLevels() {
		panic("need one charge density field per level")
	}
	for lev, f := range rho {
		if f.Nghost < shape {
			panic(fmt.Sprintf("level %d rho halo %d under shape order %d", lev, f.Nghost, shape))
		}
		if reset {
			f.SetVal(0)
		}
		pc.depositLevel(f, g, lev, shape)
		if !local {
			f.SumBoundary(g, lev)
		}
	}
}

func (pc *Container) depositLevel(f *mesh.Field, g *mesh.Geometry, lev, shape int) {
	var (
		dx               = g.CellSize(lev)
		invVol           = 1.0
		patchLo, patchHi [3]float64
	)
	for a := 0; a < pc.ndim; a++ {
		invVol /= dx[a]
		patchLo[a] = g.NodeCoord(lev, a, f.CellBox.Lo[a])
		patchHi[a] = g.NodeCoord(lev, a, f.CellBox.Hi[a]+1)
	}
	for p := 0; p < pc.N(); p++ {
		var (
			w   [3][4]float64
			i0  [3]int
			npt = [3]int{1, 1, 1}
			own = true
		)
		w[0][0], w[1][0], w[2][0] = 1, 1, 1
		for a := 0; a < pc.ndim; a++ {
			x := pc.Pos[a][p]
			if x < patchLo[a] || x >= patchHi[a] {
				own = false
				break
			}
			s := (x - g.ProbLo[a]) / dx[a]
			i0[a] = shapeWeights(shape, s, w[a][:])
			npt[a] = shape + 1
		}
		if !own {
			continue
		}
		qw := pc.Charge * pc.Wgt[p] * invVol
		for k2 := 0; k2 < npt[2]; k2++ {
			for k1 := 0; k1 < npt[1]; k1++ {
				for k0 := 0; k0 < npt[0]; k0++ {
					iv := mesh.IntVect{i0[0] + k0, i0[1] + k1, i0[2] + k2}
					f.Add(0, iv, qw*w[0][k0]*w[1][k1]*w[2][k2])
				}
			}
		}
	}
}
