package mesh

import "fmt"

// Direction labels the Cartesian directions of field components. Grids of
// reduced dimensionality keep all three field components; only the grid
// axes shrink.
type Direction int

const (
	X Direction = iota
	Y
	Z
)

func (d Direction) String() string {
	return [...]string{"x", "y", "z"}[d]
}

// GridDirs maps the active axes of an ndim grid onto Cartesian directions:
// 1-D grids vary along z, 2-D grids along x and z, 3-D along x, y and z.
func GridDirs(ndim int) []Direction {
	switch ndim {
	case 1:
		return []Direction{Z}
	case 2:
		return []Direction{X, Z}
	case 3:
		return []Direction{X, Y, Z}
	}
	panic(fmt.Sprintf("unsupported dimensionality %d", ndim))
}

type CoordSys uint8

const (
	Cartesian CoordSys = iota
	RZ
)

// Geometry carries the problem domain, its physical extents, periodicity
// and the refinement hierarchy. Level 0 covers the whole domain; finer
// levels refine it by the ratio recorded when the level was added.
type Geometry struct {
	NDim     int
	Coord    CoordSys
	ProbLo   [3]float64
	ProbHi   [3]float64
	domain0  Box
	dx       [][3]float64
	cumRatio []int
	refRatio []int
	periodic [3]bool
}

func NewGeometry(ndim int, ncell IntVect, probLo, probHi [3]float64,
	periodic [3]bool, coord CoordSys) (g *Geometry) {
	var (
		lo, hi IntVect
		dx0    [3]float64
	)
	for a := 0; a < ndim; a++ {
		if ncell[a] < 1 {
			panic(fmt.Sprintf("geometry axis %d has %d cells", a, ncell[a]))
		}
		if probHi[a] <= probLo[a] {
			panic(fmt.Sprintf("geometry axis %d extent is empty", a))
		}
		hi[a] = ncell[a] - 1
		dx0[a] = (probHi[a] - probLo[a]) / float64(ncell[a])
	}
	g = &Geometry{
		NDim:     ndim,
		Coord:    coord,
		ProbLo:   probLo,
		ProbHi:   probHi,
		domain0:  NewBox(lo, hi, ndim),
		dx:       [][3]float64{dx0},
		cumRatio: []int{1},
		periodic: periodic,
	}
	return
}

// AddRefinedLevel appends one level refined by ratio. The geometry tracks
// resolution only; patch placement belongs to whoever allocates fields on
// the new level.
func (g *Geometry) AddRefinedLevel(ratio int) (lev int) {
	if ratio < 2 {
		panic(fmt.Sprintf("refinement ratio %d under 2", ratio))
	}
	var dxf [3]float64
	for a := 0; a < g.NDim; a++ {
		dxf[a] = g.dx[len(g.dx)-1][a] / float64(ratio)
	}
	g.dx = append(g.dx, dxf)
	g.cumRatio = append(g.cumRatio, g.cumRatio[len(g.cumRatio)-1]*ratio)
	g.refRatio = append(g.refRatio, ratio)
	return len(g.dx) - 1
}

func (g *Geometry) NumLevels() int { return len(g.dx) }

func (g *Geometry) FinestLevel() int { return len(g.dx) - 1 }

// Domain returns the whole problem domain in cell space at the level's
// resolution.
func (g *Geometry) Domain(lev int) Box {
	if g.cumRatio[lev] == 1 {
		return g.domain0
	}
	return g.domain0.Refine(g.cumRatio[lev])
}

func (g *Geometry) CellSize(lev int) [3]float64 { return g.dx[lev] }

// RefRatio returns the ratio between levels lev and lev+1.
func (g *Geometry) RefRatio(lev int) int { return g.refRatio[lev] }

func (g *Geometry) Periodic(a int) bool { return g.periodic[a] }

func (g *Geometry) Dirs() []Direction { return GridDirs(g.NDim) }

// NodeCoord returns the physical coordinate of node index i along axis a
// at the given level.
func (g *Geometry) NodeCoord(lev int, a, i int) float64 {
	return g.ProbLo[a] + float64(i)*g.dx[lev][a]
}
