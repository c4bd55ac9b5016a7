package mesh

import "fmt"

// IntVect is a point in the integer index space of a structured grid.
// Axes beyond the grid dimensionality hold zero.
type IntVect [3]int

// Shift returns a copy of iv displaced by n along axis a.
func (iv IntVect) Shift(a, n int) IntVect {
	iv[a] += n
	return iv
}

// Staggering tags each axis of a field as node-centered (true) or
// cell-centered (false). A node-centered axis owns the domain boundary
// plane index; a cell-centered axis stores values half a cell inside.
type Staggering [3]bool

var (
	NodeAll = Staggering{true, true, true}
	CellAll = Staggering{false, false, false}
)

// YeeE returns the staggering of the electric field component in Cartesian
// direction d on a Yee lattice whose grid axes map onto dirs: cell-centered
// along its own direction, node-centered along the others.
func YeeE(d Direction, dirs []Direction) (s Staggering) {
	for a, ad := range dirs {
		s[a] = ad != d
	}
	return
}

// YeeB returns the staggering of the magnetic field component in direction
// d: node-centered along its own direction, cell-centered along the others.
func YeeB(d Direction, dirs []Direction) (s Staggering) {
	for a, ad := range dirs {
		s[a] = ad == d
	}
	return
}

// Box is an inclusive index-space box over the active axes of a grid.
// Bounds are in cell space unless produced by Staggered.
type Box struct {
	Lo, Hi IntVect
	NDim   int
}

func NewBox(lo, hi IntVect, ndim int) Box {
	if ndim < 1 || ndim > 3 {
		panic(fmt.Sprintf("box dimension %d out of range", ndim))
	}
	for a := 0; a < ndim; a++ {
		if hi[a] < lo[a] {
			panic(fmt.Sprintf("box axis %d empty: [%d,%d]", a, lo[a], hi[a]))
		}
	}
	return Box{Lo: lo, Hi: hi, NDim: ndim}
}

// Size returns the point count along axis a, 1 for inactive axes.
func (b Box) Size(a int) int {
	if a >= b.NDim {
		return 1
	}
	return b.Hi[a] - b.Lo[a] + 1
}

func (b Box) NumPts() (n int) {
	n = 1
	for a := 0; a < b.NDim; a++ {
		n *= b.Size(a)
	}
	return
}

func (b Box) Contains(iv IntVect) bool {
	for a := 0; a < b.NDim; a++ {
		if iv[a] < b.Lo[a] || iv[a] > b.Hi[a] {
			return false
		}
	}
	return true
}

// Grow expands the box by n points on both sides of every active axis.
func (b Box) Grow(n int) Box {
	for a := 0; a < b.NDim; a++ {
		b.Lo[a] -= n
		b.Hi[a] += n
	}
	return b
}

// Staggered converts a cell-space box to the index box of a component with
// staggering s: node-centered axes gain the high-side boundary plane.
func (b Box) Staggered(s Staggering) Box {
	for a := 0; a < b.NDim; a++ {
		if s[a] {
			b.Hi[a]++
		}
	}
	return b
}

// Coarsen maps the box to a grid coarser by ratio, flooring toward minus
// infinity so boxes straddling the origin coarsen consistently.
func (b Box) Coarsen(ratio int) Box {
	for a := 0; a < b.NDim; a++ {
		b.Lo[a] = floorDiv(b.Lo[a], ratio)
		b.Hi[a] = floorDiv(b.Hi[a], ratio)
	}
	return b
}

// Refine maps the box to a grid finer by ratio.
func (b Box) Refine(ratio int) Box {
	for a := 0; a < b.NDim; a++ {
		b.Lo[a] *= ratio
		b.Hi[a] = (b.Hi[a]+1)*ratio - 1
	}
	return b
}

// Index flattens iv into the box's storage order, first axis fastest.
func (b Box) Index(iv IntVect) int {
	var (
		i0 = iv[0] - b.Lo[0]
		i1 = iv[1] - b.Lo[1]
		i2 = iv[2] - b.Lo[2]
	)
	return i0 + b.Size(0)*(i1+b.Size(1)*i2)
}

// IntVect inverts Index.
func (b Box) IntVect(flat int) (iv IntVect) {
	var (
		n0 = b.Size(0)
		n1 = b.Size(1)
	)
	iv[0] = b.Lo[0] + flat%n0
	flat /= n0
	iv[1] = b.Lo[1] + flat%n1
	iv[2] = b.Lo[2] + flat/n1
	return
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
