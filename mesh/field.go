package mesh

import "fmt"

// Field is one staggered field quantity on one refinement level: NComp data
// components sharing a staggering and a halo width, each stored contiguously
// over the staggered valid box grown by Nghost on the active axes. More than
// one component models additively split sub-fields sharing a direction.
type Field struct {
	CellBox Box // cell-space box the field was created on
	Valid   Box // staggered index box of owned points
	Stag    Staggering
	Nghost  int
	NComp   int
	full    Box
	data    [][]float64
}

func NewField(cells Box, stag Staggering, nghost, ncomp int) (f *Field) {
	if nghost < 0 || ncomp < 1 {
		panic(fmt.Sprintf("field with nghost %d, ncomp %d", nghost, ncomp))
	}
	f = &Field{
		CellBox: cells,
		Valid:   cells.Staggered(stag),
		Stag:    stag,
		Nghost:  nghost,
		NComp:   ncomp,
	}
	f.full = f.Valid.Grow(nghost)
	f.data = make([][]float64, ncomp)
	for n := range f.data {
		f.data[n] = make([]float64, f.full.NumPts())
	}
	return
}

// FullBox returns the valid box grown by the halo.
func (f *Field) FullBox() Box { return f.full }

// Comp returns the flat storage of component n, ordered by FullBox.Index.
func (f *Field) Comp(n int) []float64 { return f.data[n] }

func (f *Field) At(n int, iv IntVect) float64 {
	return f.data[n][f.full.Index(iv)]
}

func (f *Field) Set(n int, iv IntVect, v float64) {
	f.data[n][f.full.Index(iv)] = v
}

func (f *Field) Add(n int, iv IntVect, v float64) {
	f.data[n][f.full.Index(iv)] += v
}

// SetVal assigns v to every point of every component, halo included.
func (f *Field) SetVal(v float64) {
	for n := range f.data {
		d := f.data[n]
		for i := range d {
			d[i] = v
		}
	}
}

func (f *Field) Copy() (fc *Field) {
	fc = NewField(f.CellBox, f.Stag, f.Nghost, f.NComp)
	for n := range f.data {
		copy(fc.data[n], f.data[n])
	}
	return
}

// Scale multiplies every point of every component, halo included.
func (f *Field) Scale(v float64) {
	for n := range f.data {
		d := f.data[n]
		for i := range d {
			d[i] *= v
		}
	}
}
