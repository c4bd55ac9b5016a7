// Package poisson assembles and solves the boosted-frame generalized
// Poisson operator sum_ab (delta_ab - beta_a beta_b) d_a d_b on the
// node-centered potential of one mesh level. The drift correction makes the
// operator anisotropic; at beta = 0 it reduces to the ordinary Laplacian.
package poisson

import (
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// BCKind selects the boundary treatment of one grid axis.
type BCKind uint8

const (
	// BCPeriodic wraps the axis; the duplicated high node is an alias of
	// the low one.
	BCPeriodic BCKind = iota
	// BCDirichlet pins the two boundary-plane nodes to the values already
	// stored in the potential, excluding them from the unknowns.
	BCDirichlet
)

// nodeMap relates grid nodes to the flat unknown indices of the linear
// system: canonical nodes inside the patch, minus pinned Dirichlet planes,
// minus duplicated periodic layers.
type nodeMap struct {
	cells mesh.Box
	u     mesh.Box // canonical unknown box in node index space
	bcs   [3]BCKind
}

func newNodeMap(cells mesh.Box, bcs [3]BCKind) (nm nodeMap) {
	nm = nodeMap{cells: cells, u: cells, bcs: bcs}
	for a := 0; a < cells.NDim; a++ {
		if bcs[a] == BCDirichlet {
			nm.u.Lo[a]++ // boundary nodes Lo and Hi+1 are pinned
		}
		// periodic axes keep [Lo,Hi]: node Hi+1 duplicates node Lo
	}
	return
}

func (nm nodeMap) n() int { return nm.u.NumPts() }

// resolve canonicalizes a node index: periodic axes wrap, and unknown
// reports whether the node is a solver unknown rather than a pinned
// Dirichlet value. The returned index is always inside the potential's
// valid box.
func (nm nodeMap) resolve(iv mesh.IntVect) (canon mesh.IntVect, unknown bool) {
	canon, unknown = iv, true
	for a := 0; a < nm.cells.NDim; a++ {
		switch nm.bcs[a] {
		case BCPeriodic:
			n := nm.cells.Size(a)
			m := (iv[a] - nm.cells.Lo[a]) % n
			if m < 0 {
				m += n
			}
			canon[a] = nm.cells.Lo[a] + m
		case BCDirichlet:
			if iv[a] == nm.cells.Lo[a] || iv[a] == nm.cells.Hi[a]+1 {
				unknown = false
			}
		}
	}
	return
}

func (nm nodeMap) allPeriodic() bool {
	for a := 0; a < nm.cells.NDim; a++ {
		if nm.bcs[a] != BCPeriodic {
			return false
		}
	}
	return true
}

// buildSystem assembles the negated discrete operator
//
//	M = sum_a (beta_a^2 - 1) d_a^2 + sum_{a<b} 2 beta_a beta_b d_a d_b
//
// which is symmetric positive definite for |beta| < 1, along with the
// right-hand side b = -rhs adjusted for pinned boundary values read from
// phi. Second derivatives use the three-point stencil, cross derivatives
// the four-corner one.
func buildSystem(nm nodeMap, phi, rhs *mesh.Field, dx [3]float64,
	beta [3]float64) (M *sparse.CSR, b []float64) {
	var (
		n    = nm.n()
		ndim = nm.cells.NDim
		dok  = sparse.NewDOK(n, n)
	)
	b = make([]float64, n)
	addEntry := func(ui int, jv mesh.IntVect, coef float64) {
		canon, unknown := nm.resolve(jv)
		if unknown {
			uj := nm.u.Index(canon)
			dok.Set(ui, uj, dok.At(ui, uj)+coef)
			return
		}
		b[ui] -= coef * phi.At(0, canon)
	}
	for k := 0; k < n; k++ {
		iv := nm.u.IntVect(k)
		b[k] = -rhs.At(0, iv)
		for a := 0; a < ndim; a++ {
			ca := (1 - beta[a]*beta[a]) / (dx[a] * dx[a])
			addEntry(k, iv, 2*ca)
			addEntry(k, iv.Shift(a, -1), -ca)
			addEntry(k, iv.Shift(a, 1), -ca)
			for bx := a + 1; bx < ndim; bx++ {
				cab := beta[a] * beta[bx] / (2 * dx[a] * dx[bx])
				if cab == 0 {
					continue
				}
				addEntry(k, iv.Shift(a, 1).Shift(bx, 1), cab)
				addEntry(k, iv.Shift(a, -1).Shift(bx, -1), cab)
				addEntry(k, iv.Shift(a, 1).Shift(bx, -1), -cab)
				addEntry(k, iv.Shift(a, -1).Shift(bx, 1), -cab)
			}
		}
	}
	return dok.ToCSR(), b
}

// matVec applies y = M x through the nonzero walker, keeping the hot loop
// allocation-free.
func matVec(M *sparse.CSR, x, y []float64) {
	for i := range y {
		y[i] = 0
	}
	M.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
}

// scatter writes the solved unknowns back into the potential and refreshes
// the duplicated periodic node layers from their canonical images.
func scatter(nm nodeMap, phi *mesh.Field, x []float64) {
	for k := 0; k < nm.n(); k++ {
		phi.Set(0, nm.u.IntVect(k), x[k])
	}
	valid := phi.Valid
	for k := 0; k < valid.NumPts(); k++ {
		iv := valid.IntVect(k)
		canon, unknown := nm.resolve(iv)
		if unknown && canon != iv {
			phi.Set(0, iv, phi.At(0, canon))
		}
	}
}

func checkInputs(phi, rhs *mesh.Field, beta [3]float64) {
	var betaSq float64
	for a := 0; a < phi.CellBox.NDim; a++ {
		if !phi.Stag[a] || !rhs.Stag[a] {
			panic("potential solve needs node-centered fields")
		}
		betaSq += beta[a] * beta[a]
	}
	if betaSq >= 1 {
		panic(fmt.Sprintf("drift beta with squared magnitude %.3f not below 1", betaSq))
	}
	if phi.CellBox != rhs.CellBox {
		panic("potential and charge density live on different boxes")
	}
}
