package boundary

import (
	"fmt"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// PatchType selects which resolution alias of a level a correction applies
// to. The coarse patch of level lev lives at level lev-1 resolution.
type PatchType uint8

const (
	FinePatch PatchType = iota
	CoarsePatch
)

// ApplyPECtoEfield enforces the perfect-conductor condition on the three
// electric field components of one level. Tangential components are zeroed
// on the conductor plane and extended antisymmetrically into the guard
// region; the normal component keeps its surface value and extends
// symmetrically, so gather stencils straddling the surface see the fields
// of an ideal conductor. Components are updated in place over their valid
// box grown by ngGather, except split sub-fields (splitField), which update
// exactly their declared region. The pass is idempotent: zeroing the
// conductor plane takes precedence over mirroring, and mirror sources are
// never rewritten by the same pass.
func ApplyPECtoEfield(E [3]*mesh.Field, g *mesh.Geometry, tb Table,
	lev int, patch PatchType, ngGather int, splitField bool) {
	applyPEC(E, g, tb, lev, patch, ngGather, splitField, true)
}

// ApplyPECtoBfield is the magnetic dual of ApplyPECtoEfield: the normal
// component is zeroed on the conductor plane and mirrored antisymmetrically,
// tangential components mirror symmetrically. There is no split variant.
func ApplyPECtoBfield(B [3]*mesh.Field, g *mesh.Geometry, tb Table,
	lev int, patch PatchType, ngGather int) {
	applyPEC(B, g, tb, lev, patch, ngGather, false, false)
}

func applyPEC(F [3]*mesh.Field, g *mesh.Geometry, tb Table,
	lev int, patch PatchType, ngGather int, splitField, electric bool) {
	var (
		dom  = domainBox(g, lev, patch)
		dirs = g.Dirs()
	)
	for a := 0; a < g.NDim; a++ {
		if (tb.IsPEC(a, 0) || tb.IsPEC(a, 1)) && g.Periodic(a) {
			panic(fmt.Sprintf("axis %d is both periodic and PEC", a))
		}
		if dom.Size(a) <= ngGather {
			panic(fmt.Sprintf("domain axis %d thinner than the %d-point gather halo", a, ngGather))
		}
	}
	for c := 0; c < 3; c++ {
		f := F[c]
		if f == nil {
			continue
		}
		if ngGather > f.Nghost {
			panic(fmt.Sprintf("gather halo %d exceeds field halo %d", ngGather, f.Nghost))
		}
		var (
			cdir = mesh.Direction(c)
			iter = f.Valid
		)
		if !splitField {
			iter = iter.Grow(ngGather)
		}
		for n := 0; n < f.NComp; n++ {
			mesh.ParallelFor(iter, func(iv mesh.IntVect) {
				onBoundary, guard, mirror, sign := pecStencil(iv, dom, f.Stag, tb, dirs, cdir, electric)
				switch {
				case onBoundary:
					f.Set(n, iv, 0)
				case guard:
					f.Set(n, iv, sign*f.At(n, mirror))
				}
			})
		}
	}
}

// pecStencil classifies one point against every PEC face. ig counts points
// past the boundary plane along an axis, staggering-aware: the plane itself
// is ig = 0 for node-centered components, the first cell inside is ig = 0
// for cell-centered ones. Guard points mirror across the plane of every PEC
// axis they lie beyond, the sign flipping once per antisymmetric axis
// (tangential for E, normal for B). On-boundary zeroing wins over
// mirroring, which is what keeps one pass race-free: a mirror source the
// pass rewrites would imply the reading point is itself on a conductor
// plane, where it zeroes instead of reading.
func pecStencil(iv mesh.IntVect, dom mesh.Box, stag mesh.Staggering,
	tb Table, dirs []mesh.Direction, cdir mesh.Direction,
	electric bool) (onBoundary, guard bool, mirror mesh.IntVect, sign float64) {
	mirror, sign = iv, 1
	for a := 0; a < dom.NDim; a++ {
		var (
			nodal = stag[a]
			s     = 0
			flip  bool
		)
		if nodal {
			s = 1
		}
		if electric {
			flip = dirs[a] != cdir // tangential E is antisymmetric
		} else {
			flip = dirs[a] == cdir // normal B is antisymmetric
		}
		if tb.IsPEC(a, 0) {
			ig := dom.Lo[a] - iv[a]
			if ig == 0 && nodal && flip {
				onBoundary = true
			} else if ig > 0 {
				guard = true
				mirror[a] = dom.Lo[a] + ig - (1 - s)
				if flip {
					sign = -sign
				}
			}
		}
		if tb.IsPEC(a, 1) {
			ig := iv[a] - dom.Hi[a] - s
			if ig == 0 && nodal && flip {
				onBoundary = true
			} else if ig > 0 {
				guard = true
				mirror[a] = dom.Hi[a] + 1 - ig
				if flip {
					sign = -sign
				}
			}
		}
	}
	return
}

// domainBox returns the whole-domain cell box at the resolution the patch
// lives at: level resolution for the fine patch, one refinement ratio
// coarser for the coarse patch alias.
func domainBox(g *mesh.Geometry, lev int, patch PatchType) mesh.Box {
	if patch == CoarsePatch {
		if lev == 0 {
			panic("level 0 has no coarse patch")
		}
		return g.Domain(lev).Coarsen(g.RefRatio(lev - 1))
	}
	return g.Domain(lev)
}
