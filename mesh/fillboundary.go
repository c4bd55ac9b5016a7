package mesh

// periodicAxis reports whether the field spans the level domain along axis
// a on a periodic axis, which is when wrap-around applies. Sub-domain
// patches never wrap.
func (f *Field) periodicAxis(g *Geometry, lev, a int) (ok bool, period int) {
	dom := g.Domain(lev)
	if !g.Periodic(a) {
		return
	}
	if f.CellBox.Lo[a] != dom.Lo[a] || f.CellBox.Hi[a] != dom.Hi[a] {
		return
	}
	return true, dom.Size(a)
}

// canonical wraps index i along an axis with the given cell-space origin
// and period. For node-centered axes the high boundary node maps back onto
// the low one.
func canonical(i, lo, period int) int {
	m := (i - lo) % period
	if m < 0 {
		m += period
	}
	return lo + m
}

// FillBoundary copies valid data into the halo across periodic axes, one
// axis at a time so corner points compose the wraps. Halos beyond
// non-periodic faces are left untouched. Runs between parallel passes, so
// it is serial.
func (f *Field) FillBoundary(g *Geometry, lev int) {
	for a := 0; a < f.full.NDim; a++ {
		ok, period := f.periodicAxis(g, lev, a)
		if !ok {
			continue
		}
		var (
			lo      = f.CellBox.Lo[a]
			canonHi = lo + period - 1 // last canonical index, node or cell
		)
		for n := 0; n < f.NComp; n++ {
			d := f.data[n]
			np := f.full.NumPts()
			for k := 0; k < np; k++ {
				iv := f.full.IntVect(k)
				if iv[a] >= lo && iv[a] <= canonHi {
					continue
				}
				src := iv
				src[a] = canonical(iv[a], lo, period)
				d[k] = d[f.full.Index(src)]
			}
		}
	}
}

// SumBoundary folds halo values back into the canonical valid points across
// periodic axes, then makes duplicated node layers agree with their
// canonical images. Charge deposited into the halo near a periodic face
// belongs to the wrapped interior nodes; non-periodic halos keep their
// spill untouched by the fold.
func (f *Field) SumBoundary(g *Geometry, lev int) {
	for a := 0; a < f.full.NDim; a++ {
		ok, period := f.periodicAxis(g, lev, a)
		if !ok {
			continue
		}
		var (
			lo      = f.CellBox.Lo[a]
			canonHi = lo + period - 1
		)
		for n := 0; n < f.NComp; n++ {
			d := f.data[n]
			np := f.full.NumPts()
			for k := 0; k < np; k++ {
				iv := f.full.IntVect(k)
				if iv[a] >= lo && iv[a] <= canonHi {
					continue
				}
				tgt := iv
				tgt[a] = canonical(iv[a], lo, period)
				d[f.full.Index(tgt)] += d[k]
				d[k] = 0
			}
			// duplicated nodal layer mirrors its canonical image
			if f.Stag[a] {
				for k := 0; k < np; k++ {
					iv := f.full.IntVect(k)
					if iv[a] != lo+period {
						continue
					}
					src := iv
					src[a] = lo
					d[k] = d[f.full.Index(src)]
				}
			}
		}
	}
}
