// Package electrostatic initializes the space-charge field of a particle
// population: deposit the charge onto the mesh, solve the drift-corrected
// Poisson equation for the potential, and accumulate the resulting electric
// field onto the simulation's Yee-staggered components.
package electrostatic

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jcarlsson-aed/WarpX/mesh"
	"github.com/jcarlsson-aed/WarpX/particles"
	"github.com/jcarlsson-aed/WarpX/physconst"
	"github.com/jcarlsson-aed/WarpX/poisson"
)

// ErrUnsupportedGeometry rejects coordinate systems the space-charge
// initialization has no solver for.
var ErrUnsupportedGeometry = errors.New("space-charge initialization not implemented in RZ geometry")

type Opts struct {
	ShapeOrder     int // deposition spline order, 1 to 3
	RelTol, AbsTol float64
	MaxIter        int
	Verbose        bool
}

func DefaultOpts() Opts {
	return Opts{ShapeOrder: 1, RelTol: 1.e-11, AbsTol: 0}
}

// InitSpaceChargeField adds the static self-field of the population pc to
// the per-level electric fields E, assuming the source drifts uniformly at
// the population's mean velocity. Charge and potential are scratch fields
// allocated on each level's field patch. A solver failure propagates up as
// an error; there is no degraded-result path.
func InitSpaceChargeField(g *mesh.Geometry, pc *particles.Container,
	E [][3]*mesh.Field, slv poisson.TensorSolver, opts Opts) error {
	if g.Coord == mesh.RZ {
		return fmt.Errorf("space-charge init: %w", ErrUnsupportedGeometry)
	}
	if len(E) != g.NumLevels() {
		panic("need one electric field set per level")
	}
	var (
		nlev = g.NumLevels()
		rho  = make([]*mesh.Field, nlev)
		phi  = make([]*mesh.Field, nlev)
	)
	for lev := 0; lev < nlev; lev++ {
		cells := E[lev][0].CellBox
		rho[lev] = mesh.NewField(cells, mesh.NodeAll, opts.ShapeOrder, 1)
		phi[lev] = mesh.NewField(cells, mesh.NodeAll, 1, 1)
	}
	pc.DepositCharge(rho, g, opts.ShapeOrder, false, true)

	var (
		vbar   = pc.MeanVelocity(false)
		beta   [3]float64
		betaSq float64
	)
	for d := range beta {
		beta[d] = vbar[d] / physconst.C
		betaSq += beta[d] * beta[d]
	}
	if betaSq >= 1 {
		panic(fmt.Sprintf("mean drift speed %.6e not below the speed of light",
			math.Sqrt(betaSq)*physconst.C))
	}
	logrus.Debugf("space charge: total charge %.6e C, beta = [%.4e %.4e %.4e]",
		pc.TotalCharge(), beta[0], beta[1], beta[2])

	if err := computePhi(g, rho, phi, beta, slv, opts); err != nil {
		return err
	}
	computeE(g, E, phi, beta)
	return nil
}

// computePhi solves, level by level, the drift-corrected Poisson equation
//
//	del^2 psi - (beta . del)^2 psi = rho
//
// with periodic conditions where the mesh wraps and homogeneous Dirichlet
// elsewhere (an approximation for open boundaries), then rescales the
// converged potential by -1/ep0 and fills its one halo layer. Finer levels
// pin their patch faces to the interpolated solution of the level below.
func computePhi(g *mesh.Geometry, rho, phi []*mesh.Field, beta [3]float64,
	slv poisson.TensorSolver, opts Opts) error {
	var (
		dirs = g.Dirs()
		sop  = poisson.SolveOpts{RelTol: opts.RelTol, AbsTol: opts.AbsTol,
			MaxIter: opts.MaxIter, Verbose: opts.Verbose}
	)
	for lev := range phi {
		var (
			bcs  [3]poisson.BCKind
			bsol [3]float64
		)
		for a := 0; a < g.NDim; a++ {
			bsol[a] = beta[dirs[a]]
			if g.Periodic(a) && spansDomain(phi[lev], g, lev, a) {
				bcs[a] = poisson.BCPeriodic
			} else {
				bcs[a] = poisson.BCDirichlet
			}
		}
		if lev > 0 {
			interpBoundary(phi[lev], phi[lev-1], g.RefRatio(lev-1), bcs)
		}
		stats, err := slv.Solve(phi[lev], rho[lev], g.CellSize(lev), bcs, bsol, sop)
		if err != nil {
			return fmt.Errorf("level %d potential solve: %w", lev, err)
		}
		logrus.Infof("level %d potential solve: %d iterations, residual %.3e",
			lev, stats.Iterations, stats.Residual)
	}
	for lev := range phi {
		phi[lev].Scale(-1 / physconst.Ep0)
		phi[lev].FillBoundary(g, lev)
	}
	return nil
}

// spansDomain reports whether the field covers the whole level domain along
// axis a; only spanning patches can wrap periodically.
func spansDomain(f *mesh.Field, g *mesh.Geometry, lev, a int) bool {
	dom := g.Domain(lev)
	return f.CellBox.Lo[a] == dom.Lo[a] && f.CellBox.Hi[a] == dom.Hi[a]
}

// interpBoundary pins the fine patch's Dirichlet face nodes, and the halo
// beyond them, to the linearly interpolated coarse potential, so a refined
// solve sees the level below as its boundary condition. Periodic faces wrap
// instead and are left alone.
func interpBoundary(fine, coarse *mesh.Field, ratio int, bcs [3]poisson.BCKind) {
	var (
		cells = fine.CellBox
		ndim  = cells.NDim
		full  = fine.FullBox()
	)
	outside := func(iv mesh.IntVect) bool {
		for a := 0; a < ndim; a++ {
			if bcs[a] != poisson.BCDirichlet {
				continue
			}
			if iv[a] <= cells.Lo[a] || iv[a] >= cells.Hi[a]+1 {
				return true
			}
		}
		return false
	}
	for k := 0; k < full.NumPts(); k++ {
		iv := full.IntVect(k)
		if outside(iv) {
			fine.Set(0, iv, interpNode(coarse, iv, ratio, ndim))
		}
	}
}

// interpNode evaluates the coarse potential at fine node iv, multilinear
// between the surrounding coarse nodes.
func interpNode(coarse *mesh.Field, iv mesh.IntVect, ratio, ndim int) (v float64) {
	var (
		base mesh.IntVect
		w    = [3][2]float64{{1}, {1}, {1}}
		npt  = [3]int{1, 1, 1}
		cf   = coarse.FullBox()
	)
	for a := 0; a < ndim; a++ {
		base[a] = floorDiv(iv[a], ratio)
		f := float64(iv[a]-base[a]*ratio) / float64(ratio)
		w[a][0], w[a][1] = 1-f, f
		npt[a] = 2
	}
	for i := 0; i < npt[0]; i++ {
		for j := 0; j < npt[1]; j++ {
			for k := 0; k < npt[2]; k++ {
				wt := w[0][i] * w[1][j] * w[2][k]
				if wt == 0 {
					continue
				}
				jv := mesh.IntVect{base[0] + i, base[1] + j, base[2] + k}
				if !cf.Contains(jv) {
					panic(fmt.Sprintf("fine patch not nested: coarse node %v beyond the stored potential", jv))
				}
				v += wt * coarse.At(0, jv)
			}
		}
	}
	return
}

func floorDiv(i, r int) int {
	if i < 0 && i%r != 0 {
		return i/r - 1
	}
	return i / r
}

// computeE accumulates the electric field of the drifting source,
//
//	E_c += sum_a (beta_c beta_a - delta_ca) dphi/dx_a
//
// onto each component's staggered valid box, per level with that level's
// potential and spacing. The gradient uses the one-point staggered
// difference along axes where the component is cell-centered and the
// two-point centered difference where it is node-centered, matching the
// Yee discretization used elsewhere. Components without a grid axis of
// their own (y in 2-D, x and y in 1-D) are not touched.
func computeE(g *mesh.Geometry, E [][3]*mesh.Field, phi []*mesh.Field, beta [3]float64) {
	dirs := g.Dirs()
	for lev := range phi {
		var (
			dx = g.CellSize(lev)
			p  = phi[lev]
		)
		for _, c := range dirs {
			f := E[lev][c]
			if f == nil {
				continue
			}
			if f.CellBox != p.CellBox {
				panic("electric field components live on different patches")
			}
			mesh.ParallelFor(f.Valid, func(iv mesh.IntVect) {
				var sum float64
				for a := 0; a < g.NDim; a++ {
					co := beta[c] * beta[dirs[a]]
					if dirs[a] == c {
						co -= 1
					}
					if co == 0 {
						continue
					}
					var grad float64
					if f.Stag[a] {
						grad = 0.5 * (p.At(0, iv.Shift(a, 1)) - p.At(0, iv.Shift(a, -1))) / dx[a]
					} else {
						grad = (p.At(0, iv.Shift(a, 1)) - p.At(0, iv)) / dx[a]
					}
					sum += co * grad
				}
				f.Add(0, iv, sum)
			})
		}
	}
}
