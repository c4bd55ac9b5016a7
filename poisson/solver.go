package poisson

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// ErrDivergence marks a potential solve that failed to reach its tolerance.
// Callers treat it as fatal; there is no degraded-result path.
var ErrDivergence = errors.New("potential solve did not converge")

// TensorSolver solves the boosted-frame Poisson problem on one level. On
// entry phi holds the pinned Dirichlet boundary values (zero or coarse-
// interpolated) and rhs the node-centered charge density; on success phi's
// valid nodes hold the potential. Convergence means the residual 2-norm
// fell to max(RelTol*|b|, AbsTol); a zero right-hand side converges
// trivially.
type TensorSolver interface {
	Solve(phi, rhs *mesh.Field, dx [3]float64, bcs [3]BCKind,
		beta [3]float64, opts SolveOpts) (Stats, error)
}

type SolveOpts struct {
	RelTol, AbsTol float64
	MaxIter        int // 0 means DefaultMaxIter
	Verbose        bool
}

type Stats struct {
	Iterations int
	Residual   float64
}

// DefaultMaxIter bounds the conjugate-gradient iteration when the caller
// does not.
const DefaultMaxIter = 10000

// CGSolver runs conjugate gradients on the equivalent symmetric
// positive-definite system. Fully periodic problems are singular up to
// constants; the right-hand side and the iterates are projected to zero
// mean, which amounts to a uniform neutralizing background.
type CGSolver struct {
	Verbose bool
}

func (c *CGSolver) Solve(phi, rhs *mesh.Field, dx [3]float64, bcs [3]BCKind,
	beta [3]float64, opts SolveOpts) (stats Stats, err error) {
	checkInputs(phi, rhs, beta)
	var (
		nm       = newNodeMap(phi.CellBox, bcs)
		M, b     = buildSystem(nm, phi, rhs, dx, beta)
		n        = nm.n()
		singular = nm.allPeriodic()
		maxIter  = opts.MaxIter
	)
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	if singular {
		project(b)
	}
	var (
		x  = make([]float64, n)
		r  = append([]float64(nil), b...)
		p  = append([]float64(nil), b...)
		mp = make([]float64, n)
	)
	bnorm := floats.Norm(b, 2)
	tol := opts.RelTol * bnorm
	if opts.AbsTol > tol {
		tol = opts.AbsTol
	}
	rs := floats.Dot(r, r)
	stats.Residual = bnorm
	for stats.Residual > tol {
		if stats.Iterations == maxIter {
			return stats, fmt.Errorf("residual %.3e after %d iterations (target %.3e): %w",
				stats.Residual, stats.Iterations, tol, ErrDivergence)
		}
		matVec(M, p, mp)
		pmp := floats.Dot(p, mp)
		if pmp <= 0 || pmp != pmp {
			return stats, fmt.Errorf("indefinite search direction at iteration %d: %w",
				stats.Iterations, ErrDivergence)
		}
		alpha := rs / pmp
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, mp)
		if singular {
			project(r)
		}
		rsNew := floats.Dot(r, r)
		floats.AddScaledTo(p, r, rsNew/rs, p)
		rs = rsNew
		stats.Iterations++
		stats.Residual = floats.Norm(r, 2)
		if stats.Residual != stats.Residual {
			return stats, fmt.Errorf("residual is NaN at iteration %d: %w",
				stats.Iterations, ErrDivergence)
		}
		if (c.Verbose || opts.Verbose) && stats.Iterations%50 == 0 {
			fmt.Printf("cg[%4d] resid = %12.6e\n", stats.Iterations, stats.Residual)
		}
	}
	if singular {
		project(x)
	}
	scatter(nm, phi, x)
	return stats, nil
}

// DenseSolver factors the operator with a dense Cholesky decomposition. It
// exists to cross-check the conjugate-gradient path on small problems and
// requires at least one Dirichlet axis so the system is definite.
type DenseSolver struct{}

func (d *DenseSolver) Solve(phi, rhs *mesh.Field, dx [3]float64, bcs [3]BCKind,
	beta [3]float64, opts SolveOpts) (stats Stats, err error) {
	checkInputs(phi, rhs, beta)
	nm := newNodeMap(phi.CellBox, bcs)
	if nm.allPeriodic() {
		panic("dense solve needs at least one Dirichlet axis")
	}
	var (
		M, b = buildSystem(nm, phi, rhs, dx, beta)
		n    = nm.n()
		sym  = mat.NewSymDense(n, nil)
	)
	M.DoNonZero(func(i, j int, v float64) {
		if j >= i {
			sym.SetSym(i, j, v)
		}
	})
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return stats, fmt.Errorf("operator not positive definite: %w", ErrDivergence)
	}
	var xv mat.VecDense
	if err = chol.SolveVecTo(&xv, mat.NewVecDense(n, b)); err != nil {
		return stats, fmt.Errorf("dense solve: %w", ErrDivergence)
	}
	x := xv.RawVector().Data
	r := make([]float64, n)
	matVec(M, x, r)
	floats.Sub(r, b)
	stats.Residual = floats.Norm(r, 2)
	scatter(nm, phi, x)
	return stats, nil
}

// project removes the mean component, the nullspace of the fully periodic
// operator.
func project(v []float64) {
	m := floats.Sum(v) / float64(len(v))
	for i := range v {
		v[i] -= m
	}
}
