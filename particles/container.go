// Package particles holds a particle population in struct-of-arrays layout
// and the grid couplings the field initialization needs: spline charge
// deposition and the drift-velocity reduction.
package particles

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/jcarlsson-aed/WarpX/mesh"
)

// Container is one species. Positions are stored per grid axis, velocities
// always carry all three Cartesian components regardless of grid
// dimensionality.
type Container struct {
	Charge, Mass float64
	Pos          [3][]float64 // by grid axis, inactive axes nil
	Vel          [3][]float64 // by Cartesian direction
	Wgt          []float64
	ndim         int
}

func NewContainer(ndim int, charge, mass float64) (pc *Container) {
	pc = &Container{
		Charge: charge,
		Mass:   mass,
		ndim:   ndim,
	}
	return
}

func (pc *Container) N() int { return len(pc.Wgt) }

func (pc *Container) NDim() int { return pc.ndim }

// Add appends one particle. pos is indexed by grid axis, vel by Cartesian
// direction, w is the macroparticle weight (real particles represented).
func (pc *Container) Add(pos [3]float64, vel [3]float64, w float64) {
	for a := 0; a < pc.ndim; a++ {
		pc.Pos[a] = append(pc.Pos[a], pos[a])
	}
	for d := 0; d < 3; d++ {
		pc.Vel[d] = append(pc.Vel[d], vel[d])
	}
	pc.Wgt = append(pc.Wgt, w)
}

// TotalCharge returns the summed macroparticle charge.
func (pc *Container) TotalCharge() float64 {
	return pc.Charge * floats.Sum(pc.Wgt)
}

// MeanVelocity returns the weight-averaged velocity of the population. The
// local flag mirrors the distributed reduction of the original layout; in
// process-local execution the local sum is already the global one.
func (pc *Container) MeanVelocity(local bool) (vbar [3]float64) {
	if pc.N() == 0 {
		return
	}
	wsum := floats.Sum(pc.Wgt)
	for d := 0; d < 3; d++ {
		vbar[d] = floats.Dot(pc.Wgt, pc.Vel[d]) / wsum
	}
	return
}

// NewGaussianBeam fills a container with a Gaussian bunch clipped to the
// domain interior: np macroparticles around center with spatial spread
// sigma (both by grid axis), a shared drift velocity, and weights that make
// the bunch carry qtot in total. The seed fixes the draw.
func NewGaussianBeam(g *mesh.Geometry, np int, charge, mass, qtot float64,
	center, sigma [3]float64, drift [3]float64, seed int64) (pc *Container) {
	var (
		rng = rand.New(rand.NewSource(seed))
		w   = qtot / (charge * float64(np))
	)
	pc = NewContainer(g.NDim, charge, mass)
	for i := 0; i < np; i++ {
		var pos [3]float64
		for a := 0; a < g.NDim; a++ {
			x := center[a] + sigma[a]*rng.NormFloat64()
			// resample rather than clip so the bunch stays Gaussian inside
			for x <= g.ProbLo[a] || x >= g.ProbHi[a] {
				x = center[a] + sigma[a]*rng.NormFloat64()
			}
			pos[a] = x
		}
		pc.Add(pos, drift, w)
	}
	return
}
