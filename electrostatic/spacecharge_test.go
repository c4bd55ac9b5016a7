package electrostatic

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/jcarlsson-aed/WarpX/mesh"
	"github.com/jcarlsson-aed/WarpX/particles"
	"github.com/jcarlsson-aed/WarpX/physconst"
	"github.com/jcarlsson-aed/WarpX/poisson"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func yeeE(g *mesh.Geometry, cells mesh.Box, ng int) (E [3]*mesh.Field) {
	dirs := g.Dirs()
	for c := 0; c < 3; c++ {
		E[c] = mesh.NewField(cells, mesh.YeeE(mesh.Direction(c), dirs), ng, 1)
	}
	return
}

func fillRandom(F [3]*mesh.Field, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for _, f := range F {
		d := f.Comp(0)
		for i := range d {
			d[i] = 2*rng.Float64() - 1
		}
	}
}

func TestZeroChargeLeavesFieldUntouched(t *testing.T) {
	// An empty population deposits nothing; the all-periodic solve converges
	// trivially to zero potential and the accumulation must preserve every
	// stored bit of the prior field.
	var (
		g = mesh.NewGeometry(2, mesh.IntVect{8, 6, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 0.75, 0}, [3]bool{true, true, false}, mesh.Cartesian)
		pc = particles.NewContainer(2, -physconst.Qe, physconst.Me)
		E  = yeeE(g, g.Domain(0), 1)
	)
	fillRandom(E, 3)
	var want [3][]float64
	for c := 0; c < 3; c++ {
		want[c] = append([]float64(nil), E[c].Comp(0)...)
	}

	err := InitSpaceChargeField(g, pc, [][3]*mesh.Field{E}, &poisson.CGSolver{}, DefaultOpts())
	assert.NoError(t, err)
	for c := 0; c < 3; c++ {
		assert.Equal(t, want[c], E[c].Comp(0))
	}
}

func TestComputeEBetaZeroGradient(t *testing.T) {
	// At beta = 0 the update is E_c += -dphi/dx_c through the one-point
	// staggered difference, which is exact for this quadratic potential at
	// the staggered evaluation points. The y component has no grid axis in
	// 2-D and must stay untouched.
	var (
		g = mesh.NewGeometry(2, mesh.IntVect{8, 6, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 0.75, 0}, [3]bool{}, mesh.Cartesian)
		dx  = g.CellSize(0)
		phi = mesh.NewField(g.Domain(0), mesh.NodeAll, 1, 1)
		E   = yeeE(g, g.Domain(0), 1)
	)
	full := phi.FullBox()
	for k := 0; k < full.NumPts(); k++ {
		iv := full.IntVect(k)
		x, z := float64(iv[0])*dx[0], float64(iv[1])*dx[1]
		phi.Set(0, iv, 0.3*x*x+0.7*z+0.1*x*z)
	}

	computeE(g, [][3]*mesh.Field{E}, []*mesh.Field{phi}, [3]float64{})

	{ // Ex = -dphi/dx at (i+1/2, j)
		f := E[mesh.X]
		for k := 0; k < f.Valid.NumPts(); k++ {
			iv := f.Valid.IntVect(k)
			xc, z := (float64(iv[0])+0.5)*dx[0], float64(iv[1])*dx[1]
			assert.True(t, near(-(0.6*xc+0.1*z), f.At(0, iv)), "Ex at %v", iv)
		}
	}
	{ // Ez = -dphi/dz at (i, j+1/2)
		f := E[mesh.Z]
		for k := 0; k < f.Valid.NumPts(); k++ {
			iv := f.Valid.IntVect(k)
			x := float64(iv[0]) * dx[0]
			assert.True(t, near(-(0.7+0.1*x), f.At(0, iv)), "Ez at %v", iv)
		}
	}
	for _, v := range E[mesh.Y].Comp(0) {
		assert.Equal(t, 0., v)
	}
}

func TestComputeEDriftCoefficients(t *testing.T) {
	// phi linear in z with beta = (0, 0.3, 0.6): both difference stencils
	// return the exact slope, so Ey gains beta_y*beta_z*slope and Ez gains
	// (beta_z*beta_z - 1)*slope on top of the preexisting field. A
	// (beta_y*beta_z - 1) z-coefficient would land elsewhere.
	var (
		g = mesh.NewGeometry(3, mesh.IntVect{4, 4, 4},
			[3]float64{0, 0, 0}, [3]float64{1, 1, 1}, [3]bool{}, mesh.Cartesian)
		dx    = g.CellSize(0)
		phi   = mesh.NewField(g.Domain(0), mesh.NodeAll, 1, 1)
		E     = yeeE(g, g.Domain(0), 1)
		beta  = [3]float64{0, 0.3, 0.6}
		slope = 0.8
	)
	full := phi.FullBox()
	for k := 0; k < full.NumPts(); k++ {
		iv := full.IntVect(k)
		phi.Set(0, iv, slope*float64(iv[2])*dx[2])
	}
	for c := 0; c < 3; c++ {
		E[c].SetVal(1.5)
	}

	computeE(g, [][3]*mesh.Field{E}, []*mesh.Field{phi}, beta)

	probe := mesh.IntVect{2, 2, 2}
	assert.True(t, near(1.5, E[mesh.X].At(0, probe)))
	assert.True(t, near(1.5+0.3*0.6*slope, E[mesh.Y].At(0, probe)))
	assert.True(t, near(1.5+(0.6*0.6-1)*slope, E[mesh.Z].At(0, probe)))
	assert.False(t, near(1.5+(0.3*0.6-1)*slope, E[mesh.Z].At(0, probe)))
	{ // boundary nodes see the same uniform slope through the halo
		f := E[mesh.Y]
		for k := 0; k < f.Valid.NumPts(); k++ {
			iv := f.Valid.IntVect(k)
			assert.True(t, near(1.5+0.3*0.6*slope, f.At(0, iv)), "Ey at %v", iv)
		}
	}
}

func TestComputeEUsesLevelPotential(t *testing.T) {
	// The refined level must read its own potential: with phi flat on the
	// coarse level and sloped on the fine patch, only the fine field moves.
	var (
		g = mesh.NewGeometry(2, mesh.IntVect{8, 8, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 1, 0}, [3]bool{}, mesh.Cartesian)
		patch = mesh.NewBox(mesh.IntVect{4, 4, 0}, mesh.IntVect{11, 11, 0}, 2)
	)
	g.AddRefinedLevel(2)
	var (
		dx1  = g.CellSize(1)
		phi0 = mesh.NewField(g.Domain(0), mesh.NodeAll, 1, 1)
		phi1 = mesh.NewField(patch, mesh.NodeAll, 1, 1)
		E0   = yeeE(g, g.Domain(0), 1)
		E1   = yeeE(g, patch, 1)
	)
	full := phi1.FullBox()
	for k := 0; k < full.NumPts(); k++ {
		iv := full.IntVect(k)
		phi1.Set(0, iv, 0.5*float64(iv[0])*dx1[0])
	}

	computeE(g, [][3]*mesh.Field{E0, E1}, []*mesh.Field{phi0, phi1}, [3]float64{})

	for k := 0; k < E1[mesh.X].Valid.NumPts(); k++ {
		iv := E1[mesh.X].Valid.IntVect(k)
		assert.True(t, near(-0.5, E1[mesh.X].At(0, iv)), "fine Ex at %v", iv)
	}
	for _, v := range E0[mesh.X].Comp(0) {
		assert.Equal(t, 0., v)
	}
}

func TestInitSpaceChargePointCharge(t *testing.T) {
	// Unit charge on the center node of a conductor-free Dirichlet line: the
	// discrete potential is piecewise linear, so Ez is exactly -Q/(2 ep0) on
	// the left half and +Q/(2 ep0) on the right.
	var (
		g = mesh.NewGeometry(1, mesh.IntVect{16, 0, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]bool{}, mesh.Cartesian)
		pc = particles.NewContainer(1, 1, 1)
		E  = yeeE(g, g.Domain(0), 1)
		e0 = 1 / (2 * physconst.Ep0)
	)
	pc.Add([3]float64{0.5, 0, 0}, [3]float64{}, 1)

	err := InitSpaceChargeField(g, pc, [][3]*mesh.Field{E}, &poisson.CGSolver{}, DefaultOpts())
	assert.NoError(t, err)
	ez := E[mesh.Z]
	for i := 0; i < 16; i++ {
		want := e0
		if i < 8 {
			want = -e0
		}
		assert.True(t, near(want, ez.At(0, mesh.IntVect{i, 0, 0}), 1.e-06), "Ez cell %d", i)
	}

	{ // a second pass accumulates on top of whatever the field holds
		E2 := yeeE(g, g.Domain(0), 1)
		E2[mesh.Z].SetVal(1)
		err = InitSpaceChargeField(g, pc, [][3]*mesh.Field{E2}, &poisson.CGSolver{}, DefaultOpts())
		assert.NoError(t, err)
		for i := 0; i < 16; i++ {
			iv := mesh.IntVect{i, 0, 0}
			assert.True(t, near(1+ez.At(0, iv), E2[mesh.Z].At(0, iv), 1.e-09))
		}
	}
}

func TestInitSpaceChargeRZ(t *testing.T) {
	var (
		g = mesh.NewGeometry(2, mesh.IntVect{8, 6, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 0.75, 0}, [3]bool{}, mesh.RZ)
		pc = particles.NewContainer(2, physconst.Qe, physconst.Mp)
		E  = yeeE(g, g.Domain(0), 1)
	)
	fillRandom(E, 11)
	want := append([]float64(nil), E[0].Comp(0)...)

	err := InitSpaceChargeField(g, pc, [][3]*mesh.Field{E}, &poisson.CGSolver{}, DefaultOpts())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedGeometry))
	assert.Equal(t, want, E[0].Comp(0))
}

func TestInitSpaceChargeDivergenceFatal(t *testing.T) {
	var (
		g = mesh.NewGeometry(1, mesh.IntVect{16, 0, 0},
			[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]bool{}, mesh.Cartesian)
		pc   = particles.NewContainer(1, 1, 1)
		E    = yeeE(g, g.Domain(0), 1)
		opts = DefaultOpts()
	)
	pc.Add([3]float64{0.5, 0, 0}, [3]float64{}, 1)
	opts.MaxIter = 1

	err := InitSpaceChargeField(g, pc, [][3]*mesh.Field{E}, &poisson.CGSolver{}, opts)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, poisson.ErrDivergence))
	assert.Contains(t, err.Error(), "level 0")
}

func TestInterpBoundary(t *testing.T) {
	// An index-linear coarse potential interpolates exactly onto the fine
	// patch faces and their halo; interior nodes stay the solver's to fill.
	var (
		ccells = mesh.NewBox(mesh.IntVect{0, 0, 0}, mesh.IntVect{7, 7, 0}, 2)
		fcells = mesh.NewBox(mesh.IntVect{4, 4, 0}, mesh.IntVect{11, 11, 0}, 2)
		coarse = mesh.NewField(ccells, mesh.NodeAll, 1, 1)
		exact  = func(iv mesh.IntVect) float64 {
			return 0.25*float64(iv[0])/2 + 0.375*float64(iv[1])/2
		}
	)
	cf := coarse.FullBox()
	for k := 0; k < cf.NumPts(); k++ {
		iv := cf.IntVect(k)
		coarse.Set(0, iv, 0.25*float64(iv[0])+0.375*float64(iv[1]))
	}

	{ // Dirichlet on both axes writes every face and halo node
		fine := mesh.NewField(fcells, mesh.NodeAll, 1, 1)
		interpBoundary(fine, coarse, 2, [3]poisson.BCKind{poisson.BCDirichlet, poisson.BCDirichlet})
		full := fine.FullBox()
		for k := 0; k < full.NumPts(); k++ {
			iv := full.IntVect(k)
			onFace := iv[0] <= 4 || iv[0] >= 12 || iv[1] <= 4 || iv[1] >= 12
			if onFace {
				assert.True(t, near(exact(iv), fine.At(0, iv)), "face node %v", iv)
			} else {
				assert.Equal(t, 0., fine.At(0, iv))
			}
		}
	}
	{ // a periodic axis keeps its faces for the wrap
		fine := mesh.NewField(fcells, mesh.NodeAll, 1, 1)
		interpBoundary(fine, coarse, 2, [3]poisson.BCKind{poisson.BCPeriodic, poisson.BCDirichlet})
		assert.Equal(t, 0., fine.At(0, mesh.IntVect{3, 7, 0}))
		assert.Equal(t, 0., fine.At(0, mesh.IntVect{12, 7, 0}))
		assert.True(t, near(exact(mesh.IntVect{7, 12, 0}), fine.At(0, mesh.IntVect{7, 12, 0})))
		assert.True(t, near(exact(mesh.IntVect{3, 13, 0}), fine.At(0, mesh.IntVect{3, 13, 0})))
	}
}

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol float64
	)
	if len(tolI) == 0 {
		tol = 1.e-08
	} else {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	if math.Abs(a-b) <= bound {
		l = true
	}
	return
}
