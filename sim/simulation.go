// Package sim assembles one run from input parameters: the mesh hierarchy,
// the Yee-staggered field set, the particle beam, and the initialization
// pipeline that ties them together.
package sim

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	utils2 "github.com/notargets/avs/utils"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/jcarlsson-aed/WarpX/InputParameters"
	"github.com/jcarlsson-aed/WarpX/boundary"
	"github.com/jcarlsson-aed/WarpX/diag"
	"github.com/jcarlsson-aed/WarpX/electrostatic"
	"github.com/jcarlsson-aed/WarpX/mesh"
	"github.com/jcarlsson-aed/WarpX/particles"
	"github.com/jcarlsson-aed/WarpX/physconst"
	"github.com/jcarlsson-aed/WarpX/poisson"
)

// Simulation owns the mesh hierarchy, the field set and the particle
// population of one run. Levels above 0 hold their fields on a centered
// fine patch plus a coarse-resolution alias of that patch.
type Simulation struct {
	Params InputParameters.SimParameters

	Geom     *mesh.Geometry
	BCs      boundary.Table
	E, B     [][3]*mesh.Field // fine-patch fields, [level][direction]
	Ecp, Bcp [][3]*mesh.Field // coarse-patch aliases, nil at level 0
	Beam     *particles.Container
	Solver   poisson.TensorSolver
}

// RunOptions control the diagnostic side effects of a run.
type RunOptions struct {
	SnapshotPath string
	Plot         bool
	PlotAxis     int
	Delay        time.Duration
	Verbose      bool
}

// New validates the input parameters and builds the run: geometry with
// refined levels, Yee-staggered E and B on every patch, the beam, and a CG
// solver. Configuration mistakes come back as errors; nothing is allocated
// for a bad input.
func New(ip *InputParameters.SimParameters) (s *Simulation, err error) {
	p := *ip
	if p.NDim < 1 || p.NDim > 3 {
		return nil, fmt.Errorf("NDim %d out of range, need 1 to 3", p.NDim)
	}
	if len(p.Cells) != p.NDim || len(p.ProbLo) != p.NDim || len(p.ProbHi) != p.NDim {
		return nil, fmt.Errorf("Cells/ProbLo/ProbHi need %d entries each, got %d/%d/%d",
			p.NDim, len(p.Cells), len(p.ProbLo), len(p.ProbHi))
	}
	var ncell mesh.IntVect
	for a := 0; a < p.NDim; a++ {
		if p.Cells[a] < 1 {
			return nil, fmt.Errorf("axis %d cell count %d", a, p.Cells[a])
		}
		if p.ProbHi[a] <= p.ProbLo[a] {
			return nil, fmt.Errorf("axis %d extent [%g,%g] is empty", a, p.ProbLo[a], p.ProbHi[a])
		}
		ncell[a] = p.Cells[a]
	}

	var coord mesh.CoordSys
	switch strings.ToLower(p.Coordinates) {
	case "", "cartesian":
		coord = mesh.Cartesian
	case "rz":
		if p.NDim != 2 {
			return nil, fmt.Errorf("rz coordinates need a 2-D grid, got %d-D", p.NDim)
		}
		coord = mesh.RZ
	default:
		return nil, fmt.Errorf("unknown coordinate system %q", p.Coordinates)
	}

	if len(p.FieldBCLo) != p.NDim || len(p.FieldBCHi) != p.NDim {
		return nil, fmt.Errorf("FieldBCLo/FieldBCHi need %d entries each, got %d/%d",
			p.NDim, len(p.FieldBCLo), len(p.FieldBCHi))
	}
	for a := 0; a < p.NDim; a++ {
		lo, okLo := boundary.ParseFieldBCName(p.FieldBCLo[a])
		if !okLo {
			return nil, fmt.Errorf("unknown field boundary %q on axis %d", p.FieldBCLo[a], a)
		}
		hi, okHi := boundary.ParseFieldBCName(p.FieldBCHi[a])
		if !okHi {
			return nil, fmt.Errorf("unknown field boundary %q on axis %d", p.FieldBCHi[a], a)
		}
		if (lo == boundary.FieldBCPeriodic) != (hi == boundary.FieldBCPeriodic) {
			return nil, fmt.Errorf("axis %d is periodic on one side only", a)
		}
	}
	tb := boundary.NewTable(p.FieldBCLo, p.FieldBCHi, p.NDim)

	if p.MaxLevel < 0 {
		return nil, fmt.Errorf("MaxLevel %d", p.MaxLevel)
	}
	if p.RefRatio == 0 {
		p.RefRatio = 2
	}
	if p.MaxLevel > 0 && p.RefRatio < 2 {
		return nil, fmt.Errorf("refinement ratio %d below 2", p.RefRatio)
	}
	if p.ParticleShape == 0 {
		p.ParticleShape = 1
	}
	if p.ParticleShape < 1 || p.ParticleShape > 3 {
		return nil, fmt.Errorf("particle shape order %d, need 1 to 3", p.ParticleShape)
	}
	if p.NGhost == 0 {
		// halo sized for the gather stencil of the deposition order
		p.NGhost = p.ParticleShape
	}

	g := mesh.NewGeometry(p.NDim, ncell, vec3(p.ProbLo), vec3(p.ProbHi),
		tb.Periodicity(p.NDim), coord)
	for lev := 1; lev <= p.MaxLevel; lev++ {
		g.AddRefinedLevel(p.RefRatio)
	}

	s = &Simulation{
		Params: p,
		Geom:   g,
		BCs:    tb,
		Solver: &poisson.CGSolver{},
	}
	var (
		nlev = g.NumLevels()
		dirs = g.Dirs()
	)
	s.E = make([][3]*mesh.Field, nlev)
	s.B = make([][3]*mesh.Field, nlev)
	s.Ecp = make([][3]*mesh.Field, nlev)
	s.Bcp = make([][3]*mesh.Field, nlev)
	for lev := 0; lev < nlev; lev++ {
		cells := g.Domain(lev)
		if lev > 0 {
			cells = centeredPatch(g, lev)
		}
		for c := 0; c < 3; c++ {
			d := mesh.Direction(c)
			s.E[lev][c] = mesh.NewField(cells, mesh.YeeE(d, dirs), p.NGhost, 1)
			s.B[lev][c] = mesh.NewField(cells, mesh.YeeB(d, dirs), p.NGhost, 1)
			if lev > 0 {
				ccells := cells.Coarsen(g.RefRatio(lev - 1))
				s.Ecp[lev][c] = mesh.NewField(ccells, mesh.YeeE(d, dirs), p.NGhost, 1)
				s.Bcp[lev][c] = mesh.NewField(ccells, mesh.YeeB(d, dirs), p.NGhost, 1)
			}
		}
	}

	if p.NumParticles > 0 {
		if p.Charge == 0 || p.Mass == 0 {
			return nil, fmt.Errorf("beam needs a nonzero species charge and mass")
		}
		if len(p.BeamCenter) != p.NDim || len(p.BeamSigma) != p.NDim || len(p.BeamDrift) != p.NDim {
			return nil, fmt.Errorf("BeamCenter/BeamSigma/BeamDrift need %d entries each", p.NDim)
		}
		for a := 0; a < p.NDim; a++ {
			if p.BeamCenter[a] <= p.ProbLo[a] || p.BeamCenter[a] >= p.ProbHi[a] {
				return nil, fmt.Errorf("beam center %g outside the domain on axis %d",
					p.BeamCenter[a], a)
			}
			if p.BeamSigma[a] < 0 {
				return nil, fmt.Errorf("beam sigma %g on axis %d", p.BeamSigma[a], a)
			}
		}
		drift := vec3(p.BeamDrift)
		speed := math.Sqrt(drift[0]*drift[0] + drift[1]*drift[1] + drift[2]*drift[2])
		if speed >= physconst.C {
			return nil, fmt.Errorf("beam drift speed %.6e not below the speed of light", speed)
		}
		s.Beam = particles.NewGaussianBeam(g, p.NumParticles, p.Charge, p.Mass,
			p.TotalCharge, vec3(p.BeamCenter), vec3(p.BeamSigma), drift, p.Seed)
	} else {
		s.Beam = particles.NewContainer(p.NDim, p.Charge, p.Mass)
	}

	logrus.Infof("%d-D run %q: %d level(s), %v cells, %d particles",
		p.NDim, p.Title, nlev, p.Cells, s.Beam.N())
	return s, nil
}

// Run executes the initialization pipeline: deposit and solve the beam's
// static self-field onto E, mirror the fine solution onto the coarse
// aliases, enforce conductor boundaries on every patch, then report and
// optionally persist the result.
func (s *Simulation) Run(opts RunOptions) error {
	var (
		g = s.Geom
		p = s.Params
	)
	if p.SpaceCharge {
		eo := electrostatic.DefaultOpts()
		eo.ShapeOrder = p.ParticleShape
		if p.RelTol > 0 {
			eo.RelTol = p.RelTol
		}
		if p.AbsTol > 0 {
			eo.AbsTol = p.AbsTol
		}
		eo.MaxIter = p.MaxIter
		eo.Verbose = opts.Verbose
		if err := electrostatic.InitSpaceChargeField(g, s.Beam, s.E, s.Solver, eo); err != nil {
			return err
		}
	}
	for lev := 1; lev < g.NumLevels(); lev++ {
		for c := 0; c < 3; c++ {
			restrictPatch(s.Ecp[lev][c], s.E[lev][c], g.RefRatio(lev-1))
			restrictPatch(s.Bcp[lev][c], s.B[lev][c], g.RefRatio(lev-1))
		}
	}
	s.applyConductors()
	s.printSummary()

	if opts.SnapshotPath != "" {
		for lev := range s.E {
			for c := 0; c < 3; c++ {
				fname := fmt.Sprintf("%s.E%s.l%d", opts.SnapshotPath, mesh.Direction(c), lev)
				if err := diag.WriteSnapshotFile(fname, s.E[lev][c]); err != nil {
					return err
				}
			}
		}
		logrus.Infof("wrote %d field snapshots to %s.*", 3*len(s.E), opts.SnapshotPath)
	}
	if opts.Plot {
		var (
			lines = make(map[color.RGBA][]float32)
			cols  = [3]color.RGBA{utils2.RED, utils2.GREEN, utils2.BLUE}
		)
		for c := 0; c < 3; c++ {
			xs, vals := diag.Lineout(s.E[0][c], 0, opts.PlotAxis, g, 0)
			diag.AppendLineout(xs, vals, cols[c], lines)
		}
		diag.PlotLineouts(lines, nil, opts.Delay)
	}
	return nil
}

// applyConductors runs the PEC correction over every level: the fine patch
// and, above level 0, the coarse alias. Skipped outright when no face is a
// conductor.
func (s *Simulation) applyConductors() {
	if !s.BCs.AnyPEC(s.Geom.NDim) {
		return
	}
	ng := s.Params.NGhost
	for lev := 0; lev < s.Geom.NumLevels(); lev++ {
		boundary.ApplyPECtoEfield(s.E[lev], s.Geom, s.BCs, lev, boundary.FinePatch, ng, false)
		boundary.ApplyPECtoBfield(s.B[lev], s.Geom, s.BCs, lev, boundary.FinePatch, ng)
		if lev > 0 {
			boundary.ApplyPECtoEfield(s.Ecp[lev], s.Geom, s.BCs, lev, boundary.CoarsePatch, ng, false)
			boundary.ApplyPECtoBfield(s.Bcp[lev], s.Geom, s.BCs, lev, boundary.CoarsePatch, ng)
		}
	}
}

func (s *Simulation) printSummary() {
	for lev := range s.E {
		for c := 0; c < 3; c++ {
			d := s.E[lev][c].Comp(0)
			fmt.Printf("lev %d E%s: min = %12.6e, max = %12.6e\n",
				lev, mesh.Direction(c), floats.Min(d), floats.Max(d))
		}
	}
}

// centeredPatch is a refined level's cell box: the middle half of the
// domain along every active axis, with edges kept on coarse cell
// boundaries so the coarse alias tiles it exactly.
func centeredPatch(g *mesh.Geometry, lev int) mesh.Box {
	var (
		dom    = g.Domain(lev)
		ratio  = g.RefRatio(lev - 1)
		lo, hi mesh.IntVect
	)
	for a := 0; a < g.NDim; a++ {
		q := dom.Size(a) / 4
		q -= q % ratio
		lo[a] = dom.Lo[a] + q
		hi[a] = dom.Hi[a] - q
	}
	return mesh.NewBox(lo, hi, g.NDim)
}

// restrictPatch fills a coarse-resolution alias by direct injection from
// the fine field: co-located points on node-centered axes, the midpoint
// fine point on cell-centered axes.
func restrictPatch(coarse, fine *mesh.Field, ratio int) {
	mesh.ParallelFor(coarse.Valid, func(iv mesh.IntVect) {
		var jv mesh.IntVect
		for a := 0; a < coarse.Valid.NDim; a++ {
			jv[a] = iv[a] * ratio
			if !coarse.Stag[a] {
				jv[a] += ratio / 2
			}
		}
		for n := 0; n < coarse.NComp; n++ {
			coarse.Set(n, iv, fine.At(n, jv))
		}
	})
}

func vec3(xs []float64) (v [3]float64) {
	copy(v[:], xs)
	return
}
