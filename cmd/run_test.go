package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/jcarlsson-aed/WarpX/InputParameters"
)

func TestRunInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Gaussian bunch
NDim: 2
Cells: [32, 64]
ProbLo: [-1., -2.]
ProbHi: [1., 2.]
FieldBCLo: [pec, periodic]
FieldBCHi: [pec, periodic]
SpaceCharge: true
MaxIterations: 500
NumParticles: 1000
Charge: -1.602176634e-19
Mass: 9.1093837015e-31
TotalCharge: -1.0e-12
BeamCenter: [0., 0.]
BeamSigma: [0.05, 0.1]
BeamDrift: [0., 1.0e+07]
`)
	var input InputParameters.SimParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	// Check the grid block
	assert.Equal(t, input.Cells, []int{32, 64})
	assert.Equal(t, input.ProbHi, []float64{1., 2.})
	// Check the boundary block
	assert.Equal(t, input.FieldBCLo, []string{"pec", "periodic"})
	input.Print()
	assert.Equal(t, input.MaxIter, 500)
	assert.Equal(t, input.BeamDrift[1], 1.0e+07)
}
