package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file. Axis-length lists carry one
// entry per active grid axis; sim.New validates the lengths against NDim.
type SimParameters struct {
	Title       string `yaml:"Title"`
	NDim        int    `yaml:"NDim"`
	Coordinates string `yaml:"Coordinates"` // "cartesian" (default) or "rz"

	Cells  []int     `yaml:"Cells"`
	ProbLo []float64 `yaml:"ProbLo"`
	ProbHi []float64 `yaml:"ProbHi"`

	MaxLevel int `yaml:"MaxLevel"`
	RefRatio int `yaml:"RefRatio"`

	FieldBCLo []string `yaml:"FieldBCLo"`
	FieldBCHi []string `yaml:"FieldBCHi"`

	NGhost        int `yaml:"NGhost"`
	ParticleShape int `yaml:"ParticleShape"`

	SpaceCharge bool    `yaml:"SpaceCharge"`
	RelTol      float64 `yaml:"RelTol"`
	AbsTol      float64 `yaml:"AbsTol"`
	MaxIter     int     `yaml:"MaxIterations"`

	NumParticles int       `yaml:"NumParticles"`
	Charge       float64   `yaml:"Charge"` // species charge [C]
	Mass         float64   `yaml:"Mass"`   // species mass [kg]
	TotalCharge  float64   `yaml:"TotalCharge"`
	BeamCenter   []float64 `yaml:"BeamCenter"`
	BeamSigma    []float64 `yaml:"BeamSigma"`
	BeamDrift    []float64 `yaml:"BeamDrift"` // shared drift velocity [m/s]
	Seed         int64     `yaml:"Seed"`
}

func (ip *SimParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *SimParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= NDim\n", ip.NDim)
	fmt.Printf("%v\t\t= Cells\n", ip.Cells)
	fmt.Printf("%v -> %v\t= Domain Extent\n", ip.ProbLo, ip.ProbHi)
	fmt.Printf("[%d]\t\t\t\t= MaxLevel\n", ip.MaxLevel)
	fmt.Printf("%v\t= FieldBCLo\n", ip.FieldBCLo)
	fmt.Printf("%v\t= FieldBCHi\n", ip.FieldBCHi)
	fmt.Printf("[%d]\t\t\t\t= Particle Shape Order\n", ip.ParticleShape)
	fmt.Printf("[%t]\t\t\t= SpaceCharge\n", ip.SpaceCharge)
	fmt.Printf("[%d]\t\t\t= NumParticles\n", ip.NumParticles)
}
