/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/jcarlsson-aed/WarpX/InputParameters"
	"github.com/jcarlsson-aed/WarpX/sim"

	"github.com/spf13/cobra"
)

type RunModel struct {
	InputFile    string
	SnapshotPath string
	Graph        bool
	GraphAxis    int
	Delay        time.Duration
	Verbose      bool
	Profile      bool
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Initialize beam space-charge fields on the mesh hierarchy",
	Long:  `Initialize beam space-charge fields on the mesh hierarchy`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("run called")
		rm := &RunModel{}
		if rm.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		rm.SnapshotPath, _ = cmd.Flags().GetString("snapshot")
		rm.Graph, _ = cmd.Flags().GetBool("graph")
		rm.GraphAxis, _ = cmd.Flags().GetInt("graphAxis")
		dr, _ := cmd.Flags().GetInt("delay")
		rm.Delay = time.Duration(time.Duration(dr) * time.Millisecond)
		rm.Verbose, _ = cmd.Flags().GetBool("verbose")
		rm.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processInput(rm)
		RunSim(rm, ip)
	},
}

func processInput(rm *RunModel) (ip *InputParameters.SimParameters) {
	var (
		err error
	)
	if len(rm.InputFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "electron bunch"
NDim: 2
Cells: [64, 64]
ProbLo: [-1., -1.]
ProbHi: [1., 1.]
FieldBCLo: [pec, pec] # pec, periodic or none per axis
FieldBCHi: [pec, pec]
SpaceCharge: true
NumParticles: 10000
Charge: -1.602176634e-19
Mass: 9.1093837015e-31
TotalCharge: -1.0e-12
BeamCenter: [0., 0.]
BeamSigma: [0.05, 0.05]
BeamDrift: [0., 1.0e+07]
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(rm.InputFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.SimParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- Cells\n\t- FieldBCLo / FieldBCHi")
	runCmd.Flags().StringP("snapshot", "s", "", "path prefix for field snapshots, one file per component and level")
	runCmd.Flags().BoolP("graph", "g", false, "display a graph while computing solution")
	runCmd.Flags().IntP("graphAxis", "a", 0, "grid axis for the field lineout when graphing")
	runCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	runCmd.Flags().BoolP("verbose", "v", false, "log solver iterations and deposition detail")
	runCmd.Flags().Bool("profile", false, "write a CPU profile to the working directory")
}

func RunSim(rm *RunModel, ip *InputParameters.SimParameters) {
	if rm.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	if rm.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	ip.Print()
	s, err := sim.New(ip)
	if err != nil {
		logrus.Fatalf("bad input deck: %v", err)
	}
	err = s.Run(sim.RunOptions{
		SnapshotPath: rm.SnapshotPath,
		Plot:         rm.Graph,
		PlotAxis:     rm.GraphAxis,
		Delay:        rm.Delay,
		Verbose:      rm.Verbose,
	})
	if err != nil {
		logrus.Fatalf("field initialization failed: %v", err)
	}
}
