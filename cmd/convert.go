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
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/aerotools/cartconv/convert"
	"github.com/aerotools/cartconv/flow"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a Cart3D geometry (and optional results) to a target format",
	Long: `
Reads a Cart3D geometry file and an optional paired results file, optionally
derives pressure, Mach number and Cp from the conservative flow variables,
and writes the chosen target format.

cartconv convert -i wing.tri -r wing.triq -f tecplot --derive -o wing.dat`,
	Run: func(cmd *cobra.Command, args []string) {
		cc := &convertCase{}
		cc.Input, _ = cmd.Flags().GetString("input")
		cc.Results, _ = cmd.Flags().GetString("results")
		cc.Output, _ = cmd.Flags().GetString("output")
		cc.Format, _ = cmd.Flags().GetString("format")
		cc.Conditions, _ = cmd.Flags().GetString("conditions")
		cc.Mach, _ = cmd.Flags().GetFloat64("mach")
		cc.Derive, _ = cmd.Flags().GetBool("derive")
		cc.Names, _ = cmd.Flags().GetStringSlice("names")
		cc.Binary, _ = cmd.Flags().GetBool("binary")
		cc.Double, _ = cmd.Flags().GetBool("double")
		cc.Profile, _ = cmd.Flags().GetBool("profile")
		runConvert(cc)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("input", "i", "", "Cart3D geometry file to read")
	convertCmd.Flags().StringP("results", "r", "", "paired results file (5 conservative variables unless --names is given)")
	convertCmd.Flags().StringP("output", "o", "", "output file (default: input with the target extension)")
	convertCmd.Flags().StringP("format", "f", "stl", "target format: nastran, stl, tecplot, cart3d")
	convertCmd.Flags().StringP("conditions", "c", "", "YAML file with freestream conditions (Gamma, Minf, RhoInf, PInf)")
	convertCmd.Flags().Float64P("mach", "m", 0.8, "freestream Mach number when no conditions file is given")
	convertCmd.Flags().BoolP("derive", "d", false, "derive p, Mach, Cp from conservative results")
	convertCmd.Flags().StringSlice("names", nil, "result variable names for a custom (non-conservative) scheme")
	convertCmd.Flags().Bool("binary", false, "binary framing for stl/cart3d output")
	convertCmd.Flags().Bool("double", false, "double precision for binary cart3d output")
	convertCmd.Flags().Bool("profile", false, "write a CPU profile for this conversion")
	_ = convertCmd.MarkFlagRequired("input")
}

type convertCase struct {
	Input, Results, Output string
	Format, Conditions     string
	Mach                   float64
	Derive                 bool
	Names                  []string
	Binary, Double         bool
	Profile                bool
}

func runConvert(cc *convertCase) {
	if cc.Profile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	target, err := convert.ParseTarget(cc.Format)
	if err != nil {
		log.Fatal("bad target format", "err", err)
	}

	fs := flow.DefaultFreestream(cc.Mach)
	if cc.Conditions != "" {
		data, err := os.ReadFile(cc.Conditions)
		if err != nil {
			log.Fatal("reading conditions file", "err", err)
		}
		if err := fs.Parse(data); err != nil {
			log.Fatal("parsing conditions file", "err", err)
		}
	}

	opts := convert.Options{
		Freestream:  fs,
		Derive:      cc.Derive,
		ResultNames: cc.Names,
		Progress: func(phase string) {
			log.Info("phase complete", "phase", phase)
		},
	}
	opts.STL.Binary = cc.Binary
	opts.Cart3D.Binary = cc.Binary
	opts.Cart3D.Double = cc.Double

	geom, err := os.Open(cc.Input)
	if err != nil {
		log.Fatal("opening geometry", "err", err)
	}
	defer geom.Close()

	var results *os.File
	if cc.Results != "" {
		if results, err = os.Open(cc.Results); err != nil {
			log.Fatal("opening results", "err", err)
		}
		defer results.Close()
	}

	res, err := doConvert(geom, results, target, opts)
	if err != nil {
		log.Fatal("conversion failed", "err", err)
	}
	if res.DegenerateFacets > 0 {
		log.Warn("zero-area facets emitted with zero normals", "count", res.DegenerateFacets)
	}

	out := cc.Output
	if out == "" {
		out = cc.Input + "." + target.String()
	}
	if err := os.WriteFile(out, res.Output, 0644); err != nil {
		log.Fatal("writing output", "err", err)
	}
	log.Info("wrote output", "file", out, "bytes", len(res.Output),
		"points", res.Model.NumPoints(), "tris", res.Model.NumTris())
}

// doConvert avoids handing Convert a non-nil interface wrapping a nil file.
func doConvert(geom, results *os.File, target convert.Target, opts convert.Options) (*convert.Result, error) {
	if results == nil {
		return convert.Convert(geom, nil, target, opts)
	}
	return convert.Convert(geom, results, target, opts)
}
