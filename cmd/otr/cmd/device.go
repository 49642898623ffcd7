package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/devfile"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Device description files",
	Long:  `Commands for creating and inspecting device description (.dev) files`,
}

// Device synth command
var (
	synthParams = device.DefaultSynthParams()
	synthOutput string
)

var deviceSynthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic device description",
	Long: `Generate a regular fabric with switchboxes, slices, RAMB36 columns and a
clock distribution network, and write it as a device description.

Examples:
  otr device synth -o xcsyn8.dev
  otr device synth --name big --cols 80 --rows 80 --region-cols 20 --region-rows 20 -o big.dev`,
	RunE: runDeviceSynth,
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info <device-file>",
	Short: "Summarize a device description",
	Long: `Parse a device description and report node, PIP and site counts.

Examples:
  otr device info xcsyn8.dev
  otr device info -v xcsyn8.dev`,
	Args: cobra.ExactArgs(1),
	RunE: runDeviceInfo,
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceSynthCmd)
	deviceCmd.AddCommand(deviceInfoCmd)

	f := deviceSynthCmd.Flags()
	f.StringVar(&synthParams.Name, "name", synthParams.Name, "device name")
	f.IntVar(&synthParams.Cols, "cols", synthParams.Cols, "switchbox columns")
	f.IntVar(&synthParams.Rows, "rows", synthParams.Rows, "switchbox rows")
	f.IntVar(&synthParams.RegionCols, "region-cols", synthParams.RegionCols, "switchbox columns per clock region")
	f.IntVar(&synthParams.RegionRows, "region-rows", synthParams.RegionRows, "switchbox rows per clock region")
	f.IntVar(&synthParams.ClockTracks, "tracks", synthParams.ClockTracks, "clock tracks per region")
	f.IntVar(&synthParams.BRAMPeriod, "bram-period", synthParams.BRAMPeriod, "RAMB36 column period (0 disables)")
	f.BoolVar(&synthParams.TieVCC, "tie-vcc", synthParams.TieVCC, "add VCC tie-offs")
	f.BoolVar(&synthParams.TieGND, "tie-gnd", synthParams.TieGND, "add GND tie-offs")
	f.StringVarP(&synthOutput, "output", "o", "", "output file (default stdout)")
}

func runDeviceSynth(cmd *cobra.Command, args []string) error {
	dev, err := device.Synthesize(synthParams)
	if err != nil {
		return err
	}
	logger.Debug("synthesized device", "name", dev.Name, "nodes", dev.NodeCount(), "pips", dev.PIPCount())

	out := cmd.OutOrStdout()
	if synthOutput != "" {
		f, err := os.Create(synthOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := devfile.Write(out, dev); err != nil {
		return fmt.Errorf("failed to write device: %w", err)
	}
	if synthOutput != "" {
		logger.Info("wrote device", "path", synthOutput)
	}
	return nil
}

func runDeviceInfo(cmd *cobra.Command, args []string) error {
	dev, err := devfile.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cols, rows := dev.RegionGrid()
	fmt.Fprintf(out, "Device: %s\n", dev.Name)
	fmt.Fprintf(out, "  Nodes: %d\n", dev.NodeCount())
	fmt.Fprintf(out, "  PIPs: %d\n", dev.PIPCount())
	fmt.Fprintf(out, "  Clock regions: %dx%d\n", cols, rows)

	byType := make(map[string]int)
	for _, s := range dev.Sites() {
		byType[s.Type]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Fprintf(out, "  Sites: %d\n", len(dev.Sites()))
	for _, t := range types {
		fmt.Fprintf(out, "    %-8s %d\n", t, byType[t])
	}

	if verbose {
		counts := make(map[device.NodeType]int)
		for _, n := range dev.Nodes() {
			counts[n.Type]++
		}
		fmt.Fprintf(out, "  Node types:\n")
		for typ := device.NodeWire; typ <= device.NodeLeafClock; typ++ {
			if counts[typ] > 0 {
				fmt.Fprintf(out, "    %-13s %d\n", typ, counts[typ])
			}
		}
	}
	return nil
}
