package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/devfile"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/router"
)

// Route command
var (
	designPath      string
	deviceDir       string
	deviceFiles     []string
	configPath      string
	routeOutput     string
	continueOnError bool
	invertGnd       bool
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route the global nets of a placed design",
	Long: `Load a placed design, route its clock nets symmetrically and its GND/VCC
nets from tie-offs or constant LUT sources, and write the routed design.

The design names its device; the built-in synthetic device is always
available and further devices are loaded from --devices or --device-file.

Examples:
  otr route --design top.yaml -o routed.yaml
  otr route --design top.yaml --devices ./devices --config router.yaml
  otr route -v --design top.yaml --continue --invert-gnd`,
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVarP(&designPath, "design", "d", "", "placed design (YAML)")
	routeCmd.Flags().StringVar(&deviceDir, "devices", "", "directory of .dev device files")
	routeCmd.Flags().StringSliceVar(&deviceFiles, "device-file", nil, "device description file (repeatable)")
	routeCmd.Flags().StringVarP(&configPath, "config", "c", "", "router configuration (YAML)")
	routeCmd.Flags().StringVarP(&routeOutput, "output", "o", "", "routed design output (default stdout)")
	routeCmd.Flags().BoolVar(&continueOnError, "continue", false, "keep routing after a net fails")
	routeCmd.Flags().BoolVar(&invertGnd, "invert-gnd", false, "move GND LUT inputs to VCC by inverting them")
	routeCmd.MarkFlagRequired("design")
}

func deviceRepository() (*device.MemoryRepository, error) {
	repo := device.NewMemoryRepository(devfile.Load)
	builtin, err := device.Synthesize(device.DefaultSynthParams())
	if err != nil {
		return nil, err
	}
	repo.Add(builtin)
	if deviceDir != "" {
		if err := repo.LoadDir(deviceDir); err != nil {
			return nil, err
		}
	}
	if err := repo.LoadFiles(deviceFiles...); err != nil {
		return nil, err
	}
	return repo, nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg := router.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = router.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("continue") {
		cfg.ContinueOnError = continueOnError
	}
	if cmd.Flags().Changed("invert-gnd") {
		cfg.InvertGndToVcc = invertGnd
	}
	cfg.Logger = logger

	repo, err := deviceRepository()
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	d, err := design.LoadFile(designPath, repo)
	if err != nil {
		return fmt.Errorf("failed to load design: %w", err)
	}
	logger.Info("loaded design", "design", d.Name, "device", d.Device.Name, "nets", len(d.Nets()), "cells", len(d.Cells()))

	progress := make(chan router.Progress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Phase == "done" {
				continue
			}
			logger.Debug("routing", "phase", p.Phase, "net", p.Net, "index", p.Index+1, "total", p.Total)
		}
	}()
	sum, routeErr := router.RouteGlobalNets(d, router.NewOccupancy(), cfg, progress)
	close(progress)
	<-done
	if sum == nil || (routeErr != nil && !cfg.ContinueOnError) {
		return routeErr
	}

	data, err := design.Export(d).Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode design: %w", err)
	}
	if routeOutput != "" {
		if err := os.WriteFile(routeOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		cmd.OutOrStdout().Write(data)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Routed %d clock and %d static nets: %d PIPs, %d sources created, %d sinks inverted, %d failed\n",
		sum.ClockNets, sum.StaticNets, sum.PIPs, sum.SourcesCreated, sum.Inverted, sum.Failed)
	return routeErr
}
