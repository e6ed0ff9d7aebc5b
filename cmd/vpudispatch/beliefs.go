package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sbl8/vpudispatch/config"
)

var beliefsCmd = &cobra.Command{
	Use:   "beliefs",
	Short: "Print the current HardwareProfile belief store",
	RunE:  runBeliefs,
}

func runBeliefs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hw, err := loadOrSeedProfile(cfg.HardwareProfilePath)
	if err != nil {
		return err
	}

	fmt.Print(hw.Print())
	return nil
}
