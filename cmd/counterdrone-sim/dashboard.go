package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"counterdrone-sim/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Short:   "Render Grafana dashboards for the GreptimeDB and Prometheus sinks",
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(viper.GetString("out"))
	},
}

func init() {
	dashboardCmd.Flags().String("out", "build", "Output directory")
}
