package server

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flightsurety/relay/client"
	"github.com/flightsurety/relay/config"
)

const flagOverwrite = "overwrite"

// InitCmd writes a config file to the home directory. Values given as flags
// are stored, the rest are defaults.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default relayd config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			path, err := config.WriteConfigFile(cfg, viper.GetBool(flagOverwrite))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	def := config.DefaultConfig()
	client.GetCommands(cmd)
	cmd.Flags().String(client.FlagDataAddress, def.DataAddress, "FlightSuretyData contract address")
	cmd.Flags().Bool(flagOverwrite, false, "overwrite an existing config file")
	return cmd
}
