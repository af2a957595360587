package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dilutionlab/dilution-engine/internal/form"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default form as YAML, a starting point for --file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(form.Defaults()); err != nil {
			return err
		}
		return enc.Close()
	},
}
