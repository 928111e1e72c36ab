package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var referenceOut string

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Work with the WHO LMS reference table",
}

var referenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active reference table as YAML",
	Long: `Writes the active LMS table in the format accepted by WHO_REFERENCE_PATH, so it can be
extended with the full monthly WHO tables and loaded back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(service.Table())
		if err != nil {
			return fmt.Errorf("failed to encode reference table: %w", err)
		}
		if referenceOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(referenceOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", referenceOut, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Reference table written to %s\n", referenceOut)
		return nil
	},
}

func init() {
	referenceExportCmd.Flags().StringVarP(&referenceOut, "out", "o", "", "output file; stdout when empty")
	referenceCmd.AddCommand(referenceExportCmd)
}
