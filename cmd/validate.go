package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/proteo/internal/config"
	"github.com/papapumpkin/proteo/internal/dataset"
)

// errValidation is returned when any check fails; the individual
// failures have already been printed.
var errValidation = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the config and every dataset table can be read",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ config: %v\n", err)
			return errValidation
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "✓ config valid")
		return validateDataset(cmd.ErrOrStderr(), cfg.Manifest)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateDataset prints one ✓ or ✗ line per table the manifest names.
func validateDataset(w io.Writer, manifestPath string) error {
	m, err := dataset.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(w, "✗ manifest: %v\n", err)
		return errValidation
	}
	fmt.Fprintf(w, "✓ manifest %s (%s)\n", manifestPath, m.Name())

	ok := true
	for _, role := range m.Roles() {
		need := "optional"
		if role.Required {
			need = "required"
		}
		if err := dataset.CheckRole(m, role); err != nil {
			fmt.Fprintf(w, "✗ %s (%s): %v\n", role.Name, need, err)
			ok = false
			continue
		}
		fmt.Fprintf(w, "✓ %s (%s) %s\n", role.Name, need, role.Path)
	}
	if !ok {
		return errValidation
	}
	return nil
}
