package main

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"simplstream/services/auth"
	"simplstream/services/transfer"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var out, pin string
	cmd := &cobra.Command{
		Use:   "export [profile-id]",
		Short: "Write a profile export (.ssp)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			if err := requirePIN(a, args[0], pin, auth.ActionExport); err != nil {
				return err
			}
			if out == "" {
				out = transfer.FileName(time.Now())
			}
			path, err := a.transfer.ExportToFile(afero.NewOsFs(), out, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN of a protected profile")
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import a profile export as a new profile",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, args []string, a *app) error {
			p, err := a.transfer.ImportFromFile(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			return nil
		}),
	}
}
