package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ideavault/internal/config"
	"ideavault/internal/vault"
)

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export, import, or wipe the vault",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole vault as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.ExportAll(cmd.Context())
		if err != nil {
			return err
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		enc := json.NewEncoder(writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}

		if output != "" {
			printSuccess("Vault exported to %s", output)
		}
		return nil
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a vault snapshot",
	Long: `Import a vault snapshot. Collections present in the file replace the
stored ones; collections missing from the file are kept as they are. An
invalid snapshot is rejected without changing the vault.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}

		var snap vault.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("invalid snapshot JSON: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ok, err := store.ImportAll(cmd.Context(), &snap)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("snapshot rejected: it would leave the vault in an inconsistent state")
		}

		printSuccess("Vault imported from %s", args[0])
		return nil
	},
}

var dataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything in the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL problems, ideas, notes, and links. Use --confirm to proceed.")
			return nil
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ClearAll(cmd.Context()); err != nil {
			return err
		}

		printSuccess("Vault cleared")
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataClearCmd.Flags().Bool("confirm", false, "confirm wiping the vault")

	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
	dataCmd.AddCommand(dataClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, e := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, e.Key), e.Value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
