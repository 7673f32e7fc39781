package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mberetvas/comspect/internal/browse"
	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/inspect"
	"github.com/mberetvas/comspect/internal/registry"
	"github.com/mberetvas/comspect/internal/typelib"
)

var browseDynamic bool

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse components interactively",
	Long: `Browse opens a terminal UI over the discovered component index: filter
as you type, expand categories, and press enter to inspect a component's
callable surface. Inspection runs on a background worker so the UI never
blocks on registry or component calls.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := registry.NewOSReader()
		if err != nil {
			return err
		}
		fmt.Println("Scanning component registry...")
		identities, err := registry.NewIndex(reader).Scan()
		if err != nil {
			return fmt.Errorf("registry scan failed: %w", err)
		}
		if len(identities) == 0 {
			fmt.Println("No registered components found.")
			return nil
		}

		static, err := typelib.NewRegistrySource()
		if err != nil {
			return err
		}
		var dynamic typelib.Source
		if browseDynamic {
			if dynamic, err = typelib.NewInstanceSource(); err != nil {
				return err
			}
		}

		scheduler := inspect.NewScheduler(static, dynamic, com.OSRuntime{})
		if err := browse.Run(identities, scheduler, browseDynamic); err != nil {
			return fmt.Errorf("unable to start TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVar(&browseDynamic, "dynamic", false, "Allow instantiating components without a type library")
}
