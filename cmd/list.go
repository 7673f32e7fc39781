package cmd

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mberetvas/comspect/internal/catalog"
	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/export"
	"github.com/mberetvas/comspect/internal/inspect"
	"github.com/mberetvas/comspect/internal/registry"
	"github.com/mberetvas/comspect/internal/typelib"
)

var (
	listFilter  string
	listDynamic bool
	listWorkers int
	listOutput  string
	listOutFile string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Scan the registry and describe every component's surface",
	Long: `List scans the component registry, inspects each discovered component
through its registered type library, and prints the result.

Individual component failures are part of the report, not process failures:
the command exits nonzero only when it cannot run at all.

The dynamic fallback (--dynamic) instantiates components whose type library
is missing and may run their initialization code. It is off by default.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		validFormats := []string{"text", "json"}
		if !slices.Contains(validFormats, listOutput) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", listOutput, validFormats)
		}
		if listWorkers < 0 {
			return fmt.Errorf("worker count must be positive, got %d", listWorkers)
		}
		return nil
	},
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	reader, err := registry.NewOSReader()
	if err != nil {
		return err
	}
	identities, err := registry.NewIndex(reader).Scan()
	if err != nil {
		return fmt.Errorf("registry scan failed: %w", err)
	}
	identities = catalog.Filter(identities, listFilter)
	log.Debug("scan complete", "components", len(identities))

	results, err := inspectAll(identities)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if listOutput == "json" {
		err = export.WriteJSON(&buf, results)
	} else {
		err = export.WriteText(&buf, results)
	}
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}

	if listOutFile == "" {
		fmt.Print(buf.String())
		return nil
	}

	path := ensureExtension(listOutFile, listOutput)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", path, err)
	}
	fmt.Printf("Wrote report to %s\n", path)
	return nil
}

func inspectAll(identities []com.ComponentIdentity) ([]com.InspectionResult, error) {
	static, err := typelib.NewRegistrySource()
	if err != nil {
		return nil, err
	}
	var dynamic typelib.Source
	if listDynamic {
		if dynamic, err = typelib.NewInstanceSource(); err != nil {
			return nil, err
		}
	}

	scheduler := inspect.NewScheduler(static, dynamic, com.OSRuntime{})
	batch := scheduler.Run(identities, inspect.Options{
		Workers:      listWorkers,
		AllowDynamic: listDynamic,
	})
	results := inspect.Collect(batch)

	// completion order is nondeterministic; the report is sorted by ProgID
	sort.Slice(results, func(i, j int) bool {
		return results[i].Identity.ProgID < results[j].Identity.ProgID
	})
	return results, nil
}

// ensureExtension appends ".txt"/".json" when the name doesn't already end
// with it. Append, never replace: "my.report" becomes "my.report.json".
func ensureExtension(path, format string) string {
	ext := ".txt"
	if format == "json" {
		ext = ".json"
	}
	if strings.HasSuffix(strings.ToLower(path), ext) {
		return path
	}
	return path + ext
}

func completeProgIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reader, err := registry.NewOSReader()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	identities, err := registry.NewIndex(reader).Scan()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, identity := range identities {
		if strings.HasPrefix(strings.ToLower(identity.ProgID), strings.ToLower(toComplete)) {
			completions = append(completions, fmt.Sprintf("%s\t%s", identity.ProgID, identity.Description))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Fuzzy-filter components by ProgID, ClassID or description")
	listCmd.Flags().BoolVar(&listDynamic, "dynamic", false, "Instantiate components without a type library (runs their code)")
	listCmd.Flags().IntVarP(&listWorkers, "workers", "w", 0, "Worker count (0 = logical processors)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "Output format")
	listCmd.Flags().StringVar(&listOutFile, "out", "", "Write the report to a file instead of stdout")

	listCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	listCmd.RegisterFlagCompletionFunc("filter", completeProgIDs)
}
