package cli

import (
	"fmt"

	"resumeforge/internal/common"
	"resumeforge/internal/store"

	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect saved analysis and optimization records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved records, newest first",
	RunE:  runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <type> <filename>",
	Short: "Show a saved record",
	Long: `Show the full JSON content of a saved record.

The type is "job_analysis" or "resume_optimization"; the filename is as
printed by 'records list'.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecordsShow,
}

var recordsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts per type",
	RunE:  runRecordsStats,
}

var (
	recordsListType   string
	recordsShowConfig common.CommandConfig
)

func init() {
	recordsListCmd.Flags().StringVar(&recordsListType, "type", "all",
		"Record type to list: all, job_analysis, or resume_optimization")

	recordsShowCmd.Flags().StringVarP(&recordsShowConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsStatsCmd)
}

func newStore(cmd *cobra.Command) *store.Store {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	return store.NewStore(cfg.Store.OutputsDir, logger)
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	recordStore := newStore(cmd)

	records, err := recordStore.ListRecords(recordsListType)
	if err != nil {
		return err
	}

	total := 0
	for _, names := range records {
		total += len(names)
	}
	if total == 0 {
		fmt.Println("No records found.")
		return nil
	}

	for kind, names := range records {
		if len(names) == 0 {
			continue
		}
		fmt.Printf("%s (%d):\n", kind, len(names))
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	recordStore := newStore(cmd)
	logger := getLoggerFromContext(cmd.Context())

	record, err := recordStore.LoadRaw(args[0], args[1])
	if err != nil {
		return err
	}

	recordsShowConfig.OutputFormat = "json"
	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(record, recordsShowConfig)
}

func runRecordsStats(cmd *cobra.Command, args []string) error {
	recordStore := newStore(cmd)
	logger := getLoggerFromContext(cmd.Context())

	stats, err := recordStore.GetStats()
	if err != nil {
		return err
	}

	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(stats, common.CommandConfig{OutputFormat: "text"})
}
