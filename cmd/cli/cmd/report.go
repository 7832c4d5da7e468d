package cmd

import (
	"flakewatch/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report a test execution result",
	Long: `Submit one test execution result to the ingestion endpoint. This is the
same call a CI webhook makes; the server acknowledges once the record is
durable and runs classification and triage in the background.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the FLAKEWATCH_TOKEN environment variable")
			return
		}

		req := api.ReportExecutionRequest{
			SuiteID:      reportSuite,
			TestName:     reportTest,
			Status:       reportStatus,
			BuildID:      reportBuild,
			PipelineURL:  reportPipelineURL,
			Branch:       reportBranch,
			CommitSHA:    reportCommit,
			ErrorMessage: reportError,
			StackTrace:   reportStackTrace,
		}
		if reportDuration > 0 {
			d := reportDuration
			req.DurationMS = &d
		}

		client := NewClient(url, token)
		resp, err := client.ReportExecution(req)
		if err != nil {
			cmd.Printf("Failed to report execution: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s Execution recorded: %s\n", colorGreen, colorReset, resp.ExecutionID)
	},
}

var (
	reportSuite       string
	reportTest        string
	reportStatus      string
	reportBuild       string
	reportPipelineURL string
	reportBranch      string
	reportCommit      string
	reportError       string
	reportStackTrace  string
	reportDuration    int64
)

func init() {
	reportCmd.Flags().StringVar(&reportSuite, "suite", "", "Test suite id (required)")
	reportCmd.Flags().StringVar(&reportTest, "test", "", "Test case name (required)")
	reportCmd.Flags().StringVar(&reportStatus, "status", "", "Outcome: passed, failed or skipped (required)")
	reportCmd.Flags().StringVar(&reportBuild, "build", "", "Build identifier (required)")
	reportCmd.Flags().StringVar(&reportPipelineURL, "pipeline-url", "", "Pipeline run URL (required)")
	reportCmd.Flags().StringVar(&reportBranch, "branch", "", "Branch name (required)")
	reportCmd.Flags().StringVar(&reportCommit, "commit", "", "Commit hash (required)")
	reportCmd.Flags().StringVar(&reportError, "error", "", "Error message")
	reportCmd.Flags().StringVar(&reportStackTrace, "stack-trace", "", "Stack trace")
	reportCmd.Flags().Int64Var(&reportDuration, "duration-ms", 0, "Test duration in milliseconds")

	reportCmd.MarkFlagRequired("suite")
	reportCmd.MarkFlagRequired("test")
	reportCmd.MarkFlagRequired("status")
	reportCmd.MarkFlagRequired("build")
	reportCmd.MarkFlagRequired("pipeline-url")
	reportCmd.MarkFlagRequired("branch")
	reportCmd.MarkFlagRequired("commit")

	rootCmd.AddCommand(reportCmd)
}
