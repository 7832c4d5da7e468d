package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var flakyCmd = &cobra.Command{
	Use:   "flaky",
	Short: "List currently flagged flaky tests",
	Long: `List test cases whose recent failure rate puts them in the flaky band:
failing sometimes but not always.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the FLAKEWATCH_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		tests, err := client.ListFlakyTests()
		if err != nil {
			cmd.Printf("Failed to list flaky tests: %v\n", err)
			return
		}

		if len(tests) == 0 {
			cmd.Println("No flaky tests. Nice.")
			return
		}

		for _, t := range tests {
			cmd.Printf("%s⚠%s  %s%s%s / %s%s%s\n", colorYellow, colorReset, colorBold, t.SuiteID, colorReset, colorCyan, t.TestName, colorReset)
			cmd.Printf("   %sScore:%s  %.2f (%d samples)\n", colorDim, colorReset, t.FlakyScore, t.SampleCount)
			cmd.Printf("   %sLast:%s   %s\n", colorDim, colorReset, formatAge(t.LastExecution))
		}
	},
}

func init() {
	rootCmd.AddCommand(flakyCmd)
}
