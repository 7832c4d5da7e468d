package cmd

import (
	"fmt"
	"time"

	"flakewatch/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var defectsCmd = &cobra.Command{
	Use:   "defects",
	Short: "List open defects",
	Long:  `List defects that are currently open or in progress, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the FLAKEWATCH_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		defects, err := client.ListDefects(defectsLimit, defectsOffset)
		if err != nil {
			cmd.Printf("Failed to list defects: %v\n", err)
			return
		}

		if len(defects) == 0 {
			cmd.Println("No open defects.")
			return
		}

		for _, defect := range defects {
			printDefect(cmd, defect)
		}
	},
}

var (
	defectsLimit  int
	defectsOffset int
)

func printDefect(cmd *cobra.Command, defect api.DefectResponse) {
	cmd.Printf("%s%s%s %s\n", colorBold, defect.Title, colorReset, colorizeSeverity(defect.Severity))
	cmd.Printf("  %sID:%s         %s\n", colorDim, colorReset, defect.ID)
	cmd.Printf("  %sStatus:%s     %s\n", colorDim, colorReset, defect.Status)
	if defect.AutomationTestID != nil {
		cmd.Printf("  %sTest:%s       %s\n", colorDim, colorReset, *defect.AutomationTestID)
	}
	if defect.IsRegression {
		cmd.Printf("  %sRegressions:%s %s%d%s\n", colorDim, colorReset, colorRed, defect.RegressionCount, colorReset)
	}
	if defect.AssigneeID != nil {
		cmd.Printf("  %sAssignee:%s   %s\n", colorDim, colorReset, *defect.AssigneeID)
	}
	cmd.Printf("  %sCreated:%s    %s\n", colorDim, colorReset, formatAge(defect.CreatedAt))
	cmd.Println()
}

func colorizeSeverity(severity string) string {
	switch severity {
	case "critical", "blocker":
		return colorRed + severity + colorReset
	case "high":
		return colorYellow + severity + colorReset
	default:
		return colorDim + severity + colorReset
	}
}

func formatAge(t time.Time) string {
	duration := time.Since(t)
	switch {
	case duration < time.Minute:
		return fmt.Sprintf("%ds ago", int(duration.Seconds()))
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func init() {
	defectsCmd.Flags().IntVar(&defectsLimit, "limit", 50, "Maximum number of defects to list")
	defectsCmd.Flags().IntVar(&defectsOffset, "offset", 0, "Offset into the defect list")

	rootCmd.AddCommand(defectsCmd)
}
