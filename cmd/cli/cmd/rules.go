package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List workflow rules",
	Long:  `List stored automation rules and the trigger each one listens on.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the FLAKEWATCH_TOKEN environment variable")
			return
		}

		client := NewClient(url, token)
		rules, err := client.ListRules()
		if err != nil {
			cmd.Printf("Failed to list rules: %v\n", err)
			return
		}

		if len(rules) == 0 {
			cmd.Println("No rules configured.")
			return
		}

		for _, rule := range rules {
			state := colorGreen + "active" + colorReset
			if !rule.Active {
				state = colorDim + "inactive" + colorReset
			}
			cmd.Printf("%s%s%s (%s)\n", colorBold, rule.Name, colorReset, state)
			cmd.Printf("  %sTrigger:%s %s\n", colorDim, colorReset, rule.Trigger)
			cmd.Printf("  %sActions:%s %d\n", colorDim, colorReset, rule.Actions)
		}
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
