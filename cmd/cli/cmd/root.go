package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "flakectl",
	Short: "Flakectl is a command line tool for interacting with the flakewatch triage engine",
	Long: `flakectl is the command-line interface for FlakeWatch, the CI test-signal
ingestion and automated triage engine.

FlakeWatch ingests test execution reports from CI pipelines, turns failures
into tracked defects, flags tests with non-deterministic outcomes, and runs
configurable automation rules on the resulting events.

Common workflows:

  Report a test result (normally done by the CI webhook):
    flakectl report --suite smoke --test login_test --status failed \
      --build 1234 --pipeline-url https://ci/run/1234 --branch main --commit abc123

  List open defects:
    flakectl defects

  List currently flagged flaky tests:
    flakectl flaky

  List automation rules:
    flakectl rules

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    FLAKEWATCH_API_URL    API endpoint (default: http://localhost:7430)
    FLAKEWATCH_TOKEN      Ingestion bearer token`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".flakectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".flakectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FLAKEWATCH_VARNAME"
	viper.SetEnvPrefix("FLAKEWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flakectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7430", "FlakeWatch API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
