// Package commands implements the CLI commands for vendorfeed.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/vendorfeed/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vendorfeed",
	Short: "Config-driven product feed scraper for e-commerce vendors",
	Long: `Vendorfeed walks the product listings of the vendors described in a
vendors file, extracts one row per product and writes a deduplicated CSV
feed.

Each vendor picks a strategy: "listing" reads product cards, "detail"
follows every product link, "hybrid" reads cards and fills the gaps from
product pages.

Examples:
  # Scrape every vendor into products.csv
  vendorfeed scrape -v vendors.yaml

  # Scrape two vendors, at most 3 listing pages each, to stdout
  vendorfeed scrape --only acme,bolt --max-pages 3 -o -

  # Check a vendors file without fetching anything
  vendorfeed validate -v vendors.yaml`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.vendorfeed.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit log records as JSON")
	rootCmd.PersistentFlags().StringP("vendors", "v", "vendors.yaml", "vendors file (YAML or JSON)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("vendors", rootCmd.PersistentFlags().Lookup("vendors"))
}

func initConfig() {
	// Cookie secrets usually live in .env; a missing file is fine.
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".vendorfeed")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("VENDORFEED")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
