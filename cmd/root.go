package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	baseURL   string
	apiKey    string
	model     string
	noStream  bool
	noSpinner bool
	Version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "legate",
	Version: Version,
	Short:   "Legate - conversational agent with MCP tools",
	Long: `Legate is an interactive conversational agent that streams model
output and dispatches tool calls to configured MCP servers.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Start interactive REPL mode
		startREPL()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.legate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "completion endpoint base URL (e.g., https://api.openai.com/v1)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", "", "API key (falls back to OPENAI_API_KEY / ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model name (optional, auto-detected from server)")
	rootCmd.PersistentFlags().BoolVar(&noStream, "no-stream", false, "disable streaming output (render the full response at once)")
	rootCmd.PersistentFlags().BoolVar(&noSpinner, "no-spinner", false, "disable spinner animations")

	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("no_stream", rootCmd.PersistentFlags().Lookup("no-stream"))
	viper.BindPFlag("no_spinner", rootCmd.PersistentFlags().Lookup("no-spinner"))
}

func initConfig() {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := home + "/.legate"
		os.MkdirAll(configDir, 0755)
		cfgFile = configDir + "/config.yaml"
	}

	viper.SetEnvPrefix("LEGATE")
	viper.AutomaticEnv()
}
