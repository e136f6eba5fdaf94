package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	nsqdAddr   string
	topic      string
	outputJSON bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "SendBridge CLI - Interact with the SendBridge dispatch service",
	Long: `SendBridge CLI (bridgectl) is a command line tool for interacting with
the SendBridge message dispatch service.

You can use it to publish messages for dispatch, run local dispatch
simulations against flaky providers, and manage CLI configuration.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bridgectl.yaml)")
	rootCmd.PersistentFlags().StringVar(&nsqdAddr, "nsqd", "localhost:4150", "nsqd TCP address (host:port)")
	rootCmd.PersistentFlags().StringVar(&topic, "topic", "messages", "NSQ topic for dispatch requests")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	// Bind flags to viper
	viper.BindPFlag("nsqd", rootCmd.PersistentFlags().Lookup("nsqd"))
	viper.BindPFlag("topic", rootCmd.PersistentFlags().Lookup("topic"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bridgectl")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Override global variables with config values if flags weren't explicitly set
	if !rootCmd.PersistentFlags().Changed("nsqd") {
		if s := viper.GetString("nsqd"); s != "" {
			nsqdAddr = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("topic") {
		if s := viper.GetString("topic"); s != "" {
			topic = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("json") {
		outputJSON = viper.GetBool("json")
	}
}

// printOutput renders v as indented JSON on stdout.
func printOutput(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "output error:", err)
		return
	}
	fmt.Println(string(b))
}
