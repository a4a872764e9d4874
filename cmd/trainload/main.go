// Command trainload is the CLI front end for the training-load analytics
// engine: decode a session file, apply device quirks and validation, run
// the metric engines, and export the results. Replaces the teacher's
// bare-flag cmd/fit_analyze and cmd/fitnotes mains with a cobra+viper CLI,
// grounded on rohankatakam-coderisk's CLI/config stack, and threads
// structured logging via sirupsen/logrus the same way.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log     = logrus.New()
	rootCmd = &cobra.Command{
		Use:   "trainload",
		Short: "Decode, validate, and analyze endurance training session files",
	}
)

func main() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.trainload.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newPMCCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".trainload")
		viper.AddConfigPath("$HOME")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
