package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"KabuScout/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "scout",
	Short:         "Technical screener for Tokyo Stock Exchange tickers",
	Long:          `KabuScout scores Japanese equities on RSI, MACD, moving averages, Heikin-Ashi and candlestick patterns and lists buy and sell candidates.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		setupLogging(c.Log.Level)
		cfg = c
		return nil
	},
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "config file")
	rootCmd.AddCommand(scanCmd, serveCmd, sectorsCmd)
}

func setupLogging(level string) {
	var w log.Writer = &log.IOWriter{Writer: os.Stderr}
	if log.IsTerminal(os.Stderr.Fd()) {
		w = &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr}
	}
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer:     w,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("scout failed")
		os.Exit(1)
	}
}
