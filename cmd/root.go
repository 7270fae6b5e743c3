package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// appName is the binary name shown in CLI usage output
const appName = "healthscan"

// k collects flag values for the commands; the service config proper is
// loaded separately by config.Load
var k *koanf.Koanf

// rootCmd is the base command; serve and analyze hang off it
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "website health analysis service: crawl, score, recommend and snapshot SEO audits",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		err := initCmdFlags(cmd)
		cobra.CheckErr(err)
	},
}

// Execute runs the CLI under a signal-aware context so in-flight
// analyses get a chance to finish on SIGINT/SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down gracefully...")
	}()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

// init initializes the koanf instance and registers persistent flags on the root command
func init() {
	k = koanf.New(".")
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().Bool("pretty", false, "enable pretty (human readable) logging output")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging output")
	rootCmd.PersistentFlags().String("config", "./config/.config.yaml", "config file location")
}

// initConfig loads the root flags and wires logging before any
// subcommand runs
func initConfig() {
	if err := initCmdFlags(rootCmd); err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}

	setupLogging()
}

// initCmdFlags loads the flags from the command line into the koanf instance
func initCmdFlags(cmd *cobra.Command) error {
	return k.Load(posflag.Provider(cmd.Flags(), k.Delim(), k), nil)
}

// setupLogging configures zerolog based on the debug and pretty flags
func setupLogging() {
	level := zerolog.InfoLevel

	if k.Bool("debug") {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	if k.Bool("pretty") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
