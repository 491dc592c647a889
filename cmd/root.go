/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cache/impl/file"
	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	dominanceCmd "github.com/mpapenbr/track-dominance/pkg/cmd/dominance"
	exportCmd "github.com/mpapenbr/track-dominance/pkg/cmd/export"
	fetchCmd "github.com/mpapenbr/track-dominance/pkg/cmd/fetch"
	migrateCmd "github.com/mpapenbr/track-dominance/pkg/cmd/migrate"
	runsCmd "github.com/mpapenbr/track-dominance/pkg/cmd/runs"
	scheduleCmd "github.com/mpapenbr/track-dominance/pkg/cmd/schedule"
	serveCmd "github.com/mpapenbr/track-dominance/pkg/cmd/serve"
	speedtraceCmd "github.com/mpapenbr/track-dominance/pkg/cmd/speedtrace"
	versionCmd "github.com/mpapenbr/track-dominance/pkg/cmd/version"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/version"
)

const envPrefix = "TDM"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "tdm",
	Short:   "Track dominance maps from OpenF1 telemetry",
	Long:    ``,
	Version: version.FullVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.SetupLogger()
		log.Debug("Config:",
			log.String("cacheType", config.CacheType),
			log.String("cacheDir", config.CacheDir),
			log.String("openf1", config.OpenF1URL),
			log.Bool("telemetry", config.EnableTelemetry),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		//nolint:errcheck // sync on stderr may fail
		log.Sync()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.tdm.yml)")

	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"yaml file with log levels per logger")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")

	rootCmd.PersistentFlags().StringVar(&config.CacheType,
		"cache-type",
		string(file.StoreTypeFile),
		"response cache (file, memory, nats)")
	rootCmd.PersistentFlags().StringVar(&config.CacheDir,
		"cache-dir",
		"",
		"storage directory for the file cache (default is $HOME/.cache/tdm)")
	rootCmd.PersistentFlags().StringVar(&config.CacheTTL,
		"cache-ttl",
		"",
		"age after which cached responses are fetched again (default: never)")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL,
		"nats-url",
		"nats://localhost:4222",
		"NATS server used by cache type nats")
	rootCmd.PersistentFlags().StringVar(&config.OpenF1URL,
		"openf1-url",
		"https://api.openf1.org/v1",
		"base url of the OpenF1 api")
	rootCmd.PersistentFlags().StringVar(&config.HTTPTimeout,
		"http-timeout",
		"30s",
		"timeout for a single request to the OpenF1 api")

	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data ('stdout' prints locally)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"",
		"Connection string for the database, e.g. postgresql://user:pw@host:5432/tdm")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")

	// add commands here
	rootCmd.AddCommand(scheduleCmd.NewScheduleCmd())
	rootCmd.AddCommand(fetchCmd.NewFetchCmd())
	rootCmd.AddCommand(dominanceCmd.NewDominanceCmd())
	rootCmd.AddCommand(speedtraceCmd.NewSpeedTraceCmd())
	rootCmd.AddCommand(exportCmd.NewExportCmd())
	rootCmd.AddCommand(runsCmd.NewRunsCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(serveCmd.NewServeCmd())
	rootCmd.AddCommand(versionCmd.NewVersionCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tdm" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tdm")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindCommands(rootCmd, viper.GetViper())
}

// bindCommands binds the flags of cmd and all of its subcommands
func bindCommands(cmd *cobra.Command, v *viper.Viper) {
	bindFlags(cmd, v)
	for _, c := range cmd.Commands() {
		bindCommands(c, v)
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --cache-dir to TDM_CACHE_DIR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
