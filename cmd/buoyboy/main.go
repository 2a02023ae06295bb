package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/config"
)

// cli holds the state shared by the commands of one invocation
type cli struct {
	v              *viper.Viper
	cfgFile        string
	serviceFactory buoy.ServiceFactory
}

func newRootCmd(factory buoy.ServiceFactory) *cobra.Command {
	c := &cli{v: viper.New(), serviceFactory: factory}

	rootCmd := &cobra.Command{
		Use:   "buoyboy",
		Short: "Fetch NDBC buoy wind and wave spectra",
		Long: `buoyboy downloads NDBC archive data for a buoy, joins the spectral
series onto the meteorological records and writes wind and wave records
to JSON, Parquet, NetCDF, a SQL database or DynamoDB.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.buoyboy.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
	_ = c.v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(c.newFetchCmd(), c.newBuoysCmd())
	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func (c *cli) initConfig() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		c.v.AddConfigPath(home)
		c.v.SetConfigType("yaml")
		c.v.SetConfigName(".buoyboy")
	}

	c.v.SetEnvPrefix("BUOYBOY")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && c.cfgFile != "" {
			return fmt.Errorf("reading config %s: %w", filepath.Clean(c.cfgFile), err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "Using config file:", c.v.ConfigFileUsed())
	}
	return nil
}

// appConfig layers flags and config file values over the environment
func (c *cli) appConfig() *config.Config {
	cfg := config.LoadFromEnv()
	if c.v.GetBool("verbose") {
		cfg.LogLevel = zerolog.DebugLevel
	}
	if cfg.Environment == "production" {
		// a terminal user wants readable logs
		cfg.Environment = "local"
	}
	if c.v.IsSet("num-dir-bins") {
		config.WithNumDirectionBins(c.v.GetInt("num-dir-bins"))(cfg)
	}
	if f := c.v.GetString("format"); f != "" {
		config.WithOutputFormat(f)(cfg)
	}
	if d := c.v.GetString("database-url"); d != "" {
		driver := c.v.GetString("database-driver")
		if driver == "" {
			driver = cfg.DatabaseDriver
		}
		config.WithDatabase(driver, d)(cfg)
	}
	if t := c.v.GetString("dynamo-table"); t != "" {
		config.WithDynamoTable(t)(cfg)
	}
	if u := c.v.GetString("ndbc-url"); u != "" {
		config.WithNDBCBaseURL(u)(cfg)
	}
	cfg.InitializeLogging()
	return cfg
}

func main() {
	if err := newRootCmd(&buoy.DefaultServiceFactory{}).Execute(); err != nil {
		os.Exit(1)
	}
}
