package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/studysense/studysense/internal/profile"
	"github.com/studysense/studysense/server"
	"github.com/studysense/studysense/internal/observability"
	"github.com/studysense/studysense/store"
	"github.com/studysense/studysense/store/db"
)

const greetingBanner = `
 ___ _            _      ___
/ __| |_ _  _ __| |_  _/ __| ___ _ _  ___ ___
\__ \  _| || / _  | || \__ \/ -_) ' \(_-</ -_)
|___/\__|\_,_\__,_|\_, |___/\___|_||_/__/\___|
                   |__/
`

var rootCmd = &cobra.Command{
	Use:   "studysense",
	Short: "A lecture study assistant that turns transcripts into structured notes, chat, and practice questions.",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("failed to validate profile: %w", err)
		}

		logger := observability.NewLogger(instanceProfile.Mode)
		slog.SetDefault(logger)

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create db driver: %w", err)
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate store: %w", err)
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, logger)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			slog.Info("shutdown signal received")
			s.Shutdown(context.Background())
			cancel()
		}()

		printGreetings(instanceProfile)
		return s.Start()
	},
}

var version = "0.1.0"

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Print(greetingBanner)
	fmt.Printf("Version %s has been started on port %d\n", instanceProfile.Version, instanceProfile.Port)
}

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	if err := viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("driver", rootCmd.PersistentFlags().Lookup("driver")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("dsn", rootCmd.PersistentFlags().Lookup("dsn")); err != nil {
		panic(err)
	}

	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8230)
	viper.SetEnvPrefix("studysense")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run command", "error", err)
		os.Exit(1)
	}
}
