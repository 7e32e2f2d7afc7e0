package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verisphere/semantic-dedupe/dedupe"
	"github.com/verisphere/semantic-dedupe/embeddings"
	"github.com/verisphere/semantic-dedupe/internal/profile"
	"github.com/verisphere/semantic-dedupe/internal/version"
	"github.com/verisphere/semantic-dedupe/server"
	"github.com/verisphere/semantic-dedupe/store"
	"github.com/verisphere/semantic-dedupe/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Semantic claim dedupe service. Maps equivalent claims onto shared clusters with stable canonical representatives.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Load .env from the working directory when present.
		_ = godotenv.Load()
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode: viper.GetString("mode"),
			Addr: viper.GetString("addr"),
			DSN:  viper.GetString("dsn"),
		}
		// An explicit --port wins over the PORT environment variable.
		if cmd.PersistentFlags().Changed("port") {
			instanceProfile.Port = viper.GetInt("port")
		}
		instanceProfile.FromEnv()
		instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: instanceProfile.SlogLevel(),
		})))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		provider, err := embeddings.NewProvider(instanceProfile)
		if err != nil {
			slog.Error("failed to create embedding provider", "error", err)
			return
		}

		engine := dedupe.NewEngine(storeInstance, provider, instanceProfile)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, engine)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			return
		}

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful shutdown signal used by most process
		// managers (systemd, kubernetes).
		signal.Notify(c, terminationSignals...)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		slog.Info("dedupe service ready",
			"version", version.String(),
			"port", instanceProfile.Port,
			"driver", instanceProfile.Driver(),
			"provider", instanceProfile.EmbeddingsProvider,
			"model", instanceProfile.EmbeddingsModel)

		if err := s.Start(ctx); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start server", "error", err)
				cancel()
			}
		}

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("dsn", "", "database source name, overrides DATABASE_URL")

	for _, flag := range []string{"mode", "addr", "port", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("dedupe")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
