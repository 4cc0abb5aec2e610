package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/einlabs/ein/ai/agent"
	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/skills"
	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/ai/tools/calendar"
	"github.com/einlabs/ein/ai/tools/filesystem"
	"github.com/einlabs/ein/ai/tools/memorytool"
	"github.com/einlabs/ein/internal/profile"
	"github.com/einlabs/ein/internal/version"
	"github.com/einlabs/ein/server"
	"github.com/einlabs/ein/store"
	"github.com/einlabs/ein/store/db"
	"github.com/einlabs/ein/store/jsonfile"
)

var rootCmd = &cobra.Command{
	Use:   "ein",
	Short: `An AI personal assistant. One message in, one response out: intents, plans, tools and memory.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Ignore a missing .env; environment variables still apply.
		_ = godotenv.Load()
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		srv, err := buildServer(ctx, instanceProfile)
		if err != nil {
			return err
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			srv.Shutdown(ctx)
			cancel()
		}()

		printGreetings(instanceProfile)
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-ctx.Done()
		return nil
	},
}

func buildServer(ctx context.Context, instanceProfile *profile.Profile) (*server.Server, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to create db driver: %w", err)
	}

	dataDir := instanceProfile.Data
	profileMem, err := jsonfile.NewStructuredMemory(filepath.Join(dataDir, "profile.json"))
	if err != nil {
		return nil, err
	}
	habitsMem, err := jsonfile.NewStructuredMemory(filepath.Join(dataDir, "habits.json"))
	if err != nil {
		return nil, err
	}
	tasksMem, err := jsonfile.NewStructuredMemory(filepath.Join(dataDir, "tasks.json"))
	if err != nil {
		return nil, err
	}
	remindersMem, err := jsonfile.NewStructuredMemory(filepath.Join(dataDir, "reminders.json"))
	if err != nil {
		return nil, err
	}
	audit := jsonfile.NewAuditLog(filepath.Join(dataDir, "audit.jsonl"))

	storeInstance := store.New(dbDriver, profileMem, audit, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	llmService, err := llm.NewService(&llm.Config{
		Provider:            instanceProfile.LLMProvider,
		Model:               instanceProfile.LLMModel,
		APIKey:              instanceProfile.LLMAPIKey,
		BaseURL:             instanceProfile.LLMBaseURL,
		EmbeddingModel:      instanceProfile.EmbeddingModel,
		EmbeddingDimensions: instanceProfile.EmbeddingDimensions,
		Timeout:             instanceProfile.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm service: %w", err)
	}

	registry := tools.NewRegistry()
	cal := calendar.New(filepath.Join(dataDir, "calendar.ics"))
	cal.Register(registry)
	filesystem.New(dataDir).Register(registry)
	memorytool.New(storeInstance, llmService).Register(registry)

	taskSkill := skills.NewTasks(tasksMem)
	taskSkill.Register(registry)
	habitSkill := skills.NewHabits(habitsMem)
	habitSkill.Register(registry)
	skills.NewDayPlanner(cal, habitSkill, taskSkill).Register(registry)

	metrics := agent.NewMetrics(nil)
	pipeline := agent.NewPipeline(agent.Config{
		LLM:       llmService,
		Registry:  registry,
		LongTerm:  storeInstance,
		Profile:   profileMem,
		Habits:    habitsMem,
		Audit:     audit,
		Transient: agent.NewTransientStore(),
		Metrics:   metrics,
	})

	reminder := server.NewReminderScheduler(cal, remindersMem, func(r server.Reminder) {
		slog.Info("upcoming event", "event", r.Event.Name, "at", r.At)
	})

	return server.NewServer(instanceProfile, pipeline, metrics, reminder), nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("ein")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("Ein %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database driver: %s\n", p.Driver)
	fmt.Printf("Mode: %s\n", p.Mode)
	if p.Addr == "" {
		fmt.Printf("Server running on port %d\n", p.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", p.Addr, p.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
}
