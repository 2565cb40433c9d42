package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/keypoints/ai/observability/logging"
	"github.com/hrygo/keypoints/internal/profile"
	"github.com/hrygo/keypoints/internal/version"
	"github.com/hrygo/keypoints/server"
)

var (
	rootCmd = &cobra.Command{
		Use:          "keypoints",
		Short:        `Upload a document or image and get back a numbered list of its key points.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Only load .env for direct binary execution (not when running as systemd service)
			if !isRunningAsSystemdService() {
				// Ignore error if the file doesn't exist
				_ = godotenv.Load()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile := loadProfile()
			setupLogger(os.Stderr, instanceProfile)

			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				slog.Error("invalid configuration", "error", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
			defer stop()

			s, err := server.NewServer(ctx, instanceProfile, server.Deps{})
			if err != nil {
				slog.Error("failed to create server", "error", err)
				return err
			}

			printGreetings(instanceProfile)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return s.Start(gctx)
			})
			g.Go(func() error {
				// Trigger graceful shutdown on SIGINT/SIGTERM or when Start fails.
				<-gctx.Done()
				s.Shutdown(context.Background())
				return nil
			})
			return g.Wait()
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8000)
	viper.SetDefault("cors-origin", "http://localhost:5173")
	viper.SetDefault("max-upload-mb", 20)
	viper.SetDefault("log-level", "info")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8000, "port of server")
	flags.String("cors-origin", "http://localhost:5173", "origin allowed to call the API from a browser")
	flags.String("llm-provider", "", "completion provider: openrouter, openai, deepseek, ollama (default openrouter)")
	flags.String("llm-base-url", "", "OpenAI-compatible base URL, overrides the provider default")
	flags.String("llm-model", "", "model identifier, overrides the provider default")
	flags.Int("llm-timeout", 0, "completion timeout in seconds (default 120)")
	flags.String("ocr-bin", "", "path to the tesseract binary (default tesseract)")
	flags.String("ocr-languages", "", `tesseract languages, e.g. "eng+deu" (default eng)`)
	flags.Int64("max-upload-mb", 20, "maximum request body size in megabytes")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	for _, name := range []string{
		"mode", "addr", "port", "cors-origin",
		"llm-provider", "llm-base-url", "llm-model", "llm-timeout",
		"ocr-bin", "ocr-languages", "max-upload-mb", "log-level",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("keypoints")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadProfile builds the profile from flags and KEYPOINTS_* variables.
func loadProfile() *profile.Profile {
	mode := viper.GetString("mode")
	return &profile.Profile{
		Mode:         mode,
		Addr:         viper.GetString("addr"),
		Port:         viper.GetInt("port"),
		CORSOrigin:   viper.GetString("cors-origin"),
		LogLevel:     viper.GetString("log-level"),
		LLMProvider:  viper.GetString("llm-provider"),
		LLMBaseURL:   viper.GetString("llm-base-url"),
		LLMModel:     viper.GetString("llm-model"),
		LLMTimeout:   viper.GetInt("llm-timeout"),
		OCRBin:       viper.GetString("ocr-bin"),
		OCRLanguages: viper.GetString("ocr-languages"),
		MaxUploadMB:  viper.GetInt64("max-upload-mb"),
		Version:      version.String(mode),
	}
}

func setupLogger(w io.Writer, p *profile.Profile) *slog.Logger {
	return logging.Setup(w, p.Mode, p.LogLevel)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Keypoints %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("Completion provider: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	fmt.Printf("Allowed origin: %s\n", profile.CORSOrigin)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Upload endpoint: http://localhost:%d/upload-file\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Upload endpoint: http://%s:%d/upload-file\n", profile.Addr, profile.Port)
	}
	fmt.Println()
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
