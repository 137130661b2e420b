package cmd

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"sentiment-backend/internal/config"
	"sentiment-backend/internal/core"
)

// EnvFileFlag registers the -env flag shared by every binary.
func EnvFileFlag() *string {
	return flag.String("env", "", "path to load env from")
}

func LoadConfig(envFile string) *config.Config {
	if envFile == "" {
		log.Printf("no env file specified, using os.Environ and ./.env only")
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	return cfg
}

func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// InitializeModel runs the startup sequence: ORT environment first, then the
// tokenizer and model. Any failure is fatal.
func InitializeModel(cfg *config.Config) *core.Loader {
	if err := core.InitRuntime(cfg.OnnxRuntimeDylib); err != nil {
		log.Fatalf("could not init ONNX Runtime: %v", err)
	}

	loader, err := core.Load(cfg.LoaderConfig())
	if err != nil {
		log.Fatalf("could not load sentiment model: %v", err)
	}
	return loader
}

// Shutdown releases the pipeline and the ORT environment, in that order.
func Shutdown(loader *core.Loader) {
	loader.Close()
	if err := core.DestroyRuntime(); err != nil {
		slog.Error("error destroying onnx env", "error", err)
	}
}
