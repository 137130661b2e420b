package config

import (
	"fmt"
	"log"

	"sentiment-backend/internal/core"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ModelDir         string `env:"MODEL_DIR" envDefault:"model"`
	TokenizerPath    string `env:"TOKENIZER_PATH"`
	Device           string `env:"DEVICE" envDefault:"mps"`
	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB,required"`
	MaxSeqLen        int    `env:"MAX_SEQ_LEN" envDefault:"0"`
	IntraOpThreads   int    `env:"INTRA_OP_THREADS" envDefault:"0"`
	Concurrency      int    `env:"CONCURRENCY" envDefault:"4"`
	Port             int    `env:"PORT" envDefault:"8002"`
}

// LoadConfig reads the config from the environment. envFile, if set, is
// loaded first and must exist; otherwise a .env in the working directory is
// used when present.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		log.Printf("loading env from file %s", envFile)
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, continuing with environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Concurrency < 1 {
		log.Printf("Invalid CONCURRENCY value '%d', using default 1", cfg.Concurrency)
		cfg.Concurrency = 1
	}
	if cfg.MaxSeqLen < 0 {
		return nil, fmt.Errorf("MAX_SEQ_LEN must be >= 0, got %d", cfg.MaxSeqLen)
	}

	return &cfg, nil
}

func (c *Config) LoaderConfig() core.LoaderConfig {
	return core.LoaderConfig{
		ModelDir:      c.ModelDir,
		TokenizerPath: c.TokenizerPath,
		Onnx: core.OnnxOptions{
			MaxSeqLen:      c.MaxSeqLen,
			IntraOpThreads: c.IntraOpThreads,
		},
	}
}
