package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ONNX_RUNTIME_DYLIB", "/opt/onnxruntime/libonnxruntime.so")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "model", cfg.ModelDir)
	assert.Equal(t, "mps", cfg.Device)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 8002, cfg.Port)

	lc := cfg.LoaderConfig()
	assert.Equal(t, "model", lc.ModelDir)
	assert.Equal(t, "", lc.TokenizerPath)
	assert.Equal(t, 0, lc.Onnx.MaxSeqLen)
}

func TestLoadConfig_RequiresDylib(t *testing.T) {
	t.Setenv("ONNX_RUNTIME_DYLIB", "")
	os.Unsetenv("ONNX_RUNTIME_DYLIB")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "ONNX_RUNTIME_DYLIB")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ONNX_RUNTIME_DYLIB=/tmp/libort.so\nDEVICE=cuda:1\nCONCURRENCY=0\nMAX_SEQ_LEN=128\n"), 0644))

	// godotenv does not override variables that are already set
	for _, key := range []string{"ONNX_RUNTIME_DYLIB", "DEVICE", "CONCURRENCY", "MAX_SEQ_LEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/libort.so", cfg.OnnxRuntimeDylib)
	assert.Equal(t, "cuda:1", cfg.Device)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 128, cfg.LoaderConfig().Onnx.MaxSeqLen)
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfig_NegativeMaxSeqLen(t *testing.T) {
	t.Setenv("ONNX_RUNTIME_DYLIB", "/tmp/libort.so")
	t.Setenv("MAX_SEQ_LEN", "-1")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "MAX_SEQ_LEN")
}
