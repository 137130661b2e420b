package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testTokenizerJSON = `{
  "version": "1.0",
  "truncation": null,
  "padding": null,
  "added_tokens": [],
  "normalizer": null,
  "pre_tokenizer": {"type": "Whitespace"},
  "post_processor": null,
  "decoder": null,
  "model": {
    "type": "WordLevel",
    "vocab": {"[UNK]": 0, "good": 1, "bad": 2, "movie": 3},
    "unk_token": "[UNK]"
  }
}`

const testModelConfig = `{
  "architectures": ["DistilBertForSequenceClassification"],
  "id2label": {"0": "NEGATIVE", "1": "POSITIVE"},
  "label2id": {"NEGATIVE": 0, "POSITIVE": 1},
  "max_position_embeddings": 512
}`

// writeModelDir lays out a model directory. Files mapped to "" are skipped.
func writeModelDir(t *testing.T, files map[string]string) string {
	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		if content == "" {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func validModelFiles() map[string]string {
	return map[string]string{
		"tokenizer.json": testTokenizerJSON,
		"config.json":    testModelConfig,
		"model.onnx":     "not a real graph",
	}
}
