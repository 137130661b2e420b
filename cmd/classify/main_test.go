package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"sentiment-backend/internal/core"
	"sentiment-backend/internal/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lengthPipeline struct{}

func (lengthPipeline) Predict(text string) (types.Prediction, error) {
	if len(text) > 5 {
		return types.Prediction{Label: "POSITIVE", Score: 0.7}, nil
	}
	return types.Prediction{Label: "NEGATIVE", Score: 0.6}, nil
}

func (lengthPipeline) Device() core.Device {
	return core.Device{Name: "cpu", Backend: core.CPU}
}

func (lengthPipeline) Release() {}

func TestReadLines(t *testing.T) {
	texts, lines, err := readLines(strings.NewReader("first\n\n  second  \n\nthird"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, texts)
	assert.Equal(t, []int{1, 3, 5}, lines)
}

func TestRun(t *testing.T) {
	texts := make([]string, 0, 100)
	lines := make([]int, 0, 100)
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			texts = append(texts, "long text")
		} else {
			texts = append(texts, "tiny")
		}
		lines = append(lines, i+1)
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), lengthPipeline{}, texts, lines, &out, 4))

	dec := json.NewDecoder(&out)
	var got []result
	for dec.More() {
		var r result
		require.NoError(t, dec.Decode(&r))
		got = append(got, r)
	}

	require.Len(t, got, 100)
	for i, r := range got {
		assert.Equal(t, i+1, r.Line)
		assert.Equal(t, got[0].BatchId, r.BatchId)
		if i%2 == 0 {
			assert.Equal(t, "POSITIVE", r.Label)
		} else {
			assert.Equal(t, "NEGATIVE", r.Label)
		}
	}
}
