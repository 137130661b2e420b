package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ErrRuntimeNotInitialized = errors.New("onnx runtime is not initialized, InitRuntime must be called before creating a pipeline")

var (
	initOnce sync.Once
	initErr  error
)

// InitRuntime points onnxruntime_go at the shared library and creates the
// global ORT environment. It must run once per process before any model
// session is created; later calls return the result of the first one.
func InitRuntime(dylibPath string) error {
	initOnce.Do(func() {
		if dylibPath == "" {
			initErr = fmt.Errorf("onnx runtime shared library path must be set")
			return
		}
		ort.SetSharedLibraryPath(dylibPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("could not init ONNX Runtime: %w", err)
			return
		}
		slog.Info("initialized onnx runtime", "library", dylibPath)
	})
	return initErr
}

func runtimeReady() bool {
	return ort.IsInitialized()
}

// DestroyRuntime tears down the ORT environment. Call it once, after every
// pipeline has been released.
func DestroyRuntime() error {
	if !runtimeReady() {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("error destroying onnx env: %w", err)
	}
	return nil
}
