package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// DefaultDevice targets the Apple silicon GPU, the device the model is
// normally served on.
const DefaultDevice = "mps"

// Backend names an ONNX Runtime execution provider.
type Backend string

const (
	CPU      Backend = "cpu"
	CoreML   Backend = "coreml"
	CUDA     Backend = "cuda"
	DirectML Backend = "directml"
)

var ErrUnsupportedDevice = errors.New("unsupported device")

// Device is a parsed device identifier such as "mps", "cpu" or "cuda:1".
type Device struct {
	Name    string
	Backend Backend
	Index   int
}

func (d Device) String() string {
	return d.Name
}

var deviceAliases = map[string]Backend{
	"cpu":      CPU,
	"mps":      CoreML,
	"coreml":   CoreML,
	"cuda":     CUDA,
	"gpu":      CUDA,
	"directml": DirectML,
	"dml":      DirectML,
}

func ParseDevice(name string) (Device, error) {
	if name == "" {
		name = DefaultDevice
	}

	base, idx, hasIdx := strings.Cut(strings.ToLower(strings.TrimSpace(name)), ":")
	backend, ok := deviceAliases[base]
	if !ok {
		return Device{}, fmt.Errorf("%w: %q", ErrUnsupportedDevice, name)
	}

	index := 0
	if hasIdx {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("%w: invalid device index in %q", ErrUnsupportedDevice, name)
		}
		if backend != CUDA && backend != DirectML {
			return Device{}, fmt.Errorf("%w: %s does not take a device index", ErrUnsupportedDevice, base)
		}
		index = n
	}

	return Device{Name: name, Backend: backend, Index: index}, nil
}

// sessionOptions builds ORT session options with the execution provider for
// the device appended. The caller owns the returned options.
func (d Device) sessionOptions(intraOpThreads int) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}

	if intraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(intraOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("error setting intra op threads: %w", err)
		}
	}

	switch d.Backend {
	case CPU:
	case CoreML:
		err = opts.AppendExecutionProviderCoreML(0)
	case CUDA:
		err = appendCUDA(opts, d.Index)
	case DirectML:
		err = opts.AppendExecutionProviderDirectML(d.Index)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedDevice, d.Name)
	}
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("error enabling %s execution provider: %w", d.Backend, err)
	}
	return opts, nil
}

func appendCUDA(opts *ort.SessionOptions, index int) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()

	if err := cudaOpts.Update(map[string]string{"device_id": strconv.Itoa(index)}); err != nil {
		return err
	}
	return opts.AppendExecutionProviderCUDA(cudaOpts)
}
