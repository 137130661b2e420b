package core

import (
	"fmt"
	"log/slog"
	"slices"

	"sentiment-backend/internal/core/types"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
	logitsOutput  = "logits"
)

type OnnxPipeline struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *Tokenizer
	model      *Model
	device     Device
	inputs     []string
	output     string
	activation activation
	maxSeqLen  int
}

type OnnxOptions struct {
	// MaxSeqLen overrides the model's max_position_embeddings when > 0.
	MaxSeqLen      int
	IntraOpThreads int
}

// NewOnnxPipeline creates an ORT session for model on the named device. The
// tokenizer and model are borrowed, Release does not free them.
func NewOnnxPipeline(tokenizer *Tokenizer, model *Model, deviceName string, opts OnnxOptions) (*OnnxPipeline, error) {
	device, err := ParseDevice(deviceName)
	if err != nil {
		return nil, err
	}

	if !runtimeReady() {
		return nil, ErrRuntimeNotInitialized
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfoWithONNXData(model.onnxBytes)
	if err != nil {
		return nil, fmt.Errorf("error reading model inputs/outputs: %w", err)
	}

	inputs, output, err := selectIO(ioNames(inputInfo), ioNames(outputInfo))
	if err != nil {
		return nil, err
	}

	sessionOpts, err := device.sessionOptions(opts.IntraOpThreads)
	if err != nil {
		return nil, err
	}
	defer sessionOpts.Destroy()

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(model.onnxBytes, inputs, []string{output}, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session on device %s: %w", device, err)
	}

	maxSeqLen := model.MaxSeqLen
	if opts.MaxSeqLen > 0 {
		maxSeqLen = opts.MaxSeqLen
	}

	slog.Info("created sentiment pipeline", "device", device.Name, "backend", device.Backend, "inputs", inputs, "output", output, "labels", model.Labels)

	return &OnnxPipeline{
		session:    session,
		tokenizer:  tokenizer,
		model:      model,
		device:     device,
		inputs:     inputs,
		output:     output,
		activation: activationFor(model.ProblemType, len(model.Labels)),
		maxSeqLen:  maxSeqLen,
	}, nil
}

func ioNames(info []ort.InputOutputInfo) []string {
	names := make([]string, len(info))
	for i, in := range info {
		names[i] = in.Name
	}
	return names
}

// selectIO picks the graph inputs the pipeline knows how to feed and the
// logits output. input_ids is required; the others are fed only when the
// graph declares them.
func selectIO(inputNames, outputNames []string) ([]string, string, error) {
	var inputs []string
	for _, name := range inputNames {
		switch name {
		case inputIDs, attentionMask, tokenTypeIDs:
			inputs = append(inputs, name)
		default:
			return nil, "", fmt.Errorf("%w: unsupported model input %q", ErrInvalidModelConfig, name)
		}
	}
	if !slices.Contains(inputs, inputIDs) {
		return nil, "", fmt.Errorf("%w: model has no %s input", ErrInvalidModelConfig, inputIDs)
	}

	if len(outputNames) == 0 {
		return nil, "", fmt.Errorf("%w: model has no outputs", ErrInvalidModelConfig)
	}
	output := outputNames[0]
	if slices.Contains(outputNames, logitsOutput) {
		output = logitsOutput
	}
	return inputs, output, nil
}

func (p *OnnxPipeline) Device() Device {
	return p.device
}

func (p *OnnxPipeline) Predict(text string) (types.Prediction, error) {
	enc := p.tokenizer.encode(text, p.maxSeqLen)
	if len(enc.ids) == 0 {
		return types.Prediction{}, fmt.Errorf("text produced no tokens")
	}

	shape := ort.NewShape(1, int64(len(enc.ids)))
	inputs := make([]ort.Value, 0, len(p.inputs))
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()

	for _, name := range p.inputs {
		var data []int64
		switch name {
		case inputIDs:
			data = enc.ids
		case attentionMask:
			data = enc.attentionMask
		case tokenTypeIDs:
			data = enc.typeIDs
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return types.Prediction{}, fmt.Errorf("error creating %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	numLabels := int64(len(p.model.Labels))
	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(1, numLabels))
	if err != nil {
		return types.Prediction{}, err
	}
	defer outT.Destroy()

	if err := p.session.Run(inputs, []ort.Value{outT}); err != nil {
		return types.Prediction{}, fmt.Errorf("session run error: %w", err)
	}

	logits := outT.GetData()
	if int64(len(logits)) != numLabels {
		return types.Prediction{}, fmt.Errorf("%w: got %d logits for %d labels", ErrInvalidModelConfig, len(logits), numLabels)
	}

	return postprocess(logits, p.model.Labels, p.activation), nil
}

func (p *OnnxPipeline) Release() {
	if err := p.session.Destroy(); err != nil {
		slog.Error("error destroying onnx session", "device", p.device.Name, "error", err)
	}
}
