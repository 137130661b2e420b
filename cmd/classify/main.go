package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sentiment-backend/cmd"
	"sentiment-backend/internal/core"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

const chunkSize = 64

type result struct {
	BatchId uuid.UUID
	Line    int
	Text    string
	Label   string
	Score   float32
}

func readLines(r io.Reader) ([]string, []int, error) {
	var texts []string
	var lines []int
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		texts = append(texts, text)
		lines = append(lines, n)
	}
	return texts, lines, scanner.Err()
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func run(ctx context.Context, pipeline core.Pipeline, texts []string, lines []int, out io.Writer, concurrency int) error {
	batchId := uuid.New()
	enc := json.NewEncoder(out)

	bar := progressbar.NewOptions(len(texts),
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Finish() //nolint:errcheck

	for start := 0; start < len(texts); start += chunkSize {
		end := min(start+chunkSize, len(texts))
		preds, err := core.PredictBatch(ctx, pipeline, texts[start:end], concurrency)
		if err != nil {
			return fmt.Errorf("error classifying lines %d-%d: %w", lines[start], lines[end-1], err)
		}
		for i, pred := range preds {
			if err := enc.Encode(result{
				BatchId: batchId,
				Line:    lines[start+i],
				Text:    texts[start+i],
				Label:   pred.Label,
				Score:   pred.Score,
			}); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}
		}
		bar.Add(len(preds)) //nolint:errcheck
	}

	slog.Info("classification complete", "batch_id", batchId, "texts", len(texts), "device", pipeline.Device().Name)
	return nil
}

func main() {
	envFile := cmd.EnvFileFlag()
	in := flag.String("in", "-", "file with one text per line, - for stdin")
	outPath := flag.String("out", "-", "jsonl output file, - for stdout")
	device := flag.String("device", "", "device to run on, defaults to DEVICE from the env")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cmd.SetupLogging(*debug)

	cfg := cmd.LoadConfig(*envFile)
	if *device == "" {
		*device = cfg.Device
	}

	input, err := openInput(*in)
	if err != nil {
		log.Fatalf("error opening input: %v", err)
	}
	texts, lines, err := readLines(input)
	input.Close()
	if err != nil {
		log.Fatalf("error reading input: %v", err)
	}

	loader := cmd.InitializeModel(cfg)
	defer cmd.Shutdown(loader)

	pipeline, err := loader.GetPipeline(*device)
	if err != nil {
		log.Fatalf("could not create pipeline on device %s: %v", *device, err)
	}

	output, err := openOutput(*outPath)
	if err != nil {
		log.Fatalf("error opening output: %v", err)
	}
	defer output.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, pipeline, texts, lines, output, cfg.Concurrency); err != nil {
		slog.Error("classification failed", "error", err)
		os.Exit(1)
	}
}
