package core

import (
	"fmt"
	"os"

	"github.com/daulet/tokenizers"
)

// TokenizerOptions mirrors the HuggingFace fast tokenizer options the model
// was exported with.
type TokenizerOptions struct {
	// CleanUpTokenizationSpaces must stay false. The Rust tokenizer never runs
	// the python side space cleanup, so enabling it would silently be ignored.
	CleanUpTokenizationSpaces bool
}

type Tokenizer struct {
	tk *tokenizers.Tokenizer
}

func LoadTokenizer(path string, opts TokenizerOptions) (*Tokenizer, error) {
	if opts.CleanUpTokenizationSpaces {
		return nil, fmt.Errorf("clean_up_tokenization_spaces is not supported")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer load: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("tokenizer load: %s is a directory", path)
	}

	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer load %s: %w", path, err)
	}
	return &Tokenizer{tk: tk}, nil
}

type encoding struct {
	ids           []int64
	attentionMask []int64
	typeIDs       []int64
}

// encode tokenizes text with special tokens. Sequences longer than maxLen are
// cut to maxLen, keeping the trailing special token.
func (t *Tokenizer) encode(text string, maxLen int) encoding {
	enc := t.tk.EncodeWithOptions(text, true,
		tokenizers.WithReturnAttentionMask(),
		tokenizers.WithReturnTypeIDs(),
		tokenizers.WithReturnSpecialTokensMask(),
	)

	n := len(enc.IDs)
	lastSpecial := n > 0 && len(enc.SpecialTokensMask) == n && enc.SpecialTokensMask[n-1] == 1
	keep := truncateIndices(n, maxLen, lastSpecial)

	out := encoding{
		ids:           make([]int64, len(keep)),
		attentionMask: make([]int64, len(keep)),
		typeIDs:       make([]int64, len(keep)),
	}
	for j, i := range keep {
		out.ids[j] = int64(enc.IDs[i])
		out.attentionMask[j] = 1
		if i < len(enc.AttentionMask) {
			out.attentionMask[j] = int64(enc.AttentionMask[i])
		}
		if i < len(enc.TypeIDs) {
			out.typeIDs[j] = int64(enc.TypeIDs[i])
		}
	}
	return out
}

func truncateIndices(n, maxLen int, keepLast bool) []int {
	size := n
	if maxLen > 0 && n > maxLen {
		size = maxLen
	}
	keep := make([]int, size)
	for i := range keep {
		keep[i] = i
	}
	if size < n && size > 0 && keepLast {
		keep[size-1] = n - 1
	}
	return keep
}

func (t *Tokenizer) Close() {
	t.tk.Close()
}
