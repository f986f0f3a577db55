package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Tokenizer produces fixed-length model inputs for BERT-style encoders.
// attentionMask is 1 for real tokens and 0 for padding.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const defaultMaxTokens = 128

// HashTokenizer maps words to hashed token IDs. It needs no vocabulary file and is used
// when none is configured.
type HashTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *HashTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	ids := make([]int64, 0, len(text)/4+1)
	for _, w := range SplitWords(text) {
		ids = append(ids, int64(1000+HashString(w)%29000))
	}
	return frame(ids, specialTokens{cls: 101, sep: 102, pad: 0}, maxTokens)
}

type specialTokens struct {
	cls, sep, unk, pad int64
}

// frame wraps ids in CLS/SEP, truncates and pads to maxTokens.
func frame(ids []int64, sp specialTokens, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = sp.pad
	}

	inputIDs[0] = sp.cls
	attentionMask[0] = 1
	pos := 1
	for _, id := range ids {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = id
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = sp.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// VocabTokenizer is a greedy longest-match WordPiece tokenizer over a vocabulary file
// with one token per line; the line number is the token ID.
type VocabTokenizer struct {
	vocab   map[string]int64
	special specialTokens
	// continuation prefix for word-internal pieces, "##" for WordPiece vocabularies
	prefix string
}

// LoadVocabTokenizer reads a vocab.txt file. Both BERT ([CLS]/[SEP]) and
// sentencepiece-style (<s>/</s>) special tokens are recognized.
func LoadVocabTokenizer(path string) (*VocabTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var n int64
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r")
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = n
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return NewVocabTokenizer(vocab)
}

// NewVocabTokenizer builds a tokenizer from an in-memory vocabulary.
func NewVocabTokenizer(vocab map[string]int64) (*VocabTokenizer, error) {
	t := &VocabTokenizer{vocab: vocab, prefix: "##"}
	lookup := func(names ...string) (int64, bool) {
		for _, name := range names {
			if id, ok := vocab[name]; ok {
				return id, true
			}
		}
		return 0, false
	}
	var ok bool
	if t.special.cls, ok = lookup("[CLS]", "<s>"); !ok {
		return nil, fmt.Errorf("vocabulary has no [CLS] or <s> token")
	}
	if t.special.sep, ok = lookup("[SEP]", "</s>"); !ok {
		return nil, fmt.Errorf("vocabulary has no [SEP] or </s> token")
	}
	t.special.unk, _ = lookup("[UNK]", "<unk>")
	t.special.pad, _ = lookup("[PAD]", "<pad>")
	return t, nil
}

// Tokenize splits text into words, then each word into the longest vocabulary pieces.
// Words that cannot be split map to the unknown token.
func (t *VocabTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, w := range SplitWords(text) {
		ids = append(ids, t.wordPieces(w)...)
	}
	return frame(ids, t.special, maxTokens)
}

func (t *VocabTokenizer) wordPieces(word string) []int64 {
	runes := []rune(word)
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64
		found := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = t.prefix + piece
			}
			if v, ok := t.vocab[piece]; ok {
				id, found = v, true
				break
			}
			end--
		}
		if !found {
			return []int64{t.special.unk}
		}
		out = append(out, id)
		start = end
	}
	return out
}

// SplitWords lowercases text and splits it into runs of letters and digits.
func SplitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// HashString returns a deterministic non-negative hash for use as a token ID.
func HashString(s string) int {
	var h uint32
	for _, c := range s {
		h = 31*h + uint32(c)
	}
	return int(h & 0x7fffffff)
}
