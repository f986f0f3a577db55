package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHashTokenizer_Tokenize(t *testing.T) {
	tok := &HashTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 || ids[3] != 102 {
		t.Errorf("expected CLS at 0 and SEP at 3, got %v", ids)
	}
	if !reflect.DeepEqual(attn, []int64{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("attention = %v", attn)
	}
}

func TestHashTokenizer_Truncates(t *testing.T) {
	ids, attn, _ := (&HashTokenizer{}).Tokenize("a b c d e f g h", 4)
	if len(ids) != 4 || ids[3] != 102 {
		t.Errorf("ids = %v", ids)
	}
	for i, m := range attn {
		if m != 1 {
			t.Errorf("attention[%d] = 0, want all set", i)
		}
	}
}

func TestVocabTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nsemantic\nmap\n##s\nplay\n##ing\n"
	if err := os.WriteFile(path, []byte(vocab), 0644); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadVocabTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, attn, _ := tok.Tokenize("Semantic maps, playing xyz", 12)
	want := []int64{2, 4, 5, 6, 7, 8, 1, 3, 0, 0, 0, 0}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if attn[7] != 1 || attn[8] != 0 {
		t.Errorf("attention = %v", attn)
	}
}

func TestNewVocabTokenizer_SentencePieceSpecials(t *testing.T) {
	tok, err := NewVocabTokenizer(map[string]int64{"<s>": 0, "<pad>": 1, "</s>": 2, "<unk>": 3, "hi": 4})
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("hi", 5)
	if !reflect.DeepEqual(ids, []int64{0, 4, 2, 1, 1}) {
		t.Errorf("ids = %v", ids)
	}
	if _, err := NewVocabTokenizer(map[string]int64{"hi": 0}); err == nil {
		t.Error("expected error for vocabulary without special tokens")
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  Hello, wörld!  42 ")
	if !reflect.DeepEqual(words, []string{"hello", "wörld", "42"}) {
		t.Errorf("SplitWords = %v", words)
	}
	if len(SplitWords("")) != 0 {
		t.Error("empty string should return no words")
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("a very long string that overflows the accumulator") < 0 {
		t.Error("hash should be non-negative")
	}
}
