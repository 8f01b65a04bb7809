package activation

import (
	"strings"
	"testing"
)

func TestGenerateCode_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), CodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestGenerateCode_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("generator produced the same code 50 times in a row")
	}
}
