package id

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		prefix string
	}{
		{"tok"},
		{"req"},
		{"wr"},
	}

	for _, tt := range tests {
		id := gen.GenerateWithPrefix(tt.prefix)

		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", tt.prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Errorf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}

		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedIDs(t *testing.T) {
	tok := NewTokenID()
	req := NewRequestID()
	wr := NewWriteID()

	if !strings.HasPrefix(tok.String(), "tok_") {
		t.Errorf("token ID should have tok_ prefix: %s", tok)
	}
	if !strings.HasPrefix(req.String(), "req_") {
		t.Errorf("request ID should have req_ prefix: %s", req)
	}
	if !strings.HasPrefix(wr.String(), "wr_") {
		t.Errorf("write ID should have wr_ prefix: %s", wr)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.GenerateString()
				if _, loaded := seen.LoadOrStore(id, true); loaded {
					t.Errorf("duplicate ID generated: %s", id)
				}
			}
		}()
	}
	wg.Wait()
}
