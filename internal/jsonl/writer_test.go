package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenBlankPath(t *testing.T) {
	w, err := Open("  ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil writer, got %#v", w)
	}
	// nil writer discards records
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("nil writer write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("nil writer close: %v", err)
	}
}

func TestWriteAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	type rec struct {
		Event string `json:"event"`
		N     int    `json:"n"`
	}
	for i := 0; i < 3; i++ {
		if err := w.Write(rec{Event: "x", N: i}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := w.Write(rec{}); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("write after close: got %v want os.ErrClosed", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		var got rec
		if err := json.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("line %d: %v", n, err)
		}
		if got.N != n {
			t.Fatalf("line %d: got n=%d", n, got.N)
		}
		n++
	}
	if n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}
}

func TestWriteNilRecord(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "e.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()
	if err := w.Write(nil); err == nil {
		t.Fatalf("expected err")
	}
}
