package imageprocessor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestComputeContentHash(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	// Larger than one chunk so the digest covers several reads.
	big := bytes.Repeat([]byte("wallpaper"), hashChunkSize)
	a := write("a.bin", big)
	b := write("nested_copy.bin", big)
	c := write("c.bin", append(big[:len(big)-1:len(big)-1], 'X'))
	empty := write("empty.bin", nil)

	ha, err := ComputeContentHash(a)
	if err != nil {
		t.Fatalf("ComputeContentHash() error = %v", err)
	}
	hb, _ := ComputeContentHash(b)
	hc, _ := ComputeContentHash(c)
	he, _ := ComputeContentHash(empty)

	if ha != hb {
		t.Errorf("identical content hashed differently: %s vs %s", ha, hb)
	}
	if ha == hc {
		t.Error("different content produced the same hash")
	}
	if len(ha) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(ha))
	}
	if he != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty file hash = %s", he)
	}

	if _, err := ComputeContentHash(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file should return an error")
	}
}
