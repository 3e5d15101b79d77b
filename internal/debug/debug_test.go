package debug

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func TestDebugMemoryRoundTrip(t *testing.T) {
	buf := new(MemoryBuffer)
	func() {
		if err := Open(buf); err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer Close()

		Write("test", "hello, world")
		Writef("test", "count=%d", 3)
	}()

	var seen []Record
	if err := Each(buf.Bytes(), func(r Record) error {
		seen = append(seen, r)
		return nil
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 records, got %d", len(seen))
	}
	if seen[0].Source != "test" || string(seen[0].Data) != "hello, world" {
		t.Fatalf("unexpected first record: %+v", seen[0])
	}
	if string(seen[1].Data) != "count=3" {
		t.Fatalf("unexpected second record: %+v", seen[1])
	}
}

func TestDebugFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")

	func() {
		if err := OpenFile(path); err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		defer Close()

		Writef("pit", "ch0 reload=%04x", 0x1234)
	}()

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read back trace file: %v", err)
	}

	var seen []Record
	if err := Each(data, func(r Record) error {
		seen = append(seen, r)
		return nil
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(seen) != 1 || seen[0].Source != "pit" {
		t.Fatalf("unexpected records: %+v", seen)
	}
}

func TestWithSource(t *testing.T) {
	buf := new(MemoryBuffer)
	Open(buf)
	defer Close()

	d := WithSource("scoped")
	d.Writef("n=%d", 7)

	var seen []Record
	Each(buf.Bytes(), func(r Record) error {
		seen = append(seen, r)
		return nil
	})
	if len(seen) != 1 || seen[0].Source != "scoped" {
		t.Fatalf("unexpected records: %+v", seen)
	}
}
