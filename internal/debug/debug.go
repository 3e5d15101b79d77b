// Package debug is a thread-safe binary logger for low-level device trace
// output, used by the chipset package's PIT to record its counter-port
// reads and its counter and control-word writes.
//
// Each record is a compact binary entry: a 16-byte header (kind, source
// length, data length, timestamp) followed by the source name and the
// message bytes. Thread-safety comes from atomically reserving a byte
// range in the backing io.WriterAt before filling it in, so concurrent
// callers never interleave partial records.
package debug

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

type Writer interface {
	io.WriterAt
	io.Closer
}

type writer struct {
	w Writer
}

var (
	fh     atomic.Pointer[writer]
	offset atomic.Uint64
)

// OpenFile truncates and opens filename as the process-wide trace sink.
func OpenFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	return Open(f)
}

// Open installs w as the process-wide trace sink.
func Open(w Writer) error {
	offset.Store(0)
	if fh.Swap(&writer{w: w}) != nil {
		return fmt.Errorf("debug: already open, discarded old writer")
	}
	return nil
}

// Close detaches and closes the current trace sink, if any.
func Close() error {
	old := fh.Swap(nil)
	if old != nil {
		if err := old.w.Close(); err != nil {
			return err
		}
	}
	offset.Store(0)
	return nil
}

type Kind uint16

const (
	KindInvalid Kind = iota
	KindBytes
	KindString
)

func encodeHeader(kind Kind, source string, data []byte) ([]byte, int64) {
	header := make([]byte, 16)
	binary.LittleEndian.PutUint16(header[0:2], uint16(kind))
	binary.LittleEndian.PutUint16(header[2:4], uint16(len(source)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(data)))
	binary.LittleEndian.PutUint64(header[8:16], uint64(time.Now().UnixNano()))
	return header, int64(len(source) + len(data) + 16)
}

func writeRecord(kind Kind, source string, data []byte) {
	fh := fh.Load()
	if fh == nil {
		return
	}

	header, size := encodeHeader(kind, source, data)
	off := offset.Add(uint64(size)) - uint64(size)
	if _, err := fh.w.WriteAt(header, int64(off)); err != nil {
		panic(err)
	}
	if _, err := fh.w.WriteAt([]byte(source), int64(off)+16); err != nil {
		panic(err)
	}
	if _, err := fh.w.WriteAt(data, int64(off)+16+int64(len(source))); err != nil {
		panic(err)
	}
}

// WriteBytes appends a binary record tagged with source.
func WriteBytes(source string, data []byte) {
	writeRecord(KindBytes, source, data)
}

// Write appends a string record tagged with source.
func Write(source string, data string) {
	writeRecord(KindString, source, []byte(data))
}

// Writef appends a formatted string record tagged with source. It is the
// call the PIT makes on counter-port reads and on every register write.
func Writef(source string, format string, args ...any) {
	writeRecord(KindString, source, fmt.Appendf(nil, format, args...))
}

// Sourced is a Debug handle pre-bound to a source name.
type Sourced interface {
	WriteBytes(data []byte)
	Write(data string)
	Writef(format string, args ...any)
}

type sourced struct{ source string }

func (d *sourced) WriteBytes(data []byte)            { writeRecord(KindBytes, d.source, data) }
func (d *sourced) Write(data string)                 { writeRecord(KindString, d.source, []byte(data)) }
func (d *sourced) Writef(format string, args ...any) { writeRecord(KindString, d.source, fmt.Appendf(nil, format, args...)) }

// WithSource returns a Sourced handle that tags every record with source.
func WithSource(source string) Sourced {
	return &sourced{source: source}
}
