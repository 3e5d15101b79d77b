package debug

import (
	"encoding/binary"
	"io"
	"sync"
)

// MemoryBuffer is an in-memory Writer, used by tests that don't want to
// touch the filesystem.
type MemoryBuffer struct {
	mu   sync.Mutex
	data []byte
}

func (b *MemoryBuffer) WriteAt(p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[off:end], p)
	return len(p), nil
}

func (b *MemoryBuffer) Close() error { return nil }

func (b *MemoryBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// Record is one decoded trace entry.
type Record struct {
	Kind   Kind
	Source string
	Data   []byte
}

// Each decodes every record written to data in order.
func Each(data []byte, fn func(Record) error) error {
	for len(data) > 0 {
		if len(data) < 16 {
			return io.ErrUnexpectedEOF
		}
		kind := Kind(binary.LittleEndian.Uint16(data[0:2]))
		sourceLen := int(binary.LittleEndian.Uint16(data[2:4]))
		dataLen := int(binary.LittleEndian.Uint32(data[4:8]))
		data = data[16:]
		if len(data) < sourceLen+dataLen {
			return io.ErrUnexpectedEOF
		}
		rec := Record{
			Kind:   kind,
			Source: string(data[:sourceLen]),
			Data:   append([]byte(nil), data[sourceLen:sourceLen+dataLen]...),
		}
		if err := fn(rec); err != nil {
			return err
		}
		data = data[sourceLen+dataLen:]
	}
	return nil
}
