package corpus

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/scalareval/internal/mmap"
	"github.com/hupe1980/scalareval/scalarset"
)

// Buffer is a read-only mapped corpus file viewed as elements of type T.
//
// Slices returned by View borrow the mapping. They are valid until Close;
// after Close, View reports mmap.ErrClosed rather than handing out memory
// that is no longer mapped.
type Buffer[T scalarset.Value] struct {
	m   *mmap.Mapping
	len int
}

// Load maps the corpus at path.
func Load[T scalarset.Value](path string) (*Buffer[T], error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map corpus %s: %w", path, err)
	}
	return &Buffer[T]{
		m:   m,
		len: m.Size() / scalarset.CellSize,
	}, nil
}

// View returns the mapped elements.
func (b *Buffer[T]) View() ([]T, error) {
	data := b.m.Bytes()
	if b.m.Closed() {
		return nil, mmap.ErrClosed
	}
	if b.len == 0 {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), b.len), nil
}

// Len returns the number of whole elements in the file.
func (b *Buffer[T]) Len() int { return b.len }

// Bytes returns the mapped size in bytes.
func (b *Buffer[T]) Bytes() int { return b.m.Size() }

// Path returns the corpus path.
func (b *Buffer[T]) Path() string { return b.m.Path() }

// Advise forwards an access pattern hint to the kernel.
func (b *Buffer[T]) Advise(p mmap.AccessPattern) error { return b.m.Advise(p) }

// Closed reports whether the mapping has been released.
func (b *Buffer[T]) Closed() bool { return b.m.Closed() }

// Close unmaps the corpus.
func (b *Buffer[T]) Close() error { return b.m.Close() }
