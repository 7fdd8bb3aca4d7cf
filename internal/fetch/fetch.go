// Package fetch retrieves kernel-owned arrays whose length is only known
// to the kernel and may change between two ioctls.
//
// A request is issued once with every array pointer null to learn the
// counts, the caller buffers are grown to those counts, and the request
// is issued again pointing at the buffers. The second result is only
// accepted when every count it reports equals the count the buffers were
// sized for; otherwise it becomes the new size probe and the cycle
// repeats. There is no bound on the number of iterations: a kernel whose
// counts never settle keeps the caller looping.
package fetch

import (
	"runtime"
	"slices"
	"unsafe"

	"github.com/mrshiposha/drm/internal/logger"
	"github.com/mrshiposha/drm/ioctl"
)

// Array is the caller side of one variable-length array of a record.
type Array interface {
	// Present reports whether the caller wants the elements at all.
	Present() bool
	// Reserve grows the storage to hold at least n elements.
	Reserve(n uint32)
	// Capacity is the number of elements the kernel may write.
	Capacity() uint32
	// Pointers returns the address of each storage backing the array,
	// 0 when the storage is empty.
	Pointers() []uint64
	// Truncate sets the visible length to n, n <= Capacity.
	Truncate(n uint32)
}

// Slice is an Array over a caller-owned slice. A nil destination means
// no buffer.
type Slice[T any] struct {
	dst *[]T
}

func Into[T any](dst *[]T) *Slice[T] {
	return &Slice[T]{dst: dst}
}

func (s *Slice[T]) Present() bool { return s.dst != nil }

func (s *Slice[T]) Reserve(n uint32) {
	if s.dst == nil {
		return
	}
	*s.dst = slices.Grow((*s.dst)[:0], int(n))
}

func (s *Slice[T]) Capacity() uint32 {
	if s.dst == nil {
		return 0
	}
	return uint32(cap(*s.dst))
}

func (s *Slice[T]) Pointers() []uint64 {
	return []uint64{pointer(s.dst)}
}

func (s *Slice[T]) Truncate(n uint32) {
	if s.dst != nil {
		*s.dst = (*s.dst)[:n]
	}
}

// Pair is two slices filled in lockstep under one count, such as
// property ids and their values. Either both are given or neither.
type Pair[A, B any] struct {
	a *[]A
	b *[]B
}

func Both[A, B any](a *[]A, b *[]B) *Pair[A, B] {
	return &Pair[A, B]{a: a, b: b}
}

func (p *Pair[A, B]) Present() bool { return p.a != nil && p.b != nil }

func (p *Pair[A, B]) Reserve(n uint32) {
	if !p.Present() {
		return
	}
	*p.a = slices.Grow((*p.a)[:0], int(n))
	*p.b = slices.Grow((*p.b)[:0], int(n))
}

func (p *Pair[A, B]) Capacity() uint32 {
	if !p.Present() {
		return 0
	}
	return uint32(min(cap(*p.a), cap(*p.b)))
}

func (p *Pair[A, B]) Pointers() []uint64 {
	if !p.Present() {
		return []uint64{0, 0}
	}
	return []uint64{pointer(p.a), pointer(p.b)}
}

func (p *Pair[A, B]) Truncate(n uint32) {
	if p.Present() {
		*p.a = (*p.a)[:n]
		*p.b = (*p.b)[:n]
	}
}

// Pin returns the address of the backing array of s for a record field,
// 0 when s is empty. The array is pinned in p, which puts it on the heap
// and holds it in place until p.Unpin.
func Pin[T any](p *runtime.Pinner, s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	d := unsafe.SliceData(s)
	p.Pin(d)
	return uint64(uintptr(unsafe.Pointer(d)))
}

func pointer[T any](dst *[]T) uint64 {
	if dst == nil || cap(*dst) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData((*dst)[:cap(*dst)]))))
}

// Field ties an Array to the count and pointer fields of record R.
type Field[R any] struct {
	Array Array
	Count func(r *R) *uint32
	// Ptrs returns the record's pointer fields in the order of
	// Array.Pointers.
	Ptrs func(r *R) []*uint64

	// Min is reserved even when the kernel reports fewer elements.
	Min uint32
	// Exact hands the kernel the reserved count rather than the
	// capacity. Property blobs are only copied on an exact length match.
	Exact bool

	want uint32
}

func (f *Field[R]) reserve(r *R) {
	f.want = max(*f.Count(r), f.Min)
	f.Array.Reserve(f.want)
}

func (f *Field[R]) bind(r *R) {
	if !f.Array.Present() {
		return
	}
	if f.Exact {
		*f.Count(r) = f.want
	} else {
		*f.Count(r) = f.Array.Capacity()
	}
	ptrs := f.Array.Pointers()
	for i, p := range f.Ptrs(r) {
		*p = ptrs[i]
	}
}

// Request describes one array-returning ioctl.
type Request[R any] struct {
	Dev  ioctl.Device
	Code uint32
	// Key returns a fresh record with only its input fields set. It is
	// called for every ioctl the request issues.
	Key    func() R
	Fields []Field[R]
}

// Do runs the probe/fetch cycle. When no field has a buffer only the
// probe is issued and its record is returned. On error the contents of
// the caller buffers are unspecified.
func (q *Request[R]) Do() (*R, error) {
	sizes := q.Key()
	if err := q.call(&sizes); err != nil {
		return nil, err
	}

	if !q.wantsData() {
		return &sizes, nil
	}

	for iter := 1; ; iter++ {
		for i := range q.Fields {
			q.Fields[i].reserve(&sizes)
		}

		info := q.Key()
		for i := range q.Fields {
			q.Fields[i].bind(&info)
		}
		if err := q.call(&info); err != nil {
			return nil, err
		}

		if q.converged(&sizes, &info) {
			for i := range q.Fields {
				q.Fields[i].Array.Truncate(*q.Fields[i].Count(&info))
			}
			return &info, nil
		}

		logger.Debug("kernel array size changed, fetching again",
			"code", q.Code, "iteration", iter)
		sizes = info
	}
}

func (q *Request[R]) wantsData() bool {
	for i := range q.Fields {
		if q.Fields[i].Array.Present() {
			return true
		}
	}
	return false
}

func (q *Request[R]) converged(sizes, info *R) bool {
	for i := range q.Fields {
		f := &q.Fields[i]
		if *f.Count(sizes) != *f.Count(info) {
			return false
		}
	}
	return true
}

func (q *Request[R]) call(r *R) error {
	err := q.Dev.Ioctl(q.Code, unsafe.Pointer(r))
	runtime.KeepAlive(q.Fields)
	return err
}
