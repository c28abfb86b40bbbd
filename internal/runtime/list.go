package runtime

// List is the dynamic list from spec.md §3.5: doubling growth, bounds
// checked, diagnostic-on-violation instead of a panic.
type List struct {
	data     []float64
	length   int64
	Diags    Diagnostics
}

const listInitialCapacity = 8

// NewList is list_create(length): a list of the given length, zero-filled.
func NewList(length int64) *List {
	if length < 0 {
		length = 0
	}
	cap := int64(listInitialCapacity)
	for cap < length {
		cap *= 2
	}
	l := &List{data: make([]float64, length, cap)}
	l.length = length
	return l
}

// Length is list_length.
func (l *List) Length() int64 {
	if l == nil {
		return 0
	}
	return l.length
}

// Get is list_get: out-of-bounds reads log a diagnostic and return 0.0.
func (l *List) Get(i int64) float64 {
	if l == nil || i < 0 || i >= l.length {
		reportBounds(l.diags(), "list_get", i)
		return 0.0
	}
	return l.data[i]
}

// Set is list_set: out-of-bounds writes log a diagnostic and are ignored.
func (l *List) Set(i int64, v float64) {
	if l == nil || i < 0 || i >= l.length {
		reportBounds(l.diags(), "list_set", i)
		return
	}
	l.data[i] = v
}

// Append is list_append: grows by doubling when capacity is exhausted.
func (l *List) Append(v float64) {
	if l == nil {
		return
	}
	if int64(cap(l.data)) == l.length {
		newCap := int64(cap(l.data)) * 2
		if newCap == 0 {
			newCap = listInitialCapacity
		}
		grown := make([]float64, l.length, newCap)
		copy(grown, l.data)
		l.data = grown
	}
	l.data = append(l.data, v)
	l.length++
}

// Destroy is list_destroy: releases the backing storage. Go's GC means
// this is a no-op beyond dropping the reference, kept for ABI symmetry.
func (l *List) Destroy() {
	if l == nil {
		return
	}
	l.data = nil
	l.length = 0
}

func (l *List) diags() Diagnostics {
	if l == nil || l.Diags == nil {
		return defaultDiagnostics
	}
	return l.Diags
}
