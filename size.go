package patio

// Sizer is implemented by patterns that know, before running, how many bytes they
// will transfer. This is useful for pre-allocating buffers before encoding.
type Sizer interface {
	// Size returns the number of bytes the pattern transfers, or a negative value
	// when that depends on the data.
	Size() int
}

// SizeOf reports the static transfer size of p, if p knows it.
func SizeOf[S, T any](p Pattern[S, T]) (int, bool) {
	s, ok := p.(Sizer)
	if !ok {
		return 0, false
	}
	n := s.Size()
	return n, n >= 0
}

// sumSizes adds the static sizes of parts, or returns -1 if any part is unknown.
func sumSizes(parts ...Sizer) int {
	total := 0
	for _, p := range parts {
		if p == nil {
			return -1
		}
		n := p.Size()
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}

// sizerOf returns p as a Sizer, or nil.
func sizerOf(p any) Sizer {
	s, _ := p.(Sizer)
	return s
}
