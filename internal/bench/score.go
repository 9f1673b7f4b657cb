package bench

// LineResult holds the counts produced by comparing one reference line
// against one candidate segmentation of the same text.
type LineResult struct {
	Ref   int // reference word count
	Can   int // candidate word count
	Match int // candidate spans found in the reference

	// Aligned is false when the candidate covers a different number of
	// runes than the reference. Counts are still produced in that case.
	Aligned bool
}

type compareOptions struct {
	dedup bool
}

// CompareOption configures Compare.
type CompareOption func(*compareOptions)

// WithDedup counts each distinct candidate span at most once.
func WithDedup() CompareOption {
	return func(o *compareOptions) {
		o.dedup = true
	}
}

// Compare scores a candidate segmentation against the reference.
//
// A candidate word is correct iff some reference word occupies exactly the
// same rune range. Membership is checked per candidate span, so a duplicate
// candidate span counts once per occurrence unless WithDedup is given.
func Compare(ref, can []string, opts ...CompareOption) LineResult {
	var o compareOptions
	for _, opt := range opts {
		opt(&o)
	}

	refSpans := Spans(ref)
	canSpans := Spans(can)

	inRef := make(map[Span]struct{}, len(refSpans))
	for _, s := range refSpans {
		inRef[s] = struct{}{}
	}

	var seen map[Span]struct{}
	if o.dedup {
		seen = make(map[Span]struct{}, len(canSpans))
	}

	match := 0
	for _, s := range canSpans {
		if seen != nil {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
		}
		if _, ok := inRef[s]; ok {
			match++
		}
	}

	return LineResult{
		Ref:     len(ref),
		Can:     len(can),
		Match:   match,
		Aligned: TextLen(ref) == TextLen(can),
	}
}
