package codec

// RecommendedConcurrency is the [min, max] useful concurrency range a codec
// reports for a given chunk representation (§4.E). The chain uses this to
// split a user-supplied concurrent target between chunks in flight and
// codec-internal parallelism (§4.F, §4.I).
type RecommendedConcurrency struct {
	Min uint64
	Max uint64
}

// Serial is the recommendation for codecs with no useful internal
// parallelism: min=max=1.
func Serial() RecommendedConcurrency { return RecommendedConcurrency{Min: 1, Max: 1} }

// Clamp returns target bounded to [r.Min, r.Max] (and at least 1).
func (r RecommendedConcurrency) Clamp(target uint64) uint64 {
	if target < 1 {
		target = 1
	}
	if target < r.Min {
		return r.Min
	}
	if target > r.Max {
		return r.Max
	}
	return target
}
