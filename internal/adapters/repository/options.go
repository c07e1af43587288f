package repository

// ResultOption applies a configuration option to the MemoryResults store.
type ResultOption func(*MemoryResults)

// WithCapacity bounds the number of results kept. The oldest result is
// evicted first.
func WithCapacity(n int) ResultOption {
	return func(s *MemoryResults) {
		if n > 0 {
			s.capacity = n
		}
	}
}
