package dedupe

// Option configures the in-memory deduper.
type Option func(*clipDeduper)

// WithMaxSize bounds the number of remembered clip ids. Zero or less keeps
// every id.
func WithMaxSize(maxSize int) Option {
	return func(d *clipDeduper) {
		d.maxSize = maxSize
	}
}
