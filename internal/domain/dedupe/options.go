package dedupe

// Option applies a configuration option to the Deduper.
type Option func(*requestIDs)

// WithMaxSize sets how many request ids are remembered.
// A non-positive size keeps every id forever.
func WithMaxSize(maxSize int) Option {
	return func(d *requestIDs) {
		d.maxSize = maxSize
	}
}
