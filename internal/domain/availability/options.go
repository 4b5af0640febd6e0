// Package availability derives concrete free time slots for a contractor
// against one job's constraints.
package availability

// Option applies a configuration option to the Finder.
type Option func(*Finder)

// WithDefaultMaxSlots sets the slot count used when a request passes zero.
func WithDefaultMaxSlots(n int) Option {
	return func(f *Finder) {
		if n > 0 {
			f.defaultMaxSlots = n
		}
	}
}
