// Package xoption provides a generic functional-options mechanism shared by the
// codec package (e.g. codec.WithMaxUnpackedSize, codec.WithBuffer).
//
// The core is deliberately tiny: an Option[T] wraps a function that mutates a
// config struct T and may fail validation (an out-of-range bound, say). Apply
// runs a slice of them in order and stops at the first error.
package xoption

// Option configures a value of type T, or reports why it can't.
type Option[T any] interface {
	apply(T) error
}

// Func adapts a plain function into an Option.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New wraps a fallible configuration function as an Option.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError wraps an infallible configuration function as an Option.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply runs opts against target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
