package delta

// Optional carries a value together with its presence. The zero value is
// absent.
type Optional[T comparable] struct {
	value T
	set   bool
}

func Some[T comparable](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value when present, def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// diff returns Some(cur) when cur differs from prev.
func diff[T comparable](prev, cur T) Optional[T] {
	if prev == cur {
		return Optional[T]{}
	}
	return Some(cur)
}
