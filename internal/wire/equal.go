package wire

// Equal implements the descriptor equality test referenced by spec §8
// property 7: two parsed Values are equal iff their tagged shapes and
// contents match, irrespective of object key order or integer-vs-real
// number representation (1 and 1.0 compare equal).
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av.AsFloat64() == bv.AsFloat64()
	case Str:
		bv, ok := b.(Str)
		return ok && string(av.Runes) == string(bv.Runes)
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || bv.Len() != av.Len() {
			return false
		}
		for _, k := range av.keys {
			other, ok := bv.Get(k)
			if !ok || !Equal(av.values[k], other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
