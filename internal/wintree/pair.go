package wintree

// PairData is a pair window's split configuration, mirroring
// window_pair_t from rgwin_pair.c.
type PairData struct {
	Dir       Method
	Division  Method
	HasBorder bool
	Key       *Window
	KeyDamage bool
	Size      int32

	Vertical bool // split runs left/right rather than above/below
	Backward bool // key child comes after the split point

	Child1, Child2 *Window

	SplitPos   int32
	SplitWidth int32
}

// NewPairData builds a PairData the way win_pair_create does.
func NewPairData(method Method, key *Window, size int32) *PairData {
	dir := method & DirMask
	return &PairData{
		Dir:       dir,
		Division:  method & DivisionMask,
		HasBorder: method&BorderMask == Border,
		Key:       key,
		Size:      size,
		Vertical:  dir == DirLeft || dir == DirRight,
		Backward:  dir == DirLeft || dir == DirAbove,
	}
}

// Rearrange computes the split point and recurses into both children,
// a direct translation of win_pair_rearrange's arithmetic.
func (d *PairData) Rearrange(owner *Window, box Rect, recurse func(*Window, Rect)) {
	var min, max int32
	if d.Vertical {
		min, max = box.Left, box.Right
	} else {
		min, max = box.Top, box.Bottom
	}
	diff := max - min

	splitWidth := int32(0)
	if d.HasBorder {
		splitWidth = 1
	}

	var split int32
	switch d.Division {
	case DivProportional:
		split = (diff * d.Size) / 100
	case DivFixed:
		if d.Key == nil {
			split = 0
		} else {
			switch d.Key.Type {
			case TypeTextBuffer, TypeTextGrid:
				split = d.Size
			default:
				split = 0
			}
		}
	default:
		split = diff / 2
	}

	if !d.Backward {
		split = max - split - splitWidth
	} else {
		split = min + split
	}

	if min >= max {
		split = min
	} else {
		if split < min {
			split = min
		} else if split > max-splitWidth {
			split = max - splitWidth
		}
	}

	d.SplitPos = split
	d.SplitWidth = splitWidth

	var box1, box2 Rect
	var ch1, ch2 *Window
	if d.Vertical {
		box1 = Rect{Left: box.Left, Right: split, Top: box.Top, Bottom: box.Bottom}
		box2 = Rect{Left: split + splitWidth, Right: box.Right, Top: box.Top, Bottom: box.Bottom}
	} else {
		box1 = Rect{Top: box.Top, Bottom: split, Left: box.Left, Right: box.Right}
		box2 = Rect{Top: split + splitWidth, Bottom: box.Bottom, Left: box.Left, Right: box.Right}
	}
	if !d.Backward {
		ch1, ch2 = d.Child1, d.Child2
	} else {
		ch1, ch2 = d.Child2, d.Child1
	}

	recurse(ch1, box1)
	recurse(ch2, box2)
}
