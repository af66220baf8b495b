package autosave

import (
	"fmt"

	"github.com/rglk/remglk/internal/wire"
)

// Load parses an autosave document's JSON shape back into a Document.
// This is the "read the file" half of glkunix_load_library_state; it
// does not touch any live session state (see glk.Library.Autorestore
// for that).
func Load(v wire.Value) (*Document, error) {
	obj, ok := v.(*wire.Object)
	if !ok {
		return nil, &LoadError{Reason: "document is not a JSON object"}
	}
	typeStr, _ := obj.GetString("type")
	if typeStr != "autosave" {
		return nil, &LoadError{Reason: fmt.Sprintf("unexpected document type %q", typeStr)}
	}
	version, _ := obj.GetInt("version")
	if version != SerialVersion {
		return nil, &LoadError{Reason: fmt.Sprintf("unsupported autosave version %d", version)}
	}

	doc := &Document{Version: int(version)}
	if n, ok := obj.GetInt("rootwin"); ok {
		doc.RootWindow = uint32(n)
	}
	if n, ok := obj.GetInt("currentstr"); ok {
		doc.CurrentStream = uint32(n)
	}
	if n, ok := obj.GetInt("lasteventtype"); ok {
		doc.LastEventType = uint32(n)
	}
	if n, ok := obj.GetInt("timerinterval"); ok {
		doc.TimerInterval = int32(n)
	}
	if m, ok := obj.GetObject("metrics"); ok {
		metrics, err := wire.ParseMetrics(m)
		if err != nil {
			return nil, &LoadError{Reason: "bad metrics: " + err.Error()}
		}
		doc.Metrics = metrics
	}
	if s, ok := obj.GetList("support"); ok {
		doc.SupportCaps = wire.ParseSupportCaps(s)
	}

	// Pass 1: allocate a WindowState shell for every tag present, so
	// later cross-references (parent/child/key) resolve regardless of
	// array order, mirroring the original's two-phase window load.
	winTags := make(map[uint32]int) // tag -> index in doc.Windows
	if list, ok := obj.GetList("windows"); ok {
		for _, item := range list {
			wo, ok := item.(*wire.Object)
			if !ok {
				continue
			}
			ws, err := parseWindowShell(wo)
			if err != nil {
				return nil, err
			}
			winTags[ws.Tag] = len(doc.Windows)
			doc.Windows = append(doc.Windows, ws)
		}
	}

	// Pass 2: now that every shell exists, check that each pair window's
	// key/child tags name a window in the document.
	for i := range doc.Windows {
		if doc.Windows[i].Type == "pair" {
			for _, tag := range []uint32{doc.Windows[i].KeyTag, doc.Windows[i].Child1Tag, doc.Windows[i].Child2Tag} {
				if tag != 0 {
					if _, ok := winTags[tag]; !ok {
						return nil, &LoadError{Reason: fmt.Sprintf("pair window %d references unknown window %d", doc.Windows[i].Tag, tag)}
					}
				}
			}
		}
	}

	if list, ok := obj.GetList("streams"); ok {
		for _, item := range list {
			so, ok := item.(*wire.Object)
			if !ok {
				continue
			}
			doc.Streams = append(doc.Streams, parseStreamShell(so))
		}
	}

	if list, ok := obj.GetList("filerefs"); ok {
		for _, item := range list {
			fo, ok := item.(*wire.Object)
			if !ok {
				continue
			}
			doc.Filerefs = append(doc.Filerefs, parseFilerefShell(fo))
		}
	}

	// Pass 3: resolve the root window / current stream references
	// against the now-fully-populated tables.
	if doc.RootWindow != 0 {
		if _, ok := winTags[doc.RootWindow]; !ok {
			return nil, &LoadError{Reason: "rootwin references unknown window"}
		}
	}
	if doc.CurrentStream != 0 {
		found := false
		for _, s := range doc.Streams {
			found = found || s.Tag == doc.CurrentStream
		}
		if !found {
			return nil, &LoadError{Reason: "currentstr references unknown stream"}
		}
	}

	return doc, nil
}

func parseFilerefShell(o *wire.Object) FilerefState {
	fs := FilerefState{}
	tag, _ := o.GetInt("id")
	fs.Tag = uint32(tag)
	if r, ok := o.GetInt("rock"); ok {
		fs.Rock = uint32(r)
	}
	fs.Filename, _ = o.GetString("filename")
	fs.TextMode, _ = o.GetBool("textmode")
	if u, ok := o.GetInt("usage"); ok {
		fs.Usage = uint32(u)
	}
	return fs
}

func parseWindowShell(o *wire.Object) (WindowState, error) {
	ws := WindowState{}
	tag, _ := o.GetInt("id")
	ws.Tag = uint32(tag)
	ws.Type, _ = o.GetString("type")
	if r, ok := o.GetInt("rock"); ok {
		ws.Rock = uint32(r)
	}
	if p, ok := o.GetInt("parent"); ok {
		ws.Parent = uint32(p)
	}
	if st, ok := o.GetInt("streamtag"); ok {
		ws.StreamTag = uint32(st)
	}

	switch ws.Type {
	case "pair":
		if m, ok := o.GetInt("method"); ok {
			ws.Method = Method(m)
		}
		if s, ok := o.GetInt("size"); ok {
			ws.Size = int32(s)
		}
		if k, ok := o.GetInt("key"); ok {
			ws.KeyTag = uint32(k)
		}
		if c, ok := o.GetInt("child1"); ok {
			ws.Child1Tag = uint32(c)
		}
		if c, ok := o.GetInt("child2"); ok {
			ws.Child2Tag = uint32(c)
		}
	case "grid":
		if w, ok := o.GetInt("width"); ok {
			ws.GridWidth = int(w)
		}
		if h, ok := o.GetInt("height"); ok {
			ws.GridHeight = int(h)
		}
		if lines, ok := o.GetList("lines"); ok {
			for _, item := range lines {
				lo, ok := item.(*wire.Object)
				if !ok {
					continue
				}
				chars, _ := lo.GetString("chars")
				runes := []rune(chars)
				styles := make([]string, len(runes))
				for i := range styles {
					styles[i] = "normal"
				}
				if runsList, ok := lo.GetList("styleruns"); ok {
					applyStyleRuns(styles, runsList)
				}
				ws.GridLines = append(ws.GridLines, GridLineState{Chars: runes, Style: styles})
			}
		}
	case "buffer":
		ws.BufferChars, _ = o.GetString("chars")
		if runs, ok := o.GetList("runs"); ok {
			for _, item := range runs {
				ro, ok := item.(*wire.Object)
				if !ok {
					continue
				}
				pos, _ := ro.GetInt("pos")
				style, _ := ro.GetString("style")
				ws.BufferRuns = append(ws.BufferRuns, RunState{Pos: int(pos), Style: style})
			}
		}
	case "graphics":
		if w, ok := o.GetInt("width"); ok {
			ws.GraphicsWidth = int32(w)
		}
		if h, ok := o.GetInt("height"); ok {
			ws.GraphicsHeight = int32(h)
		}
	}

	if lr, ok := o.GetBool("linerequest"); ok && lr {
		ws.LineRequest = true
		if n, ok := o.GetInt("linemaxlen"); ok {
			ws.LineMaxLen = int(n)
		}
	}

	return ws, nil
}

// applyStyleRuns expands a run-length-encoded {pos, style} list back over
// a per-cell style slice, the inverse of styleRunsToValue.
func applyStyleRuns(styles []string, runs wire.List) {
	for i, item := range runs {
		ro, ok := item.(*wire.Object)
		if !ok {
			continue
		}
		pos, _ := ro.GetInt("pos")
		style, _ := ro.GetString("style")
		end := len(styles)
		if i+1 < len(runs) {
			if next, ok := runs[i+1].(*wire.Object); ok {
				if nextPos, ok := next.GetInt("pos"); ok {
					end = int(nextPos)
				}
			}
		}
		for j := int(pos); j < end && j < len(styles); j++ {
			if j >= 0 {
				styles[j] = style
			}
		}
	}
}

func parseStreamShell(o *wire.Object) StreamState {
	ss := StreamState{}
	tag, _ := o.GetInt("id")
	ss.Tag = uint32(tag)
	ss.Kind, _ = o.GetString("type")
	if r, ok := o.GetInt("rock"); ok {
		ss.Rock = uint32(r)
	}
	ss.Readable, _ = o.GetBool("readable")
	ss.Writable, _ = o.GetBool("writable")
	ss.Unicode, _ = o.GetBool("unicode")
	ss.IsBinary, _ = o.GetBool("binary")
	ss.Filename, _ = o.GetString("filename")
	if p, ok := o.GetInt("pos"); ok {
		ss.Position = p
	}
	if c, ok := o.GetString("content"); ok {
		ss.MemoryContent = c
		ss.HasMemory = true
	}
	return ss
}
