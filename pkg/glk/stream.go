package glk

import (
	"io"

	"github.com/rglk/remglk/internal/streamio"
)

// Stream is the public handle for an open Glk stream.
type Stream struct {
	lib *Library
	s   *streamio.Stream
}

// OpenMemoryStream implements glk_stream_open_memory.
func (l *Library) OpenMemoryStream(buf []byte, mode streamio.FileMode, rock uint32) (*Stream, error) {
	s, err := streamio.OpenMemory(l.reg, buf, mode, rock)
	if err != nil {
		return nil, err
	}
	l.streams[s.Tag] = s
	return &Stream{lib: l, s: s}, nil
}

// OpenMemoryStreamUni implements glk_stream_open_memory_uni.
func (l *Library) OpenMemoryStreamUni(buf []rune, mode streamio.FileMode, rock uint32) (*Stream, error) {
	s, err := streamio.OpenMemoryUni(l.reg, buf, mode, rock)
	if err != nil {
		return nil, err
	}
	l.streams[s.Tag] = s
	return &Stream{lib: l, s: s}, nil
}

// OpenFileStream implements glk_stream_open_file over an already-opened
// seekable handle (the caller resolves the FileRef to an *os.File).
func (l *Library) OpenFileStream(rws io.ReadWriteSeeker, mode streamio.FileMode, unicode, binary bool, filename string, rock uint32) *Stream {
	s := streamio.OpenFile(l.reg, rws, mode, unicode, binary, filename, rock)
	l.streams[s.Tag] = s
	return &Stream{lib: l, s: s}
}

// OpenResourceStream implements glk_stream_open_resource over a Blorb
// chunk's bytes.
func (l *Library) OpenResourceStream(data []byte, unicode bool, rock uint32) *Stream {
	s := streamio.OpenResource(l.reg, data, unicode, rock)
	l.streams[s.Tag] = s
	return &Stream{lib: l, s: s}
}

// SetCurrent implements glk_stream_set_current.
func (l *Library) SetCurrent(s *Stream) {
	if s == nil {
		l.current = nil
		return
	}
	l.current = s.s
}

// Current implements glk_stream_get_current.
func (l *Library) Current() *Stream {
	if l.current == nil {
		return nil
	}
	return &Stream{lib: l, s: l.current}
}

// Tag returns the stream's update tag.
func (s *Stream) Tag() uint32 { return s.s.Tag }

// PutString writes text under the given style.
func (s *Stream) PutString(text, style string) error {
	return s.s.PutString(text, style)
}

// PutRune writes one code point.
func (s *Stream) PutRune(r rune, style string) error {
	return s.s.PutRune(r, style)
}

// GetRune reads one code point, io.EOF at end of stream.
func (s *Stream) GetRune(unicode bool) (rune, error) {
	return s.s.GetRune(unicode)
}

// SetPosition implements glk_stream_set_position.
func (s *Stream) SetPosition(pos int64, mode streamio.SeekMode) error {
	return s.s.SetPosition(pos, mode)
}

// Position implements glk_stream_get_position.
func (s *Stream) Position() int64 { return s.s.Position() }

// Close implements glk_stream_close, returning the read/write counts.
func (s *Stream) Close() (readCount, writeCount int64) {
	delete(s.lib.streams, s.s.Tag)
	if s.lib.current == s.s {
		s.lib.current = nil
	}
	// gli_windows_unechostream: any stream still echoing to this one would
	// otherwise hold a dangling pointer once it's gone.
	for _, other := range s.lib.streams {
		if other.EchoTo == s.s {
			other.EchoTo = nil
		}
	}
	return s.s.Close()
}
