// Package streamio implements Glk's four stream kinds (memory, file,
// window and resource streams) and the narrow/wide, text/binary
// transcoding rules the original glk_put_char/glk_get_char family
// applies. Grounded on rgstream.c: buffer-pointer arithmetic for memory
// streams, the lastop seek-between-read-and-write discipline for file
// streams, and UTF-8 vs big-endian-UTF-32 encoding for wide streams.
package streamio

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rglk/remglk/internal/objreg"
	"github.com/rglk/remglk/pkg/dispatch"
)

// Kind is the stream's underlying medium.
type Kind int

const (
	KindMemory Kind = iota
	KindFile
	KindWindow
	KindResource
)

// FileMode mirrors glk's filemode_* constants.
type FileMode int

const (
	ModeWrite FileMode = iota
	ModeRead
	ModeReadWrite
	ModeWriteAppend
)

// SeekMode mirrors glk's seekmode_* constants.
type SeekMode int

const (
	SeekStart SeekMode = iota
	SeekCurrent
	SeekEnd
)

// WindowWriter is the narrow interface streamio needs from a window to
// implement a window stream: put runes through the window's content
// model and report whether a line input request is pending (writing to
// a window mid-line-request is a library-level error, not silently
// dropped, per the original's strict warning).
type WindowWriter interface {
	PutRune(r rune, style string) error
	LineRequestPending() bool
}

// Stream is one open Glk stream. Only the fields relevant to its Kind
// are meaningful; see the constructors.
type Stream struct {
	Tag      uint32
	Kind     Kind
	Rock     uint32
	Readable bool
	Writable bool
	Unicode  bool // wide (32-bit) stream vs narrow (8-bit)
	IsBinary bool // file streams: binary vs text mode

	ReadCount, WriteCount int64

	// memory stream
	buf      []byte
	ubuf     []rune
	bufPtr   int
	bufEOF   int // high-water mark for read-after-write
	arrRock  any

	// file stream
	rawFile  io.ReadWriteSeeker
	lastOp   FileMode // ModeWrite / ModeRead, valid only while lastOpSet, for the seek discipline
	lastOpSet bool
	Filename string
	ModeStr  string

	// resource stream (read-only, backed by an in-memory blob)
	resData []byte
	resPtr  int

	// window stream
	win       WindowWriter
	EchoTo    *Stream

	registry *objreg.Registry
	dispRock any
}

// OpenMemory creates a memory stream over buf (narrow) per
// glk_stream_open_memory. buf may be nil/len-0 for a null memory stream.
func OpenMemory(reg *objreg.Registry, buf []byte, mode FileMode, rock uint32) (*Stream, error) {
	if mode != ModeRead && mode != ModeWrite && mode != ModeReadWrite {
		return nil, fmt.Errorf("streamio: illegal filemode for memory stream")
	}
	s := newStream(reg, KindMemory, mode != ModeWrite, mode != ModeRead, rock)
	if len(buf) > 0 {
		s.buf = buf
		if mode == ModeWrite {
			s.bufEOF = 0
		} else {
			s.bufEOF = len(buf)
		}
		if s.registry != nil {
			s.arrRock = s.registry.RegisterArray(buf, dispatch.ArrayClassBytes)
		}
	}
	return s, nil
}

// OpenMemoryUni creates a wide memory stream over a []rune buffer.
func OpenMemoryUni(reg *objreg.Registry, ubuf []rune, mode FileMode, rock uint32) (*Stream, error) {
	if mode != ModeRead && mode != ModeWrite && mode != ModeReadWrite {
		return nil, fmt.Errorf("streamio: illegal filemode for memory stream")
	}
	s := newStream(reg, KindMemory, mode != ModeWrite, mode != ModeRead, rock)
	s.Unicode = true
	if len(ubuf) > 0 {
		s.ubuf = ubuf
		if mode == ModeWrite {
			s.bufEOF = 0
		} else {
			s.bufEOF = len(ubuf)
		}
		if s.registry != nil {
			s.arrRock = s.registry.RegisterArray(ubuf, dispatch.ArrayClassUnichars)
		}
	}
	return s, nil
}

// OpenWindow creates a write-only stream that funnels output through win
// (and, if set, its echo stream), per gli_stream_open_window.
func OpenWindow(reg *objreg.Registry, win WindowWriter, rock uint32) *Stream {
	s := newStream(reg, KindWindow, false, true, rock)
	s.win = win
	return s
}

// WindowOwner returns the window backing a window stream, or nil for
// any other kind. Used by autosave to record which window owns which
// output stream.
func (s *Stream) WindowOwner() WindowWriter {
	if s.Kind != KindWindow {
		return nil
	}
	return s.win
}

// OpenResource creates a read-only stream over a fixed resource blob
// (the contents of a Blorb chunk), per glk_stream_open_resource.
func OpenResource(reg *objreg.Registry, data []byte, unicode bool, rock uint32) *Stream {
	s := newStream(reg, KindResource, true, false, rock)
	s.Unicode = unicode
	s.resData = data
	return s
}

// OpenFile wraps an already-opened seekable file handle as a Glk file
// stream. The caller (pkg/glk's fileref layer) is responsible for
// actually opening the OS file with the right flags; this just applies
// the stream-level read/write/seek semantics.
func OpenFile(reg *objreg.Registry, rws io.ReadWriteSeeker, mode FileMode, unicode, binary bool, filename string, rock uint32) *Stream {
	s := newStream(reg, KindFile, mode == ModeRead || mode == ModeReadWrite, mode != ModeRead, rock)
	s.Unicode = unicode
	s.IsBinary = binary
	s.rawFile = rws
	s.Filename = filename
	return s
}

func newStream(reg *objreg.Registry, kind Kind, readable, writable bool, rock uint32) *Stream {
	s := &Stream{
		Kind:     kind,
		Rock:     rock,
		Readable: readable,
		Writable: writable,
		registry: reg,
	}
	if reg != nil {
		s.Tag = reg.NextTag()
		s.dispRock = reg.RegisterObject(s, dispatch.ClassStream)
	}
	return s
}

// Close flushes and releases the stream, returning the counts the
// original's stream_result_t reports.
func (s *Stream) Close() (readCount, writeCount int64) {
	if s.registry != nil {
		s.registry.UnregisterObject(s, dispatch.ClassStream, s.dispRock)
		if s.arrRock != nil {
			var class dispatch.ArrayClass
			var arr any
			if s.Unicode {
				class, arr = dispatch.ArrayClassUnichars, s.ubuf
			} else {
				class, arr = dispatch.ArrayClassBytes, s.buf
			}
			s.registry.UnregisterArray(arr, class, s.arrRock)
		}
	}
	return s.ReadCount, s.WriteCount
}

// ensureOp applies the original's seek-between-read-and-write rule for
// file streams opened ReadWrite/WriteAppend: a seek to the current
// position is required whenever the operation direction flips.
func (s *Stream) ensureOp(op FileMode) error {
	if s.Kind != KindFile || s.rawFile == nil {
		return nil
	}
	if s.lastOpSet && s.lastOp != op {
		pos, err := s.rawFile.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := s.rawFile.Seek(pos, io.SeekStart); err != nil {
			return err
		}
	}
	s.lastOp, s.lastOpSet = op, true
	return nil
}

// PutRune writes one code point, applying the narrow/wide and
// binary/text transcoding rules. style is forwarded to window streams.
func (s *Stream) PutRune(r rune, style string) error {
	if !s.Writable {
		return nil
	}
	s.WriteCount++

	switch s.Kind {
	case KindMemory:
		return s.putRuneMemory(r)
	case KindWindow:
		if s.win.LineRequestPending() {
			return fmt.Errorf("streamio: window has pending line request")
		}
		if err := s.win.PutRune(r, style); err != nil {
			return err
		}
		if s.EchoTo != nil {
			return s.EchoTo.PutRune(r, style)
		}
		return nil
	case KindFile:
		return s.putRuneFile(r)
	case KindResource:
		return nil // never writable
	}
	return nil
}

func (s *Stream) putRuneMemory(r rune) error {
	if !s.Unicode {
		b := byte(r)
		if r > 0xFF {
			b = '?'
		}
		if s.bufPtr < len(s.buf) {
			s.buf[s.bufPtr] = b
			s.bufPtr++
			if s.bufPtr > s.bufEOF {
				s.bufEOF = s.bufPtr
			}
		}
		return nil
	}
	if s.bufPtr < len(s.ubuf) {
		s.ubuf[s.bufPtr] = r
		s.bufPtr++
		if s.bufPtr > s.bufEOF {
			s.bufEOF = s.bufPtr
		}
	}
	return nil
}

func (s *Stream) putRuneFile(r rune) error {
	if err := s.ensureOp(ModeWrite); err != nil {
		return err
	}
	bw := bufio.NewWriter(s.rawFile)
	defer bw.Flush()

	if !s.Unicode {
		b := byte(r)
		if r > 0xFF {
			b = '?'
		}
		return bw.WriteByte(b)
	}
	if !s.IsBinary {
		_, err := bw.WriteRune(r)
		return err
	}
	// big-endian UTF-32
	return writeBE32(bw, r)
}

func writeBE32(bw *bufio.Writer, r rune) error {
	if err := bw.WriteByte(byte(r >> 24)); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(r >> 16)); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(r >> 8)); err != nil {
		return err
	}
	return bw.WriteByte(byte(r))
}

// PutString writes s's runes one at a time with the given style.
func (s *Stream) PutString(text string, style string) error {
	for _, r := range text {
		if err := s.PutRune(r, style); err != nil {
			return err
		}
	}
	return nil
}

// GetRune reads one code point, or returns io.EOF. wantUnicode controls
// whether non-Latin-1 code points are returned as-is (true) or mapped to
// a question mark (false), per glk_get_char_stream vs _uni.
func (s *Stream) GetRune(wantUnicode bool) (rune, error) {
	if !s.Readable {
		return 0, io.EOF
	}
	var r rune
	var err error
	switch s.Kind {
	case KindMemory:
		r, err = s.getRuneMemory()
	case KindFile:
		r, err = s.getRuneFile()
	case KindResource:
		r, err = s.getRuneResource()
	default:
		return 0, io.EOF
	}
	if err != nil {
		return 0, err
	}
	s.ReadCount++
	if !wantUnicode && r > 0xFF {
		r = '?'
	}
	return r, nil
}

func (s *Stream) getRuneMemory() (rune, error) {
	if !s.Unicode {
		if s.bufPtr >= s.bufEOF {
			return 0, io.EOF
		}
		r := rune(s.buf[s.bufPtr])
		s.bufPtr++
		return r, nil
	}
	if s.bufPtr >= s.bufEOF {
		return 0, io.EOF
	}
	r := s.ubuf[s.bufPtr]
	s.bufPtr++
	return r, nil
}

func (s *Stream) getRuneFile() (rune, error) {
	if err := s.ensureOp(ModeRead); err != nil {
		return 0, err
	}
	if !s.Unicode {
		var b [1]byte
		if _, err := io.ReadFull(s.rawFile, b[:]); err != nil {
			return 0, io.EOF
		}
		return rune(b[0]), nil
	}
	if !s.IsBinary {
		br := bufio.NewReader(s.rawFile)
		r, _, err := br.ReadRune()
		if err != nil {
			return 0, io.EOF
		}
		return r, nil
	}
	var b [4]byte
	if _, err := io.ReadFull(s.rawFile, b[:]); err != nil {
		return 0, io.EOF
	}
	return rune(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

func (s *Stream) getRuneResource() (rune, error) {
	if s.resPtr >= len(s.resData) {
		return 0, io.EOF
	}
	if !s.Unicode {
		r := rune(s.resData[s.resPtr])
		s.resPtr++
		return r, nil
	}
	r, size := utf8.DecodeRune(s.resData[s.resPtr:])
	if r == utf8.RuneError {
		return 0, io.EOF
	}
	s.resPtr += size
	return r, nil
}

// MemoryContent resolves a memory stream's backing array through the
// dispatch layer's locator and returns the bytes written so far (up to
// the high-water mark), for autosave. ok is false for any other stream
// kind, an empty stream, or when no locator is configured.
func (s *Stream) MemoryContent() (content string, ok bool) {
	if s.Kind != KindMemory || s.bufEOF == 0 || s.registry == nil {
		return "", false
	}
	arr, err := s.registry.LocateArray(s.arrRock)
	if err != nil {
		return "", false
	}
	switch a := arr.(type) {
	case []byte:
		if s.bufEOF <= len(a) {
			return string(a[:s.bufEOF]), true
		}
	case []rune:
		if s.bufEOF <= len(a) {
			return string(a[:s.bufEOF]), true
		}
	}
	return "", false
}

// Position reports the stream's current position, per glk_stream_get_position.
func (s *Stream) Position() int64 {
	switch s.Kind {
	case KindMemory:
		return int64(s.bufPtr)
	case KindResource:
		return int64(s.resPtr)
	case KindFile:
		if s.rawFile == nil {
			return 0
		}
		pos, _ := s.rawFile.Seek(0, io.SeekCurrent)
		if s.Unicode {
			return pos / 4
		}
		return pos
	default:
		return 0
	}
}

// SetPosition seeks the stream, per glk_stream_set_position.
func (s *Stream) SetPosition(pos int64, mode SeekMode) error {
	switch s.Kind {
	case KindMemory:
		s.bufPtr = clampPos(pos, mode, s.bufPtr, s.bufEOF)
		return nil
	case KindResource:
		s.resPtr = clampPos(pos, mode, s.resPtr, len(s.resData))
		return nil
	case KindFile:
		if s.rawFile == nil {
			return nil
		}
		whence := io.SeekStart
		switch mode {
		case SeekCurrent:
			whence = io.SeekCurrent
		case SeekEnd:
			whence = io.SeekEnd
		}
		if s.Unicode {
			pos *= 4
		}
		_, err := s.rawFile.Seek(pos, whence)
		s.lastOpSet = false
		return err
	default:
		return nil
	}
}

func clampPos(pos int64, mode SeekMode, cur, end int) int {
	var base int
	switch mode {
	case SeekCurrent:
		base = cur
	case SeekEnd:
		base = end
	default:
		base = 0
	}
	p := base + int(pos)
	if p < 0 {
		p = 0
	}
	if p > end {
		p = end
	}
	return p
}
