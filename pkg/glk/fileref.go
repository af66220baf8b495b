package glk

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rglk/remglk/internal/streamio"
	"github.com/rglk/remglk/internal/wire"
	"github.com/rglk/remglk/pkg/dispatch"
)

// FileUsage mirrors the fileusage_* constants: the low bits name a file's
// purpose, the fileusage_TextMode bit says whether it should be opened in
// text or binary mode.
type FileUsage uint32

const (
	FileUsageData       FileUsage = 0x00
	FileUsageSavedGame  FileUsage = 0x01
	FileUsageTranscript FileUsage = 0x02
	FileUsageInputRecord FileUsage = 0x03
	FileUsageTypeMask   FileUsage = 0x0f
	FileUsageTextMode   FileUsage = 0x100
)

// FileRef is a fileref: a pathname, a text/binary flag and a usage,
// exactly as rgfref.c defines one for a stdio host.
type FileRef struct {
	lib      *Library
	tag      uint32
	rock     uint32
	dispRock any
	filename string
	textMode bool
	usage    FileUsage
}

// Tag returns the fileref's update tag.
func (f *FileRef) Tag() uint32 { return f.tag }

// Rock returns the rock given at creation, per glk_fileref_get_rock.
func (f *FileRef) Rock() uint32 { return f.rock }

// Filename returns the resolved path on disk.
func (f *FileRef) Filename() string { return f.filename }

// TextMode reports whether the fileref's usage carries fileusage_TextMode.
func (f *FileRef) TextMode() bool { return f.textMode }

// UsageValue returns the fileref's usage bits, for autosave.
func (f *FileRef) UsageValue() uint32 { return uint32(f.usage) }

func suffixForUsage(usage FileUsage) string {
	switch usage & FileUsageTypeMask {
	case FileUsageData:
		return ".glkdata"
	case FileUsageSavedGame:
		return ".glksave"
	case FileUsageTranscript, FileUsageInputRecord:
		return ".txt"
	default:
		return ""
	}
}

func (l *Library) newFileRef(filename string, usage FileUsage, rock uint32) *FileRef {
	f := &FileRef{
		lib: l, tag: l.reg.NextTag(), rock: rock,
		filename: filename, usage: usage,
		textMode: usage&FileUsageTextMode != 0,
	}
	f.dispRock = l.reg.RegisterObject(f, dispatch.ClassFileRef)
	l.filerefs[f.tag] = f
	return f
}

// FileRefCreateTemp implements glk_fileref_create_temp: a fresh, unique
// path under the OS temp directory.
func (l *Library) FileRefCreateTemp(usage FileUsage, rock uint32) (*FileRef, error) {
	tmp, err := os.CreateTemp("", "glktempfref-")
	if err != nil {
		return nil, err
	}
	name := tmp.Name()
	tmp.Close()
	return l.newFileRef(name, usage, rock), nil
}

// FileRefCreateFromFileRef implements glk_fileref_create_from_fileref:
// same path, new usage/rock.
func (l *Library) FileRefCreateFromFileRef(usage FileUsage, old *FileRef, rock uint32) *FileRef {
	return l.newFileRef(old.filename, usage, rock)
}

// cleanBaseName applies the spec-recommended sanitization: strip
// "/\<>:|?*\"", truncate at the first period, fall back to "null" if
// nothing is left.
func cleanBaseName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '.' {
			break
		}
		switch r {
		case '"', '\\', '/', '>', '<', ':', '|', '?', '*':
			continue
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "null"
	}
	return b.String()
}

// FileRefCreateByName implements glk_fileref_create_by_name, resolving
// the sanitised name against the library's working directory.
func (l *Library) FileRefCreateByName(usage FileUsage, name string, rock uint32) *FileRef {
	path := filepath.Join(l.workingDir, cleanBaseName(name)+suffixForUsage(usage))
	return l.newFileRef(path, usage, rock)
}

// FileRefCreateByPrompt implements glk_fileref_create_by_prompt: it
// drives the special-request side channel (a "fileref_prompt" update) to
// ask the client for a path, per gli_select_specialrequest. Returns nil,
// nil if the user cancelled.
func (l *Library) FileRefCreateByPrompt(usage FileUsage, mode streamio.FileMode, rock uint32) (*FileRef, error) {
	req := &wire.SpecialInputDesc{
		Type:     "fileref_prompt",
		FileType: fileTypeName(usage),
		FileMode: fileModeName(mode),
	}
	value, cancelled, err := l.loop.SelectSpecialRequest(req)
	if err != nil {
		return nil, err
	}
	if cancelled {
		return nil, nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	path := value
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.workingDir, path)
	}
	if filepath.Ext(path) == "" {
		path += suffixForUsage(usage)
	}

	if mode == streamio.ModeRead {
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	return l.newFileRef(path, usage, rock), nil
}

func fileTypeName(usage FileUsage) string {
	switch usage & FileUsageTypeMask {
	case FileUsageSavedGame:
		return "save"
	case FileUsageTranscript:
		return "transcript"
	case FileUsageInputRecord:
		return "command"
	default:
		return "data"
	}
}

func fileModeName(mode streamio.FileMode) string {
	switch mode {
	case streamio.ModeWrite:
		return "write"
	case streamio.ModeReadWrite:
		return "readwrite"
	case streamio.ModeWriteAppend:
		return "writeappend"
	default:
		return "read"
	}
}

// DoesFileExist implements glk_fileref_does_file_exist.
func (f *FileRef) DoesFileExist() bool {
	info, err := os.Stat(f.filename)
	return err == nil && info.Mode().IsRegular()
}

// DeleteFile implements glk_fileref_delete_file.
func (f *FileRef) DeleteFile() {
	os.Remove(f.filename)
}

// Destroy implements glk_fileref_destroy.
func (f *FileRef) Destroy() {
	f.lib.reg.UnregisterObject(f, dispatch.ClassFileRef, f.dispRock)
	delete(f.lib.filerefs, f.tag)
}

// OpenStream implements glk_stream_open_file against this fileref's
// path, opening the OS file in the given mode and wrapping it as a
// stream via streamio.OpenFile.
func (f *FileRef) OpenStream(mode streamio.FileMode, rock uint32) (*Stream, error) {
	flag := os.O_RDONLY
	switch mode {
	case streamio.ModeWrite:
		flag = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case streamio.ModeReadWrite:
		flag = os.O_RDWR | os.O_CREATE
	case streamio.ModeWriteAppend:
		flag = os.O_RDWR | os.O_CREATE | os.O_APPEND
	}
	file, err := os.OpenFile(f.filename, flag, 0644)
	if err != nil {
		return nil, err
	}
	binary := !f.textMode
	return f.lib.OpenFileStream(file, mode, false, binary, f.filename, rock), nil
}
