// Package blorb reads the Blorb resource archive format (an IFF FORM
// carrying an RIdx resource index plus one chunk per resource) used to
// back glk_stream_open_resource. No Blorb or general IFF library
// appeared anywhere in the retrieved example pack, so this is built
// directly on encoding/binary and io — see DESIGN.md for that
// justification.
package blorb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Usage is the resource's declared kind, per the Blorb spec's
// "Pict"/"Snd " usage tags (and the library's own "Exec"/"Data" for
// completeness).
type Usage [4]byte

var (
	UsagePict Usage = [4]byte{'P', 'i', 'c', 't'}
	UsageSnd  Usage = [4]byte{'S', 'n', 'd', ' '}
	UsageExec Usage = [4]byte{'E', 'x', 'e', 'c'}
	UsageData Usage = [4]byte{'D', 'a', 't', 'a'}
)

// Resource describes one entry in the resource index: its usage, its
// resource number, and the byte range of its chunk within the file.
type Resource struct {
	Usage  Usage
	Number uint32
	Offset int64
	Length int64
	ChunkType [4]byte
}

// Archive is a parsed Blorb file: the resource index plus a handle back
// to the underlying reader for lazy chunk reads.
type Archive struct {
	r         io.ReaderAt
	Resources []Resource
}

// Open parses the FORM header and RIdx chunk from r, which must span
// the whole Blorb file (total length reported by r.Size, if it
// implements that, is not required; chunk offsets are absolute).
func Open(r io.ReaderAt) (*Archive, error) {
	var hdr [12]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("blorb: reading FORM header: %w", err)
	}
	if string(hdr[0:4]) != "FORM" || string(hdr[8:12]) != "IFRS" {
		return nil, fmt.Errorf("blorb: not a Blorb file (bad FORM/IFRS header)")
	}

	a := &Archive{r: r}
	pos := int64(12)
	var resourceIndex []Resource
	for {
		var chdr [8]byte
		n, err := r.ReadAt(chdr[:], pos)
		if err == io.EOF && n < 8 {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("blorb: reading chunk header at %d: %w", pos, err)
		}
		ctype := [4]byte{chdr[0], chdr[1], chdr[2], chdr[3]}
		clen := int64(binary.BigEndian.Uint32(chdr[4:8]))
		dataStart := pos + 8

		if string(ctype[:]) == "RIdx" {
			idx, err := readResourceIndex(r, dataStart, clen)
			if err != nil {
				return nil, err
			}
			resourceIndex = idx
		}

		pos = dataStart + clen
		if clen%2 != 0 {
			pos++ // IFF chunks pad to even length
		}
	}

	// Fill in each resource's chunk type and length by re-walking with
	// the offsets recorded in the index.
	for i := range resourceIndex {
		var chdr [8]byte
		if _, err := r.ReadAt(chdr[:], resourceIndex[i].Offset); err != nil {
			continue
		}
		resourceIndex[i].ChunkType = [4]byte{chdr[0], chdr[1], chdr[2], chdr[3]}
		resourceIndex[i].Length = int64(binary.BigEndian.Uint32(chdr[4:8]))
		resourceIndex[i].Offset += 8 // point past the chunk header, at the data
	}
	a.Resources = resourceIndex
	return a, nil
}

func readResourceIndex(r io.ReaderAt, start, length int64) ([]Resource, error) {
	buf := make([]byte, length)
	if _, err := r.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("blorb: reading RIdx: %w", err)
	}
	if len(buf) < 4 {
		return nil, fmt.Errorf("blorb: RIdx too short")
	}
	count := binary.BigEndian.Uint32(buf[0:4])
	out := make([]Resource, 0, count)
	p := 4
	for i := uint32(0); i < count && p+12 <= len(buf); i++ {
		res := Resource{
			Usage:  [4]byte{buf[p], buf[p+1], buf[p+2], buf[p+3]},
			Number: binary.BigEndian.Uint32(buf[p+4 : p+8]),
			Offset: int64(binary.BigEndian.Uint32(buf[p+8 : p+12])),
		}
		out = append(out, res)
		p += 12
	}
	return out, nil
}

// Find returns the resource matching usage and number, if present.
func (a *Archive) Find(usage Usage, number uint32) (Resource, bool) {
	for _, res := range a.Resources {
		if res.Usage == usage && res.Number == number {
			return res, true
		}
	}
	return Resource{}, false
}

// ReadData returns the raw bytes of a resource's chunk.
func (a *Archive) ReadData(res Resource) ([]byte, error) {
	buf := make([]byte, res.Length)
	if _, err := a.r.ReadAt(buf, res.Offset); err != nil {
		return nil, fmt.Errorf("blorb: reading resource data: %w", err)
	}
	return buf, nil
}
