// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package pemodule reads the headers of a PE image, either one that has
// already been mapped into memory with its sections laid out at their
// virtual addresses - the shape a debugger attaches to - or one still in its
// on-disk, linker-written layout. SectionData addresses a mapped image's
// section payloads by RVA; SectionFileData addresses the same section in an
// unmapped file by its raw file offset. Most fields parse identically either
// way; only section payload lookup needs to know which layout it's reading.
package pemodule

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"strconv"

	"github.com/blaquee/x64dbg/curated"
)

const (
	dosSignature = 0x5a4d // "MZ"
	peSignature  = 0x00004550
	maxSections  = 96
)

// Section describes one section of the image and gives access to its bytes
// either as they sit in a mapped buffer, i.e. at
// [VirtualAddress, VirtualAddress+VirtualSize), or as they sit in the
// on-disk file, at [PointerToRawData, PointerToRawData+SizeOfRawData).
type Section struct {
	Name             string
	VirtualAddress   uint32
	VirtualSize      uint32
	PointerToRawData uint32
	SizeOfRawData    uint32
	Characteristics  uint32
}

// Image is a PE image, mapped or in on-disk layout: a single byte slice
// plus the parsed headers needed to find sections and symbols within it.
type Image struct {
	data           []byte
	FileHeader     pe.FileHeader
	is64           bool
	imageBase      uint64
	Sections       []Section
	coffSymbols    []pe.COFFSymbol
	stringTable    []byte
}

func readStruct[T any](r *bytes.Reader, out *T) error {
	return binary.Read(r, binary.LittleEndian, out)
}

// Open parses the DOS header, NT headers, section table and COFF symbol
// table of a mapped PE image. data is the entire image as it appears in
// memory, section virtual addresses included.
func Open(data []byte) (*Image, error) {
	if len(data) < 64 {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: image too small")
	}

	if binary.LittleEndian.Uint16(data[0:2]) != dosSignature {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: missing MZ signature")
	}

	lfanew := binary.LittleEndian.Uint32(data[0x3c:])
	if int(lfanew)+24 > len(data) {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: e_lfanew out of range")
	}

	r := bytes.NewReader(data[lfanew:])

	var sig uint32
	if err := readStruct(r, &sig); err != nil || sig != peSignature {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: missing PE signature")
	}

	img := &Image{data: data}

	if err := readStruct(r, &img.FileHeader); err != nil {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading file header: %v", err)
	}

	var magic uint16
	optStart, _ := r.Seek(0, 1)
	if err := readStruct(r, &magic); err != nil {
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading optional header magic: %v", err)
	}

	switch magic {
	case 0x10b: // PE32
		img.is64 = false
		var oh pe.OptionalHeader32
		r.Seek(optStart, 0)
		if err := readStruct(r, &oh); err != nil {
			return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading optional header32: %v", err)
		}
		img.imageBase = uint64(oh.ImageBase)
	case 0x20b: // PE32+
		img.is64 = true
		var oh pe.OptionalHeader64
		r.Seek(optStart, 0)
		if err := readStruct(r, &oh); err != nil {
			return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading optional header64: %v", err)
		}
		img.imageBase = oh.ImageBase
	default:
		return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: unrecognised optional header magic 0x%x", magic)
	}

	r.Seek(optStart+int64(img.FileHeader.SizeOfOptionalHeader), 0)

	numSections := int(img.FileHeader.NumberOfSections)
	if numSections > maxSections {
		numSections = maxSections
	}

	img.Sections = make([]Section, 0, numSections)
	for i := 0; i < numSections; i++ {
		var sh pe.SectionHeader32
		if err := readStruct(r, &sh); err != nil {
			return nil, curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading section header %d: %v", i, err)
		}
		img.Sections = append(img.Sections, Section{
			VirtualAddress:   sh.VirtualAddress,
			VirtualSize:      sh.VirtualSize,
			PointerToRawData: sh.PointerToRawData,
			SizeOfRawData:    sh.SizeOfRawData,
			Characteristics:  sh.Characteristics,
		})
	}

	if img.FileHeader.PointerToSymbolTable != 0 && img.FileHeader.NumberOfSymbols != 0 {
		if err := img.readCOFFSymbols(); err != nil {
			return nil, err
		}
	}

	for i := range img.Sections {
		img.Sections[i].Name = img.sectionName(rawSectionName(data, lfanew, img.FileHeader, i))
	}

	return img, nil
}

// rawSectionName re-reads the raw 8-byte name field of section i directly
// from the image. Open resolves names in a second pass, after the COFF
// string table that "/nnn" long names point into has been read.
func rawSectionName(data []byte, lfanew uint32, fh pe.FileHeader, i int) [8]byte {
	var name [8]byte
	base := int(lfanew) + 4 + 20 + int(fh.SizeOfOptionalHeader) + i*40
	if base+8 <= len(data) {
		copy(name[:], data[base:base+8])
	}
	return name
}

// sectionName resolves a raw COFF section name, following the "/nnn" long
// name convention into the string table when present.
func (img *Image) sectionName(raw [8]byte) string {
	n := bytes.IndexByte(raw[:], 0)
	if n == -1 {
		n = len(raw)
	}
	s := string(raw[:n])

	if len(s) > 0 && s[0] == '/' {
		if off, err := strconv.Atoi(s[1:]); err == nil {
			if name, ok := img.stringTableEntry(off); ok {
				return name
			}
		}
	}

	return s
}

func (img *Image) stringTableEntry(offset int) (string, bool) {
	if offset < 0 || offset >= len(img.stringTable) {
		return "", false
	}
	end := bytes.IndexByte(img.stringTable[offset:], 0)
	if end == -1 {
		return string(img.stringTable[offset:]), true
	}
	return string(img.stringTable[offset : offset+end]), true
}

// coffSymbolSize is the on-disk size of one pe.COFFSymbol record.
const coffSymbolSize = 18

func (img *Image) readCOFFSymbols() error {
	base := int(img.FileHeader.PointerToSymbolTable)
	count := int(img.FileHeader.NumberOfSymbols)
	end := base + count*coffSymbolSize
	if base < 0 || end > len(img.data) {
		return curated.ErrorfKind(curated.KindPEMalformed, "pemodule: COFF symbol table out of range")
	}

	r := bytes.NewReader(img.data[base:end])
	img.coffSymbols = make([]pe.COFFSymbol, 0, count)
	for i := 0; i < count; i++ {
		var sym pe.COFFSymbol
		if err := readStruct(r, &sym); err != nil {
			return curated.ErrorfKind(curated.KindPEMalformed, "pemodule: reading COFF symbol %d: %v", i, err)
		}
		img.coffSymbols = append(img.coffSymbols, sym)
		for j := uint8(0); j < sym.NumberOfAuxSymbols; j++ {
			var aux pe.COFFSymbol
			readStruct(r, &aux)
			i++
		}
	}

	strTabOffset := end
	if strTabOffset+4 <= len(img.data) {
		strTabLen := binary.LittleEndian.Uint32(img.data[strTabOffset:])
		stEnd := strTabOffset + int(strTabLen)
		if strTabLen >= 4 && stEnd <= len(img.data) {
			img.stringTable = img.data[strTabOffset+4 : stEnd]
		}
	}

	return nil
}

// ImageBase is the preferred load address recorded in the optional header.
func (img *Image) ImageBase() uint64 { return img.imageBase }

// Is64Bit reports whether the optional header was PE32+ (x64).
func (img *Image) Is64Bit() bool { return img.is64 }

// PointerSize returns 4 or 8 depending on the image's bitness.
func (img *Image) PointerSize() int {
	if img.is64 {
		return 8
	}
	return 4
}

// COFFSymbols returns the parsed COFF symbol table, or nil if the image
// carries none (the common case for a linked, non-debug release PE).
func (img *Image) COFFSymbols() []pe.COFFSymbol { return img.coffSymbols }

// Section returns the section with the given name, or nil.
func (img *Image) Section(name string) *Section {
	for i := range img.Sections {
		if img.Sections[i].Name == name {
			return &img.Sections[i]
		}
	}
	return nil
}

// SectionData returns the bytes of sec as they sit in the mapped image: the
// half-open RVA range [VirtualAddress, VirtualAddress+VirtualSize), clamped
// to the raw size of the underlying buffer.
func (img *Image) SectionData(sec *Section) []byte {
	if sec == nil {
		return nil
	}
	start := int(sec.VirtualAddress)
	size := int(sec.VirtualSize)
	if start < 0 || start > len(img.data) {
		return nil
	}
	end := start + size
	if end > len(img.data) {
		end = len(img.data)
	}
	if end < start {
		return nil
	}
	return img.data[start:end]
}

// SectionFileData returns the bytes of sec as they sit in the on-disk file:
// the half-open file-offset range
// [PointerToRawData, PointerToRawData+SizeOfRawData), clamped to the raw
// size of the underlying buffer. Use this instead of SectionData when data
// was read straight from a file rather than an already-mapped image - an
// unlinked section's VirtualAddress has no meaning against raw file bytes.
func (img *Image) SectionFileData(sec *Section) []byte {
	if sec == nil {
		return nil
	}
	start := int(sec.PointerToRawData)
	size := int(sec.SizeOfRawData)
	if start < 0 || start > len(img.data) {
		return nil
	}
	end := start + size
	if end > len(img.data) {
		end = len(img.data)
	}
	if end < start {
		return nil
	}
	return img.data[start:end]
}

// SectionContainingRVA returns the section whose virtual range contains rva,
// or nil if none does.
func (img *Image) SectionContainingRVA(rva uint32) *Section {
	for i := range img.Sections {
		s := &img.Sections[i]
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return s
		}
	}
	return nil
}
