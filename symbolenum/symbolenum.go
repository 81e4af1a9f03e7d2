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

// Package symbolenum walks a PDB's exposed symbols - public symbols, then
// functions, then data - in provider order, rejecting any record the
// provider failed to relocate before handing it to a Sink.
//
// gopdb's own CodeView reader recognises S_GPROC32/S_LDATA32/S_PUB32 and
// their kin, but not the S_BLOCK32/S_LABEL32 records CodeView uses for
// nested lexical scopes, and exposes no per-module raw symbol bytes a
// caller could walk by hand either - so a PDB source built on this package
// never reports nested blocks or labels, only the three flat symbol kinds
// gopdb itself parses.
package symbolenum

import (
	"github.com/blaquee/x64dbg/logger"
	"github.com/blaquee/x64dbg/pdbprovider"
)

// Kind classifies an enumerated symbol the way the SymbolSource data model
// does - see symsource.Kind, which reuses the same values.
type Kind int

const (
	Unknown Kind = iota
	Public
	Function
	Data
	Label
	Block
)

// Symbol is one lexically-enumerated entry.
type Symbol struct {
	// ModuleIndex and Offset identify the record. Walk reads gopdb's flat
	// lists, which carry no module or stream position, so ModuleIndex is
	// always -1 and Offset is the record's segment-relative offset (the
	// same value as SymOffset).
	ModuleIndex int
	Offset      int

	Kind           Kind
	Name           string
	Segment        uint16
	SymOffset      uint32
	VirtualAddress uint64
	RVA            uint32
	Length         uint32
	TypeIndex      uint32
	Parent         int // byte offset of the enclosing block/function, -1 if none
}

// Sink receives symbols as they're discovered. Returning false stops the
// walk early (e.g. once a caller's cancellation flag trips).
type Sink func(Symbol) bool

// Walk enumerates every function, variable and public symbol gopdb can see
// in p, in the fixed order: publics, then functions, then data. Records
// are deduplicated by segment:offset with one seen-set shared by all three
// lists, so a function or variable at the same segment:offset as a record
// already emitted (typically its public symbol) is not emitted again. A
// record whose provider failed to relocate it is dropped rather than
// handed to sink.
//
// Walk does not reach nested blocks or labels, because gopdb's public API
// exposes no per-module raw symbol bytes.
func Walk(p *pdbprovider.Provider, sink Sink) {
	seen := make(map[int]bool)

	for _, pub := range p.PublicSymbols() {
		id := identity(-1, pub.Offset, pub.Segment)
		if seen[id] {
			continue
		}
		seen[id] = true
		if !IsRelocated(uint64(pub.RVA), pub.Offset) {
			logger.Logf("symbolenum", "rejecting public symbol %q: not relocated", pub.Name)
			continue
		}
		if !sink(Symbol{
			ModuleIndex:    -1,
			Offset:         int(pub.Offset),
			Kind:           Public,
			Name:           pub.Name,
			Segment:        pub.Segment,
			SymOffset:      pub.Offset,
			VirtualAddress: uint64(pub.RVA),
			RVA:            pub.RVA,
			Parent:         -1,
		}) {
			return
		}
	}

	for _, fn := range p.Functions() {
		id := identity(-1, fn.Offset, fn.Segment)
		if seen[id] {
			continue
		}
		seen[id] = true
		if !IsRelocated(uint64(fn.RVA), fn.Offset) {
			logger.Logf("symbolenum", "rejecting function %q: not relocated", fn.Name)
			continue
		}
		if !sink(Symbol{
			ModuleIndex:    -1,
			Offset:         int(fn.Offset),
			Kind:           Function,
			Name:           fn.Name,
			Segment:        fn.Segment,
			SymOffset:      fn.Offset,
			VirtualAddress: uint64(fn.RVA),
			RVA:            fn.RVA,
			Length:         fn.Length,
			TypeIndex:      fn.TypeIndex,
			Parent:         -1,
		}) {
			return
		}
	}

	for _, v := range p.Variables() {
		id := identity(-1, v.Offset, v.Segment)
		if seen[id] {
			continue
		}
		seen[id] = true
		if !IsRelocated(uint64(v.RVA), v.Offset) {
			logger.Logf("symbolenum", "rejecting variable %q: not relocated", v.Name)
			continue
		}
		if !sink(Symbol{
			ModuleIndex:    -1,
			Offset:         int(v.Offset),
			Kind:           Data,
			Name:           v.Name,
			Segment:        v.Segment,
			SymOffset:      v.Offset,
			VirtualAddress: uint64(v.RVA),
			RVA:            v.RVA,
			TypeIndex:      v.TypeIndex,
			Parent:         -1,
		}) {
			return
		}
	}
}

// IsRelocated reports whether a record was actually relocated by the
// provider, rather than left at its raw segment-relative offset because
// relocation failed. virtualAddress of 0 is also treated as unrelocated: no
// valid image address is ever 0, and that's the value gopdb's own
// SegmentToRVA returns when the segment it's asked to resolve is invalid.
func IsRelocated(virtualAddress uint64, offset uint32) bool {
	if virtualAddress == 0 {
		return false
	}
	return virtualAddress != uint64(offset)
}

func identity(module int, offset uint32, segment uint16) int {
	return module<<48 | int(segment)<<32 | int(offset)
}
