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

// Package symsource is the front end everything else in this module builds
// toward: given a PDB or a DWARF-in-PE image it loads symbols and line
// tables in the background, indexes them by name and by address, and
// answers nearest-symbol / exact-line queries against a short-held mutex
// rather than a single coarse lock over the whole source.
package symsource

// Kind classifies a Symbol the way x64dbg's own symbol model does.
type Kind int

const (
	Unknown Kind = iota
	Public
	Function
	Data
	Label
	Block
)

func (k Kind) String() string {
	switch k {
	case Public:
		return "PUBLIC"
	case Function:
		return "FUNCTION"
	case Data:
		return "DATA"
	case Label:
		return "LABEL"
	case Block:
		return "BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Symbol is one entry in the address and name indices.
type Symbol struct {
	VirtualAddress  uint64
	RVA             uint32
	Segment         uint16
	Offset          uint32
	Size            uint32
	// PerfectSize is true when Size came straight from the provider's own
	// length accessor for this symbol, false when it had to be inferred
	// (e.g. a DATA symbol's size taken from its type's length instead of its
	// own, or left unresolved).
	PerfectSize     bool
	Displacement    int64
	Name            string
	UndecoratedName string
	Kind            Kind
	IsPublic        bool
}

// Line is one RVA-to-source-line mapping.
type Line struct {
	RVA            uint32
	LineNumber     int
	SourceFileIndex int
}
