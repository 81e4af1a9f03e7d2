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

package symsource

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/blaquee/x64dbg/demangle"
)

// SymbolSource is the capability every backend (PDB, DWARF, or none at all)
// presents to the rest of the debugger. A tagged variant behind this small
// interface is preferred here over a deep type hierarchy - there is exactly
// one axis of variation (where the symbols came from) and every variant
// answers the same handful of queries.
type SymbolSource interface {
	// IsOpen reports whether a provider session exists - true as soon as
	// the PDB/DWARF image was opened, even while symbols/lines are still
	// loading in the background.
	IsOpen() bool
	// IsLoading reports whether the background symbol/line loaders are
	// still running.
	IsLoading() bool
	// CancelLoading asks any in-flight background loader to stop at its
	// next opportunity. Already-populated indices remain queryable.
	CancelLoading()
	// SymbolExactAtAddr returns the symbol whose RVA is exactly rva.
	SymbolExactAtAddr(rva uint32) (*Symbol, bool)
	// SymbolFromAddr returns the symbol at or immediately below rva, and
	// its displacement from that symbol's start.
	SymbolFromAddr(rva uint32) (*Symbol, int64, bool)
	// SymbolFromName returns the symbol with an exact name match, folding
	// case in the comparison when caseSensitive is false.
	SymbolFromName(name string, caseSensitive bool) (*Symbol, bool)
	// Prefix returns every symbol whose name starts with prefix, folding
	// case in the comparison when caseSensitive is false.
	Prefix(prefix string, caseSensitive bool) []*Symbol
	// EnumSymbols visits every indexed symbol; cb may return false to stop
	// the walk early.
	EnumSymbols(cb func(*Symbol) bool)
	// LineFromAddr returns the line record at exactly rva.
	LineFromAddr(rva uint32) (Line, bool)
	// Loaded reports whether background loading has finished.
	Loaded() bool
	// Close releases any resources (open file handles) the source holds.
	Close() error
}

// Empty returns a SymbolSource with no symbols, used when no PDB or DWARF
// image could be located for a module - callers still get a usable,
// always-"loaded" source rather than a nil they must special-case.
func Empty() SymbolSource {
	return emptySource{}
}

var (
	_ SymbolSource = emptySource{}
	_ SymbolSource = (*Source)(nil)
)

type emptySource struct{}

func (emptySource) IsOpen() bool                                { return false }
func (emptySource) IsLoading() bool                             { return false }
func (emptySource) CancelLoading()                              {}
func (emptySource) SymbolExactAtAddr(uint32) (*Symbol, bool)     { return nil, false }
func (emptySource) SymbolFromAddr(uint32) (*Symbol, int64, bool) { return nil, 0, false }
func (emptySource) SymbolFromName(string, bool) (*Symbol, bool)  { return nil, false }
func (emptySource) Prefix(string, bool) []*Symbol                { return nil }
func (emptySource) EnumSymbols(func(*Symbol) bool)               {}
func (emptySource) LineFromAddr(uint32) (Line, bool)             { return Line{}, false }
func (emptySource) Loaded() bool                                 { return true }
func (emptySource) Close() error                                 { return nil }

// Source is the background-loading SymbolSource shared by both the PDB and
// DWARF backends: both populate the same byName/byAddr/lines indices, just
// via different loader functions.
type Source struct {
	symbols *symbolIndex
	lines   *lineIndex

	opened    atomic.Bool
	loaded    atomic.Bool
	cancelled atomic.Bool

	closer func() error

	done    chan struct{}
	errCrit sync.Mutex
	loadErr error
}

func newSource() *Source {
	return &Source{
		symbols: newSymbolIndex(),
		lines:   newLineIndex(),
		done:    make(chan struct{}),
	}
}

// start launches symbolLoad and lineLoad in the background and returns
// immediately - the caller gets a Source it can query right away (name and
// prefix lookups see symbols as the loader adds them; address and line
// lookups find nothing until loading seals the indices) and can call Wait
// if it needs to block until loading has actually finished.
func (s *Source) start(symbolLoad, lineLoad func() error) {
	go func() {
		err := s.runLoaders(symbolLoad, lineLoad)
		s.errCrit.Lock()
		s.loadErr = err
		s.errCrit.Unlock()
		close(s.done)
	}()
}

// Wait blocks until background loading has finished and returns whatever
// error the loaders produced, nil on a clean or cleanly cancelled load.
func (s *Source) Wait() error {
	<-s.done
	s.errCrit.Lock()
	defer s.errCrit.Unlock()
	return s.loadErr
}

// SymbolFromAddr implements SymbolSource.
func (s *Source) SymbolFromAddr(rva uint32) (*Symbol, int64, bool) {
	sym, disp := s.symbols.ByAddress(rva)
	return sym, disp, sym != nil
}

// SymbolExactAtAddr returns the symbol whose RVA is exactly rva, with no
// nearest-lower fallback - the spec's find_symbol_exact, as distinct from
// SymbolFromAddr's find_symbol_exact_or_lower.
func (s *Source) SymbolExactAtAddr(rva uint32) (*Symbol, bool) {
	sym := s.symbols.Exact(rva)
	return sym, sym != nil
}

// SymbolFromName implements SymbolSource.
func (s *Source) SymbolFromName(name string, caseSensitive bool) (*Symbol, bool) {
	sym := s.symbols.ByName(name, caseSensitive)
	return sym, sym != nil
}

// LineFromAddr implements SymbolSource.
func (s *Source) LineFromAddr(rva uint32) (Line, bool) {
	return s.lines.AtRVA(rva)
}

// Prefix returns every symbol whose name starts with prefix, in name order.
func (s *Source) Prefix(prefix string, caseSensitive bool) []*Symbol {
	return s.symbols.Prefix(prefix, caseSensitive)
}

// EnumSymbols visits every indexed symbol, in address order once loading
// has finished (in load order before that). cb may return false to stop
// the walk early, e.g. once a caller-side limit is reached.
func (s *Source) EnumSymbols(cb func(*Symbol) bool) {
	s.symbols.Each(cb)
}

// SymbolCount and LineCount report how many entries each index currently
// holds - meaningful to call at any point, not just after Loaded reports
// true, since a cancelled or in-progress load still has a valid partial
// count.
func (s *Source) SymbolCount() int { return s.symbols.Count() }
func (s *Source) LineCount() int   { return s.lines.Count() }

// IsOpen implements SymbolSource.
func (s *Source) IsOpen() bool { return s.opened.Load() }

// IsLoading implements SymbolSource.
func (s *Source) IsLoading() bool { return s.opened.Load() && !s.loaded.Load() }

// Loaded implements SymbolSource.
func (s *Source) Loaded() bool { return s.loaded.Load() }

// Close implements SymbolSource.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// CancelLoading asks any in-flight background loader to stop at its next
// opportunity - the polling points are unit-of-work boundaries (one
// symbol or DWARF entry, one line-table row), never mid-record, so a
// cancelled load leaves the indices in a consistent, if incomplete, state.
func (s *Source) CancelLoading() {
	s.cancelled.Store(true)
}

func (s *Source) cancelledFlag() bool {
	return s.cancelled.Load()
}

// runLoaders starts symbolLoad and lineLoad concurrently via an errgroup,
// waits for both, seals the indices, and marks the source loaded regardless
// of whether loading ran to completion or was cancelled early - a partial
// index is still a valid one to query.
func (s *Source) runLoaders(symbolLoad, lineLoad func() error) error {
	g := new(errgroup.Group)
	g.Go(symbolLoad)
	g.Go(lineLoad)

	err := g.Wait()

	s.symbols.Seal()
	s.lines.Seal()
	s.loaded.Store(true)

	return err
}

// demangleName is the small bridge between a raw mangled symbol name and
// the name the indices store - x64dbg shows undecorated names by default
// and keeps the mangled form only for exact round-tripping back to the
// provider. It returns "" rather than name itself whenever the undecorated
// form isn't actually distinct from the mangled one, so callers can tell
// "nothing to show beyond the name" from "this really demangled to the
// same text" without comparing strings themselves.
func demangleName(name string) string {
	res := demangle.Demangle(name, demangle.Complete)
	if !res.Demangled || res.Prototype == name {
		return ""
	}
	return res.Prototype
}
