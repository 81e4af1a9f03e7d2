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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blaquee/x64dbg/symbolenum"
)

func TestSourceQueriesAfterLoad(t *testing.T) {
	src := newSource()

	symbolLoad := func() error {
		src.symbols.add(&Symbol{Name: "main", RVA: 0x1000, Kind: Function})
		src.symbols.add(&Symbol{Name: "helper", RVA: 0x1100, Kind: Function})
		return nil
	}
	lineLoad := func() error {
		src.lines.add(Line{RVA: 0x1000, LineNumber: 10})
		src.lines.add(Line{RVA: 0x1010, LineNumber: 11})
		return nil
	}

	src.start(symbolLoad, lineLoad)
	require.NoError(t, src.Wait())
	require.True(t, src.Loaded())

	sym, ok := src.SymbolFromName("helper", true)
	require.True(t, ok)
	require.Equal(t, uint32(0x1100), sym.RVA)

	sym, ok = src.SymbolFromName("HELPER", false)
	require.True(t, ok)
	require.Equal(t, uint32(0x1100), sym.RVA)

	_, ok = src.SymbolFromName("HELPER", true)
	require.False(t, ok)

	sym, disp, ok := src.SymbolFromAddr(0x1050)
	require.True(t, ok)
	require.Equal(t, "main", sym.Name)
	require.Equal(t, int64(0x50), disp)

	sym, ok = src.SymbolExactAtAddr(0x1100)
	require.True(t, ok)
	require.Equal(t, "helper", sym.Name)

	_, ok = src.SymbolExactAtAddr(0x1050)
	require.False(t, ok)

	var names []string
	src.EnumSymbols(func(s *Symbol) bool {
		names = append(names, s.Name)
		return true
	})
	require.Equal(t, []string{"main", "helper"}, names)

	line, ok := src.LineFromAddr(0x1010)
	require.True(t, ok)
	require.Equal(t, 11, line.LineNumber)

	_, ok = src.LineFromAddr(0x2000)
	require.False(t, ok)
}

func TestSourcePropagatesLoaderError(t *testing.T) {
	src := newSource()

	wantErr := errors.New("boom")
	src.start(
		func() error { return wantErr },
		func() error { return nil },
	)

	err := src.Wait()
	require.ErrorIs(t, err, wantErr)
	require.True(t, src.Loaded())
}

func TestSourceCancelLoadingStopsEarly(t *testing.T) {
	src := newSource()

	var processed int
	symbolLoad := func() error {
		for i := 0; i < 1000; i++ {
			if src.cancelledFlag() {
				return nil
			}
			src.symbols.add(&Symbol{Name: "sym", RVA: uint32(i)})
			processed++
		}
		return nil
	}

	src.CancelLoading()
	src.start(symbolLoad, func() error { return nil })
	require.NoError(t, src.Wait())
	require.Less(t, processed, 1000)
}

func TestSourceCloseDelegatesToCloser(t *testing.T) {
	src := newSource()

	called := false
	src.closer = func() error {
		called = true
		return nil
	}

	require.NoError(t, src.Close())
	require.True(t, called)
}

func TestEmptySourceAlwaysMisses(t *testing.T) {
	empty := Empty()
	require.True(t, empty.Loaded())
	require.False(t, empty.IsOpen())
	require.False(t, empty.IsLoading())

	_, ok := empty.SymbolFromName("anything", true)
	require.False(t, ok)

	_, ok = empty.SymbolExactAtAddr(0)
	require.False(t, ok)

	_, _, ok = empty.SymbolFromAddr(0)
	require.False(t, ok)

	_, ok = empty.LineFromAddr(0)
	require.False(t, ok)

	require.Empty(t, empty.Prefix("x", true))
	empty.EnumSymbols(func(*Symbol) bool { t.Fatal("should not be called"); return false })
	empty.CancelLoading()

	require.NoError(t, empty.Close())
}

func TestSourceIsOpenBeforeLoadFinishes(t *testing.T) {
	src := newSource()
	require.False(t, src.IsOpen())
	require.False(t, src.IsLoading())

	src.opened.Store(true)
	require.True(t, src.IsOpen())
	require.True(t, src.IsLoading())

	src.start(func() error { return nil }, func() error { return nil })
	require.NoError(t, src.Wait())
	require.True(t, src.IsOpen())
	require.False(t, src.IsLoading())
}

func TestKindFromEnum(t *testing.T) {
	require.Equal(t, Block, kindFromEnum(symbolenum.Block))
	require.Equal(t, Function, kindFromEnum(symbolenum.Function))
	require.Equal(t, Unknown, kindFromEnum(symbolenum.Unknown))
}

func TestSourcePrefixFoldsCase(t *testing.T) {
	src := newSource()
	src.symbols.add(&Symbol{Name: "MainLoop", RVA: 0x1000, Kind: Function})
	src.symbols.add(&Symbol{Name: "mainHelper", RVA: 0x1100, Kind: Function})
	src.symbols.add(&Symbol{Name: "other", RVA: 0x1200, Kind: Function})
	src.symbols.Seal()

	matches := src.Prefix("main", false)
	require.Len(t, matches, 2)

	require.Empty(t, src.Prefix("main", true))
	require.Len(t, src.Prefix("Main", true), 1)
}

func TestDemangleNameEmptyWhenNotDistinct(t *testing.T) {
	// a name with no mangled form demangles to itself, so the undecorated
	// form carries nothing beyond what Name already says.
	require.Empty(t, demangleName("plain_c_name"))
}
