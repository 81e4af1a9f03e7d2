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
	"debug/dwarf"
	"io"
	"os"

	"github.com/blaquee/x64dbg/curated"
	"github.com/blaquee/x64dbg/dwarfpe"
	"github.com/blaquee/x64dbg/logger"
	"github.com/blaquee/x64dbg/pemodule"
)

// LoadDWARF reads the PE image at path, locates its embedded DWARF
// sections, and starts loading symbols and line numbers from it in the
// background. As with LoadPDB, the returned Source is usable immediately;
// Loaded reports when the walk has finished.
func LoadDWARF(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, curated.ErrorfKind(curated.KindOpenFailed, "symsource: reading %s: %v", path, err)
	}

	img, err := pemodule.Open(data)
	if err != nil {
		return nil, err
	}

	dw, err := dwarfpe.Load(img)
	if err != nil {
		return nil, err
	}

	src := newSource()
	src.closer = func() error { return nil }
	src.opened.Store(true)

	src.start(
		func() error { return src.loadDwarfSymbols(dw, img) },
		func() error { return src.loadDwarfLines(dw, img) },
	)

	return src, nil
}

// loadDwarfSymbols walks every subprogram and variable DIE reachable from
// dw's top-level compile units, converting each one's low-PC link address
// to an RVA against img's image base.
func (s *Source) loadDwarfSymbols(dw *dwarf.Data, img *pemodule.Image) error {
	r := dw.Reader()

	for {
		if s.cancelledFlag() {
			return nil
		}

		entry, err := r.Next()
		if err != nil {
			return curated.ErrorfKind(curated.KindBadRecord, "symsource: reading DWARF entry: %v", err)
		}
		if entry == nil {
			return nil
		}

		switch entry.Tag {
		case dwarf.TagSubprogram:
			s.addDwarfSymbol(entry, img, Function)
		case dwarf.TagVariable:
			s.addDwarfSymbol(entry, img, Data)
		}
	}
}

func (s *Source) addDwarfSymbol(entry *dwarf.Entry, img *pemodule.Image, kind Kind) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return
	}

	addr, ok := entry.Val(dwarf.AttrLowpc).(uint64)
	if !ok {
		return
	}

	base := img.ImageBase()
	var rva uint32
	if addr >= base {
		rva = uint32(addr - base)
	}

	s.symbols.add(&Symbol{
		VirtualAddress: addr,
		RVA:            rva,
		Name:           name,
		// DWARF names aren't mangled, so there's never a distinct
		// undecorated form - left empty per the same "equal to name means
		// empty" rule the PDB path applies after demangling.
		UndecoratedName: "",
		Kind:            kind,
		IsPublic:        kind == Function,
	})
}

// loadDwarfLines walks every compile unit's line program, the DWARF
// equivalent of a module's DEBUG_S_LINES subsection, and records one Line
// per row with IsStmt set - the same "statement boundary" filter a
// line-oriented debugger UI wants, rather than every instruction in the
// program.
func (s *Source) loadDwarfLines(dw *dwarf.Data, img *pemodule.Image) error {
	r := dw.Reader()
	base := img.ImageBase()

	fileIndices := make(map[string]int)
	nextFileIndex := func(name string) int {
		if i, ok := fileIndices[name]; ok {
			return i
		}
		i := len(fileIndices)
		fileIndices[name] = i
		return i
	}

	for {
		if s.cancelledFlag() {
			return nil
		}

		entry, err := r.Next()
		if err != nil {
			return curated.ErrorfKind(curated.KindBadLine, "symsource: reading DWARF entry: %v", err)
		}
		if entry == nil {
			return nil
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}

		lr, err := dw.LineReader(entry)
		if err != nil {
			logger.Logf("symsource", "compile unit has no usable line program: %v", err)
			continue
		}
		if lr == nil {
			continue
		}

		var line dwarf.LineEntry
		for {
			if s.cancelledFlag() {
				return nil
			}

			err := lr.Next(&line)
			if err == io.EOF {
				break
			}
			if err != nil {
				return curated.ErrorfKind(curated.KindBadLine, "symsource: reading DWARF line program: %v", err)
			}
			if !line.IsStmt || uint64(line.Address) < base {
				continue
			}

			name := ""
			if line.File != nil {
				name = line.File.Name
			}

			s.lines.add(Line{
				RVA:             uint32(uint64(line.Address) - base),
				LineNumber:      line.Line,
				SourceFileIndex: nextFileIndex(name),
			})
		}
	}
}
