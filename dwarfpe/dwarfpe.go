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

// Package dwarfpe builds a *dwarf.Data out of the DWARF sections of a PE
// image produced by mingw/clang toolchains (gcc-style ".debug_*" sections
// embedded directly in a PE, rather than carried in a separate DWARF
// container). debug/pe has no convenience method for this the way
// debug/elf.File.DWARF() does for ELF binaries, because DWARF-in-PE isn't a
// format debug/pe was written to know about - this package is the bridge.
package dwarfpe

import (
	"debug/dwarf"

	"github.com/blaquee/x64dbg/curated"
	"github.com/blaquee/x64dbg/logger"
	"github.com/blaquee/x64dbg/pemodule"
)

// names of the DWARF sections we try to resolve, in the order dwarf.New
// expects its byte-slice arguments.
var requiredSections = []string{
	".debug_abbrev",
	".debug_info",
	".debug_line",
	".debug_str",
}

var optionalSections = []string{
	".debug_aranges",
	".debug_frame",
	".debug_pubnames",
	".debug_ranges",
}

// Load resolves the standard DWARF sections against img and constructs a
// dwarf.Data from them. A missing optional section is passed through as a
// nil slice, which debug/dwarf treats as absent; a missing required section
// is reported as a MISMATCH error, since debug/dwarf.New cannot proceed
// without it.
func Load(img *pemodule.Image) (*dwarf.Data, error) {
	sections := make(map[string][]byte, len(requiredSections)+len(optionalSections))

	for _, name := range requiredSections {
		data, ok := sectionBytes(img, name)
		if !ok {
			return nil, curated.ErrorfKind(curated.KindMismatch, "dwarfpe: missing required section %s", name)
		}
		sections[name] = data
	}

	for _, name := range optionalSections {
		if data, ok := sectionBytes(img, name); ok {
			sections[name] = data
		} else {
			logger.Logf("dwarfpe", "optional section %s not present", name)
		}
	}

	data, err := dwarf.New(
		sections[".debug_abbrev"],
		sections[".debug_aranges"],
		sections[".debug_frame"],
		sections[".debug_info"],
		sections[".debug_line"],
		sections[".debug_pubnames"],
		sections[".debug_ranges"],
		sections[".debug_str"],
	)
	if err != nil {
		return nil, curated.ErrorfKind(curated.KindBadRecord, "dwarfpe: constructing DWARF data: %v", err)
	}

	return data, nil
}

// sectionBytes returns a section's payload as it sits in the on-disk file
// img was read from - Load's caller hands it a file's raw bytes, not an
// already-mapped image, so section data must be addressed by
// PointerToRawData/SizeOfRawData rather than by VirtualAddress/VirtualSize;
// the latter would read whatever file bytes happen to sit at that offset,
// which is only ever correct by coincidence. The payload is clamped to
// min(VirtualSize, SizeOfRawData), dropping the file-alignment padding that
// SizeOfRawData includes.
func sectionBytes(img *pemodule.Image, name string) ([]byte, bool) {
	sec := img.Section(name)
	if sec == nil {
		return nil, false
	}
	data := img.SectionFileData(sec)
	if data == nil {
		return nil, false
	}
	if int(sec.VirtualSize) < len(data) {
		data = data[:sec.VirtualSize]
	}
	return data, true
}
