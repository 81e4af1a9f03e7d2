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

package dwarfpe_test

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blaquee/x64dbg/dwarfpe"
	"github.com/blaquee/x64dbg/pemodule"
)

// buildImageWithSections lays out a minimal PE32 image whose section table
// carries exactly the named sections, each zero length, at increasing RVAs.
func buildImageWithSections(t *testing.T, names []string) []byte {
	t.Helper()

	const lfanew = 0x80
	const imageSize = 0x4000

	buf := make([]byte, imageSize)
	binary.LittleEndian.PutUint16(buf[0:], 0x5a4d)
	binary.LittleEndian.PutUint32(buf[0x3c:], lfanew)

	w := bytes.NewBuffer(nil)
	binary.Write(w, binary.LittleEndian, uint32(0x00004550))

	fh := pe.FileHeader{
		Machine:              0x8664,
		NumberOfSections:     uint16(len(names)),
		SizeOfOptionalHeader: 224,
	}
	binary.Write(w, binary.LittleEndian, fh)

	oh := pe.OptionalHeader32{Magic: 0x10b, ImageBase: 0x00400000}
	binary.Write(w, binary.LittleEndian, oh)

	rva := uint32(0x1000)
	for _, name := range names {
		var sh pe.SectionHeader32
		copy(sh.Name[:], name)
		sh.VirtualAddress = rva
		sh.VirtualSize = 0
		binary.Write(w, binary.LittleEndian, sh)
		rva += 0x1000
	}

	copy(buf[lfanew:], w.Bytes())
	return buf
}

func TestLoadAllSectionsPresentButEmpty(t *testing.T) {
	names := []string{".debug_abbrev", ".debug_info", ".debug_line", ".debug_str"}
	data := buildImageWithSections(t, names)

	img, err := pemodule.Open(data)
	require.NoError(t, err)

	dw, err := dwarfpe.Load(img)
	require.NoError(t, err)
	require.NotNil(t, dw)
}

func TestLoadMissingRequiredSection(t *testing.T) {
	names := []string{".debug_abbrev", ".debug_info", ".debug_str"} // no .debug_line
	data := buildImageWithSections(t, names)

	img, err := pemodule.Open(data)
	require.NoError(t, err)

	_, err = dwarfpe.Load(img)
	require.Error(t, err)
}
