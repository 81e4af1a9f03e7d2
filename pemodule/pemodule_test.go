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

package pemodule_test

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blaquee/x64dbg/pemodule"
)

// buildImage constructs a minimal, valid PE32 image in memory with two
// sections, laid out at their virtual addresses as a debugger would see them
// once mapped.
func buildImage(t *testing.T) []byte {
	t.Helper()

	const lfanew = 0x80
	const imageSize = 0x2000

	buf := make([]byte, imageSize)
	binary.LittleEndian.PutUint16(buf[0:], 0x5a4d) // "MZ"
	binary.LittleEndian.PutUint32(buf[0x3c:], lfanew)

	w := bytes.NewBuffer(nil)
	binary.Write(w, binary.LittleEndian, uint32(0x00004550)) // "PE\0\0"

	fh := pe.FileHeader{
		Machine:              0x8664,
		NumberOfSections:     2,
		SizeOfOptionalHeader: 224,
		Characteristics:      0x0002,
	}
	binary.Write(w, binary.LittleEndian, fh)

	oh := pe.OptionalHeader32{
		Magic:     0x10b,
		ImageBase: 0x00400000,
	}
	binary.Write(w, binary.LittleEndian, oh)

	var text pe.SectionHeader32
	copy(text.Name[:], ".text")
	text.VirtualAddress = 0x1000
	text.VirtualSize = 0x100
	binary.Write(w, binary.LittleEndian, text)

	var data pe.SectionHeader32
	copy(data.Name[:], ".data")
	data.VirtualAddress = 0x1200
	data.VirtualSize = 0x40
	binary.Write(w, binary.LittleEndian, data)

	copy(buf[lfanew:], w.Bytes())

	return buf
}

func TestOpenBasicSections(t *testing.T) {
	data := buildImage(t)

	img, err := pemodule.Open(data)
	require.NoError(t, err)
	require.Equal(t, uint64(0x00400000), img.ImageBase())
	require.False(t, img.Is64Bit())
	require.Equal(t, 4, img.PointerSize())

	text := img.Section(".text")
	require.NotNil(t, text)
	require.Equal(t, uint32(0x1000), text.VirtualAddress)

	require.NotNil(t, img.Section(".data"))
}

func TestSectionContainingRVA(t *testing.T) {
	data := buildImage(t)
	img, err := pemodule.Open(data)
	require.NoError(t, err)

	s := img.SectionContainingRVA(0x1050)
	require.NotNil(t, s)
	require.Equal(t, ".text", s.Name)

	require.Nil(t, img.SectionContainingRVA(0xffff))
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := pemodule.Open([]byte("not a pe file"))
	require.Error(t, err)
}
