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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	require.Equal(t, "pdb", detectFormat("module.pdb"))
	require.Equal(t, "pdb", detectFormat("MODULE.PDB"))
	require.Equal(t, "dwarf", detectFormat("module.exe"))
	require.Equal(t, "dwarf", detectFormat("module"))
}

func TestParseAddr(t *testing.T) {
	v, err := parseAddr("0x1000")
	require.NoError(t, err)
	require.Equal(t, uint32(0x1000), v)

	v, err = parseAddr("4096")
	require.NoError(t, err)
	require.Equal(t, uint32(4096), v)

	_, err = parseAddr("not-a-number")
	require.Error(t, err)
}
