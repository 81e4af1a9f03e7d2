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

package symbolenum_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blaquee/x64dbg/symbolenum"
)

func TestIsRelocatedRejectsZero(t *testing.T) {
	require.False(t, symbolenum.IsRelocated(0, 0))
	require.False(t, symbolenum.IsRelocated(0, 0x1000))
}

func TestIsRelocatedRejectsUnchangedOffset(t *testing.T) {
	// a provider that failed to relocate a record leaves its virtual
	// address equal to the raw offset it started from.
	require.False(t, symbolenum.IsRelocated(0x2000, 0x2000))
}

func TestIsRelocatedAcceptsDistinctAddress(t *testing.T) {
	require.True(t, symbolenum.IsRelocated(0x401000, 0x1000))
}
