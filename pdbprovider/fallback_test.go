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

package pdbprovider_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blaquee/x64dbg/pdbprovider"
)

func TestOpenWithFallbackUsesFirstSuccess(t *testing.T) {
	var attempted []int

	factories := []pdbprovider.Factory{
		func(path string) (*pdbprovider.Provider, error) {
			attempted = append(attempted, 0)
			return nil, errors.New("first backend refuses")
		},
		func(path string) (*pdbprovider.Provider, error) {
			attempted = append(attempted, 1)
			return &pdbprovider.Provider{}, nil
		},
		func(path string) (*pdbprovider.Provider, error) {
			attempted = append(attempted, 2)
			return &pdbprovider.Provider{}, nil
		},
	}

	p, err := pdbprovider.OpenWithFallback("whatever.pdb", factories)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, []int{0, 1}, attempted)
}

func TestOpenWithFallbackAllFail(t *testing.T) {
	factories := []pdbprovider.Factory{
		func(path string) (*pdbprovider.Provider, error) {
			return nil, errors.New("nope")
		},
		func(path string) (*pdbprovider.Provider, error) {
			return nil, errors.New("still nope")
		},
	}

	_, err := pdbprovider.OpenWithFallback("whatever.pdb", factories)
	require.Error(t, err)
}
