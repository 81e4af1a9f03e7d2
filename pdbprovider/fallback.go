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

package pdbprovider

import (
	"github.com/blaquee/x64dbg/curated"
	"github.com/blaquee/x64dbg/logger"
)

// Factory opens a PDB at path using one particular backend. The original
// x64dbg loader tried several DIA DLL versions in turn; a pure-Go build has
// only one real backend today (gopdb, via Open), but the ordered,
// first-success-wins contract is kept as a first-class, independently
// testable shape so a second backend slots in without restructuring
// callers.
type Factory func(path string) (*Provider, error)

// DefaultFactories is the provider order OpenWithFallback uses when the
// caller doesn't supply its own.
var DefaultFactories = []Factory{Open}

// OpenWithFallback tries each factory in order and returns the first
// success. Each failure is logged with its position in the list. If every
// factory fails, it returns a PROVIDER_UNAVAILABLE error carrying the last
// factory's error.
func OpenWithFallback(path string, factories []Factory) (*Provider, error) {
	if len(factories) == 0 {
		factories = DefaultFactories
	}

	var lastErr error
	for i, f := range factories {
		p, err := f(path)
		if err == nil {
			return p, nil
		}
		logger.Logf("pdbprovider", "provider %d/%d failed for %s: %v", i+1, len(factories), path, err)
		lastErr = err
	}

	return nil, curated.ErrorfKind(curated.KindProviderUnavailable, "pdbprovider: no provider could open %s: %v", path, lastErr)
}
