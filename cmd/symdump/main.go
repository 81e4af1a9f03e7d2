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

// Command symdump loads a PDB or a DWARF-in-PE image and answers the same
// address/name queries the rest of this module's packages were built to
// serve, without a debugger UI wrapped around them.
package main

import "github.com/blaquee/x64dbg/cmd/symdump/cmd"

func main() {
	cmd.Execute()
}
