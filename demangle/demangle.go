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

// Package demangle turns MSVC-mangled ("?"-prefixed) symbol names into
// readable prototypes. The actual decoding is done by gopdb, which already
// carries its own demangler for use inside its PDB reader; this package
// wraps that engine and adds the flag-controlled suppression a debugger UI
// wants (drop the return type, drop calling convention keywords, name only)
// that gopdb's single canonical form doesn't offer by itself.
package demangle

import (
	"strings"

	"github.com/jtang613/gopdb/pkg/pdb"
)

// Flags controls how much of the demangled prototype Demangle returns.
type Flags uint32

const (
	// Complete returns the full prototype exactly as gopdb produced it.
	Complete Flags = 0
	// NoReturnType drops a leading return type from the prototype.
	NoReturnType Flags = 1 << 0
	// NoCallingConvention drops MSVC calling-convention keywords
	// (__cdecl, __stdcall, __thiscall, __fastcall, __vectorcall).
	NoCallingConvention Flags = 1 << 1
	// NameOnly returns just the undecorated symbol name, no parameter list.
	NameOnly Flags = 1 << 2
)

var callingConventions = []string{
	"__cdecl ", "__stdcall ", "__thiscall ", "__fastcall ", "__vectorcall ",
}

// Result is the outcome of demangling one name.
type Result struct {
	// Name is the undecorated symbol name with no parameter list.
	Name string
	// Prototype is the full undecorated prototype, subject to flags.
	Prototype string
	// Demangled reports whether name was recognised as a mangled name at
	// all; if false, Name and Prototype both equal the input unchanged.
	Demangled bool
}

// Demangle decodes name according to flags. Names that aren't recognised as
// mangled (anything not starting with '?', in the MSVC scheme) are returned
// unchanged with Demangled set to false.
func Demangle(name string, flags Flags) Result {
	full := pdb.DemangleFull(name)

	if full.Name == name {
		return Result{Name: name, Prototype: name, Demangled: false}
	}

	res := Result{Name: full.Name, Prototype: full.Prototype, Demangled: true}

	if flags&NameOnly != 0 {
		res.Prototype = full.Name
		return res
	}

	if flags&NoCallingConvention != 0 {
		res.Prototype = stripCallingConvention(res.Prototype)
	}

	if flags&NoReturnType != 0 {
		res.Prototype = stripReturnType(res.Prototype, full.Name)
	}

	return res
}

// stripCallingConvention removes a leading calling-convention keyword from a
// prototype string, e.g. "int __cdecl foo(void)" -> "int foo(void)".
func stripCallingConvention(prototype string) string {
	for _, cc := range callingConventions {
		if idx := strings.Index(prototype, cc); idx != -1 {
			return prototype[:idx] + prototype[idx+len(cc):]
		}
	}
	return prototype
}

// stripReturnType removes everything before the function name in a
// prototype, leaving "foo(void)" rather than "int foo(void)".
func stripReturnType(prototype, name string) string {
	idx := strings.Index(prototype, name)
	if idx <= 0 {
		return prototype
	}
	return prototype[idx:]
}
