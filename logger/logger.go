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

package logger

import "io"

// central is the process-wide log shared by every package that doesn't need
// its own private Logger instance.
var central = NewLogger(1000)

// Log records tag and detail in the central logger. Equivalent to
// central.Log(Allow, tag, detail).
func Log(tag string, detail any) {
	central.Log(Allow, tag, detail)
}

// Logf is the formatted counterpart of Log.
func Logf(tag string, format string, args ...any) {
	central.Logf(Allow, tag, format, args...)
}

// Write writes the entire central log to w.
func Write(w io.Writer) {
	central.Write(w)
}

// Tail writes the last n entries of the central log to w.
func Tail(w io.Writer, n int) {
	central.Tail(w, n)
}

// Clear empties the central log.
func Clear() {
	central.Clear()
}
