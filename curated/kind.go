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

package curated

// Kind categorises a curated error for callers that want to branch on
// something coarser than a pattern string - a caller deciding whether to
// retry a provider, say, rather than match the exact message.
type Kind int

const (
	// KindNone is the zero value: either err is nil, not curated, or was
	// created without a Kind.
	KindNone Kind = iota
	KindProviderUnavailable
	KindFileNotFound
	KindMismatch
	KindObsoleteFormat
	KindOpenFailed
	KindBadRecord
	KindBadLine
	KindPEMalformed
)

func (k Kind) String() string {
	switch k {
	case KindProviderUnavailable:
		return "PROVIDER_UNAVAILABLE"
	case KindFileNotFound:
		return "FILE_NOT_FOUND"
	case KindMismatch:
		return "MISMATCH"
	case KindObsoleteFormat:
		return "OBSOLETE_FORMAT"
	case KindOpenFailed:
		return "OPEN_FAILED"
	case KindBadRecord:
		return "BAD_RECORD"
	case KindBadLine:
		return "BAD_LINE"
	case KindPEMalformed:
		return "PE_MALFORMED"
	default:
		return "NONE"
	}
}

// ErrorfKind is Errorf with a Kind attached. IsAny/Is/Has treat the result
// exactly as they would a plain Errorf error; Kind is additional, not a
// replacement for pattern matching.
func ErrorfKind(kind Kind, pattern string, values ...interface{}) error {
	return curated{
		pattern: pattern,
		values:  values,
		kind:    kind,
	}
}

// WithKind attaches a Kind to an existing curated error, returning err
// unchanged if it wasn't created by this package.
func WithKind(err error, kind Kind) error {
	c, ok := err.(curated)
	if !ok {
		return err
	}
	c.kind = kind
	return c
}

// KindOf returns the Kind attached to err, or KindNone if err is not a
// curated error or was created without one.
func KindOf(err error) Kind {
	c, ok := err.(curated)
	if !ok {
		return KindNone
	}
	return c.kind
}
