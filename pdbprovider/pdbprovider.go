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

// Package pdbprovider opens a PDB symbol file and validates it against the
// module it claims to describe, playing the role x64dbg's DIA-backed
// provider plays but over a pure-Go MSF/CodeView reader (gopdb) instead of
// Microsoft's msdia DLL. There is, correspondingly, no DLL to load - Init
// and Shutdown exist anyway so the process-wide "is a provider backend
// ready" gate has somewhere to live once a second backend is added.
package pdbprovider

import (
	"sync/atomic"

	"github.com/jtang613/gopdb/pkg/pdb"

	"github.com/blaquee/x64dbg/curated"
	"github.com/blaquee/x64dbg/logger"
)

var initialised atomic.Bool

// Init prepares the provider backend for use. It is idempotent: calling it
// more than once without an intervening Shutdown is a no-op.
func Init() error {
	initialised.Store(true)
	return nil
}

// Shutdown releases anything Init acquired. Idempotent, like Init.
func Shutdown() {
	initialised.Store(false)
}

// Signature identifies a PDB against the module it was built for: age plus
// either a GUID (PDB 7.0) or a plain signature (the older PDB 2.0 scheme
// identified only by a 32-bit timestamp, superseded but still seen).
type Signature struct {
	GUID      string
	Signature uint32
	Age       uint32
}

// Provider wraps one opened PDB file.
type Provider struct {
	pdb  *pdb.PDB
	path string
}

// Open parses the MSF container, PDB-info, DBI and TPI streams of the file
// at path. It does not validate the result against a module; call Validate
// for that once a Signature to compare against is known.
func Open(path string) (*Provider, error) {
	if !initialised.Load() {
		return nil, curated.ErrorfKind(curated.KindProviderUnavailable, "pdbprovider: Init not called")
	}

	p, err := pdb.Open(path)
	if err != nil {
		logger.Logf("pdbprovider", "open %s failed: %v", path, err)
		return nil, curated.ErrorfKind(curated.KindOpenFailed, "pdbprovider: opening %s: %v", path, err)
	}

	logger.Logf("pdbprovider", "opened %s", path)
	return &Provider{pdb: p, path: path}, nil
}

// Close releases the underlying MSF file handle.
func (p *Provider) Close() error {
	if p == nil || p.pdb == nil {
		return nil
	}
	return p.pdb.Close()
}

// Signature returns the identity this PDB carries, read from its PDB-info
// stream. The legacy PDB 2.0 Signature (the 32-bit creation timestamp that
// scheme used in place of a GUID) is not part of it: gopdb's public Info()
// never surfaces that field, only GUID/Age/Version, so Signature is always
// zero here. Validate treats a caller asking for a non-zero want.Signature
// as a request this provider cannot satisfy, rather than reporting it as a
// mismatch against an always-zero value.
func (p *Provider) Signature() Signature {
	info := p.pdb.Info()
	return Signature{GUID: info.GUID, Age: info.Age}
}

// Validate compares want against the PDB's own signature. A non-zero
// want.Signature (an old-style PDB 2.0 identity) is rejected up front with
// OBSOLETE_FORMAT, since this provider cannot read one (see Signature).
// Otherwise GUID is compared before age, short-circuiting on the first
// mismatch; an empty GUID or zero age in want is not checked.
func Validate(p *Provider, want Signature) error {
	if want.Signature != 0 {
		return curated.ErrorfKind(curated.KindObsoleteFormat, "pdbprovider: legacy PDB 2.0 signature validation requested but not supported by this provider")
	}

	got := p.Signature()

	if want.GUID != "" && want.GUID != got.GUID {
		return curated.ErrorfKind(curated.KindMismatch, "pdbprovider: GUID mismatch: want %s, got %s", want.GUID, got.GUID)
	}

	if want.Age != 0 && want.Age != got.Age {
		return curated.ErrorfKind(curated.KindMismatch, "pdbprovider: age mismatch: want %d, got %d", want.Age, got.Age)
	}

	return nil
}

// Functions, Variables and PublicSymbols expose gopdb's flat symbol lists -
// every procedure, data item and public symbol reachable either from the
// global symbol stream or from any module's own per-compiland stream, with
// demangled names already resolved. They carry no block/label nesting -
// gopdb's own CodeView reader never parses S_BLOCK32/S_LABEL32, and exposes
// no raw per-module bytes a caller could walk by hand either, so
// symbolenum.Walk's enumeration is flat by necessity.
func (p *Provider) Functions() []pdb.Function { return p.pdb.Functions() }
func (p *Provider) Variables() []pdb.Variable { return p.pdb.Variables() }
func (p *Provider) PublicSymbols() []pdb.PublicSymbol { return p.pdb.PublicSymbols() }
func (p *Provider) Modules() []pdb.ModuleInfo { return p.pdb.Modules() }
func (p *Provider) Sections() []pdb.SectionInfo { return p.pdb.Sections() }

// SegmentToRVA converts a 1-based segment:offset pair to an RVA using the
// PDB's own section map.
func (p *Provider) SegmentToRVA(segment uint16, offset uint32) uint32 {
	return p.pdb.SegmentToRVA(segment, offset)
}

// ResolveType resolves a TPI type index to a human-readable description.
func (p *Provider) ResolveType(index uint32) *pdb.TypeInfo {
	return p.pdb.ResolveType(index)
}

// Path is the file this provider was opened from.
func (p *Provider) Path() string { return p.path }
