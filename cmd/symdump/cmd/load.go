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
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blaquee/x64dbg/curated"
	"github.com/blaquee/x64dbg/pdbprovider"
	"github.com/blaquee/x64dbg/symsource"
)

var (
	format        string
	nameQuery     string
	addrQuery     string
	prefixQuery   string
	wantGUID      string
	wantAge       uint32
	caseSensitive bool
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a symbol file and optionally query it",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&format, "format", "auto", "symbol file format: auto, pdb, dwarf")
	loadCmd.Flags().StringVar(&nameQuery, "name", "", "look up a symbol by exact name")
	loadCmd.Flags().StringVar(&addrQuery, "addr", "", "look up a symbol and line by RVA (hex with 0x prefix, or decimal)")
	loadCmd.Flags().StringVar(&prefixQuery, "prefix", "", "list every symbol whose name starts with this prefix")
	loadCmd.Flags().StringVar(&wantGUID, "guid", "", "require this PDB GUID before loading")
	loadCmd.Flags().Uint32Var(&wantAge, "age", 0, "require this PDB age before loading")
	loadCmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match --name/--prefix with exact case instead of folding it")
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]

	kind := format
	if kind == "auto" {
		kind = detectFormat(path)
	}

	logrus.WithFields(logrus.Fields{"path": path, "format": kind}).Info("loading")

	src, err := openSource(path, kind)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := src.Wait(); err != nil {
		logrus.WithError(err).Warn("loading finished with errors; partial index may still be usable")
	}

	logrus.WithFields(logrus.Fields{
		"symbols": src.SymbolCount(),
		"lines":   src.LineCount(),
	}).Info("loaded")

	if nameQuery != "" {
		sym, ok := src.SymbolFromName(nameQuery, caseSensitive)
		if !ok {
			fmt.Printf("no symbol named %q\n", nameQuery)
		} else {
			printSymbol(sym, 0)
		}
	}

	if addrQuery != "" {
		rva, err := parseAddr(addrQuery)
		if err != nil {
			return err
		}

		sym, disp, ok := src.SymbolFromAddr(rva)
		if !ok {
			fmt.Printf("no symbol covers 0x%x\n", rva)
		} else {
			printSymbol(sym, disp)
		}

		if line, ok := src.LineFromAddr(rva); ok {
			fmt.Printf("line %d (source file index %d)\n", line.LineNumber, line.SourceFileIndex)
		}
	}

	if prefixQuery != "" {
		matches := src.Prefix(prefixQuery, caseSensitive)
		if len(matches) == 0 {
			fmt.Printf("no symbols match prefix %q\n", prefixQuery)
		}
		for _, sym := range matches {
			printSymbol(sym, 0)
		}
	}

	return nil
}

func openSource(path, kind string) (*symsource.Source, error) {
	switch kind {
	case "pdb":
		want := pdbprovider.Signature{GUID: wantGUID, Age: wantAge}
		return symsource.LoadPDB(path, want)
	case "dwarf":
		return symsource.LoadDWARF(path)
	default:
		return nil, curated.Errorf("symdump: unrecognised format %q", kind)
	}
}

func detectFormat(path string) string {
	if strings.EqualFold(strings.TrimPrefix(extOf(path), "."), "pdb") {
		return "pdb"
	}
	return "dwarf"
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

func parseAddr(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, curated.Errorf("symdump: invalid address %q: %v", s, err)
	}
	return uint32(v), nil
}

func printSymbol(sym *symsource.Symbol, disp int64) {
	name := sym.UndecoratedName
	if name == "" {
		name = sym.Name
	}
	if disp == 0 {
		fmt.Printf("%-9s %-30s rva=0x%x\n", sym.Kind, name, sym.RVA)
	} else {
		fmt.Printf("%-9s %-30s rva=0x%x +0x%x\n", sym.Kind, name, sym.RVA, disp)
	}
}
