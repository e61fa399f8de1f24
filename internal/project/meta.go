package project

import (
	"path"
	"path/filepath"
	"strings"

	"quill/internal/source"
)

// UnitMeta is what the import graph needs to know about a unit.
type UnitMeta struct {
	// Path is the slash-separated, cleaned file path; it keys the graph.
	Path    string
	Module  string
	Span    source.Span
	Imports []ImportMeta
	// ContentHash covers the unit text only.
	ContentHash Digest
	// UnitHash also covers the UnitHash of every import, in import order.
	UnitHash Digest
}

// ImportMeta is one `imports` entry, already resolved to a unit path.
type ImportMeta struct {
	Path string
	Span source.Span
}

// IsValidModuleIdent accepts identifiers joined by '.'.
func IsValidModuleIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			b := part[i]
			if b >= '0' && b <= '9' {
				if i == 0 {
					return false
				}
				continue
			}
			if !isIdentByte(b) {
				return false
			}
		}
	}
	return true
}

// ResolveImportPath resolves imp relative to the directory of the importing unit.
func ResolveImportPath(importer, imp string) string {
	imp = filepath.ToSlash(strings.TrimSpace(imp))
	if imp == "" {
		return ""
	}
	if path.IsAbs(imp) || filepath.IsAbs(imp) {
		return path.Clean(imp)
	}
	return path.Clean(path.Join(path.Dir(filepath.ToSlash(importer)), imp))
}
