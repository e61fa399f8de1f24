package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"quill/internal/source"
)

var (
	// ErrUnknownFormat is returned for unit files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("unknown unit format")
	// ErrModuleMissing indicates a unit without a module name.
	ErrModuleMissing = errors.New("missing module")
	// ErrInvalidModuleName indicates a module name that is not an identifier path.
	ErrInvalidModuleName = errors.New("invalid module name")
)

// Format is the on-disk encoding of a unit.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatOf picks the decoder by file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Unit is one program unit: declarations plus function bodies in surface syntax.
type Unit struct {
	Module  string      `toml:"module" yaml:"module"`
	Imports []string    `toml:"imports" yaml:"imports"`
	Classes []ClassDecl `toml:"class" yaml:"class"`
	Unions  []UnionDecl `toml:"union" yaml:"union"`
	Funcs   []FuncDecl  `toml:"func" yaml:"func"`
}

type FieldDecl struct {
	Name    string `toml:"name" yaml:"name"`
	Type    string `toml:"type" yaml:"type"`
	Private bool   `toml:"private" yaml:"private"`
}

type ClassDecl struct {
	Name string `toml:"name" yaml:"name"`
	// Module overrides the unit module for this declaration.
	Module string      `toml:"module" yaml:"module"`
	Fields []FieldDecl `toml:"fields" yaml:"fields"`
}

type UnionDecl struct {
	Name     string        `toml:"name" yaml:"name"`
	Module   string        `toml:"module" yaml:"module"`
	Open     bool          `toml:"open" yaml:"open"`
	Variants []VariantDecl `toml:"variant" yaml:"variant"`
}

// VariantDecl is a unit variant when both Items and Fields are empty,
// a tuple variant with Items, and a class-like variant with Fields.
type VariantDecl struct {
	Name    string      `toml:"name" yaml:"name"`
	Items   []string    `toml:"items" yaml:"items"`
	Fields  []FieldDecl `toml:"fields" yaml:"fields"`
	Private bool        `toml:"private" yaml:"private"`
	Hidden  bool        `toml:"hidden" yaml:"hidden"`
}

type ParamDecl struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
}

type FuncDecl struct {
	Name     string      `toml:"name" yaml:"name"`
	Generics []string    `toml:"generics" yaml:"generics"`
	Params   []ParamDecl `toml:"params" yaml:"params"`
	Result   string      `toml:"result" yaml:"result"`
	Body     string      `toml:"body" yaml:"body"`
}

// LoadedUnit is a decoded unit bound to its source file.
type LoadedUnit struct {
	Path   string
	File   source.FileID
	Format Format
	Unit   Unit
	Meta   UnitMeta
}

// DecodeUnit decodes data according to format. path only decorates errors.
func DecodeUnit(path string, format Format, data []byte) (Unit, error) {
	var u Unit
	switch format {
	case FormatTOML:
		meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&u)
		if err != nil {
			return Unit{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Unit{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&u); err != nil && !errors.Is(err, io.EOF) {
			return Unit{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Unit{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err := u.validate(path); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// LoadUnit reads path through fs and decodes it.
func LoadUnit(fs *source.FileSet, path string) (*LoadedUnit, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file := fs.Get(id)
	u, err := DecodeUnit(path, format, file.Content)
	if err != nil {
		return &LoadedUnit{Path: file.Path, File: id, Format: format}, err
	}
	lu := &LoadedUnit{Path: file.Path, File: id, Format: format, Unit: u}
	lu.Meta = UnitMeta{
		Path:        file.Path,
		Module:      u.Module,
		Span:        lu.DeclSpan(file, "module", u.Module),
		ContentHash: file.Hash,
	}
	for _, imp := range u.Imports {
		lu.Meta.Imports = append(lu.Meta.Imports, ImportMeta{
			Path: ResolveImportPath(file.Path, imp),
			Span: lu.DeclSpan(file, "", imp),
		})
	}
	return lu, nil
}

func (u *Unit) validate(path string) error {
	u.Module = strings.TrimSpace(u.Module)
	if u.Module == "" {
		return fmt.Errorf("%s: %w", path, ErrModuleMissing)
	}
	if !IsValidModuleIdent(u.Module) {
		return fmt.Errorf("%s: %w %q", path, ErrInvalidModuleName, u.Module)
	}
	for i, c := range u.Classes {
		if c.Name == "" {
			return fmt.Errorf("%s: class[%d]: name is required", path, i)
		}
		for j, f := range c.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("%s: class %s: fields[%d]: name and type are required", path, c.Name, j)
			}
		}
	}
	for i, un := range u.Unions {
		if un.Name == "" {
			return fmt.Errorf("%s: union[%d]: name is required", path, i)
		}
		for j, v := range un.Variants {
			if v.Name == "" {
				return fmt.Errorf("%s: union %s: variant[%d]: name is required", path, un.Name, j)
			}
			if len(v.Items) > 0 && len(v.Fields) > 0 {
				return fmt.Errorf("%s: union %s: variant %s: items and fields are mutually exclusive", path, un.Name, v.Name)
			}
		}
	}
	for i, fn := range u.Funcs {
		if fn.Name == "" {
			return fmt.Errorf("%s: func[%d]: name is required", path, i)
		}
		if fn.Result == "" {
			return fmt.Errorf("%s: func %s: result is required", path, fn.Name)
		}
	}
	return nil
}

// DeclSpan finds where name is written in the unit text. When key is not
// empty, an occurrence following `key =` or `key:` wins. Decoders drop
// positions, so this is a textual search; the zero-width span at the file
// start is returned when nothing matches.
func (lu *LoadedUnit) DeclSpan(file *source.File, key, name string) source.Span {
	fallback := source.Span{File: lu.File}
	if file == nil || name == "" {
		return fallback
	}
	text := string(file.Content)
	first := -1
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], name)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(name)
		from = end
		if !isWordBoundary(text, start, end) {
			continue
		}
		if first < 0 {
			first = start
		}
		if key == "" || precededByKey(text[:start], key) {
			return spanOf(lu.File, start, end)
		}
	}
	if first >= 0 {
		return spanOf(lu.File, first, first+len(name))
	}
	return fallback
}

// BodyOffset returns the byte offset of body inside the unit text, or -1.
func BodyOffset(file *source.File, body string) int {
	if file == nil || body == "" {
		return -1
	}
	return strings.Index(string(file.Content), body)
}

func spanOf(file source.FileID, start, end int) source.Span {
	return source.Span{File: file, Start: uint32(start), End: uint32(end)} //nolint:gosec // file sizes fit in uint32
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isIdentByte(text[start-1]) {
		return false
	}
	if end < len(text) && isIdentByte(text[end]) {
		return false
	}
	return true
}

func precededByKey(prefix, key string) bool {
	prefix = strings.TrimRight(prefix, " \t\"'")
	if !strings.HasSuffix(prefix, "=") && !strings.HasSuffix(prefix, ":") {
		return false
	}
	prefix = strings.TrimRight(prefix[:len(prefix)-1], " \t")
	return strings.HasSuffix(prefix, key)
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
