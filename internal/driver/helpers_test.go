package driver

import (
	"os"
	"path/filepath"
	"testing"
)

const libUnit = `module = "lib"

[[union]]
name = "Opt"

[[union.variant]]
name = "None"

[[union.variant]]
name = "Some"
items = ["int"]
`

const mainUnit = `module = "main"
imports = ["lib.toml"]

[[func]]
name = "get"
params = [{ name = "o", type = "Opt" }]
result = "int"
body = '''match o { Opt::None => 0, Opt::Some(var x) => x }'''

[[func]]
name = "is_some"
params = [{ name = "o", type = "Opt" }]
result = "bool"
body = '''o matches Opt::Some(_)'''
`

const partialUnit = `module = "partial"
imports = ["lib.toml"]

[[func]]
name = "get"
params = [{ name = "o", type = "Opt" }]
result = "int"
body = '''match o { Opt::None => 0 }'''
`

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	return filepath.ToSlash(path)
}

// writeProject lays out lib.toml plus the given entry units in a temp dir.
func writeProject(t *testing.T, units map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "lib.toml", libUnit)
	for name, text := range units {
		writeFile(t, dir, name, text)
	}
	return dir
}
