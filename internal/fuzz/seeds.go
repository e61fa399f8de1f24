package fuzztests

import "testing"

const maxFuzzInput = 1 << 16

var bodySeeds = []string{
	``,
	`0`,
	`o matches Opt::Some(var x) && x == 1`,
	`match o { Opt::None => 0, Opt::Some(var x) => x }`,
	`match o { Opt::Some(_) as w => w, _ => o }`,
	`if p.b { 1 } else { 2 }`,
	`new Pair { a: 1, b: true }`,
	`new Opt::Some(1)`,
	`match n { 0 => 1, -1 => 2, _ => 3 }`,
	`match s { "a" => 1, _ => 2 }`,
	`match o { var x: Opt => 1 }`,
	`match (o) { Opt::Named { x: var y } => y, }`,
	`match o {`,
	`match o { Opt:: => }`,
	`"unterminated`,
	`new Opt::Some(`,
	`((((((((((1))))))))))`,
}

const unitPrelude = `module = "main"

[[class]]
name = "Pair"
fields = [{ name = "a", type = "int" }, { name = "b", type = "bool" }]

[[union]]
name = "Opt"

[[union.variant]]
name = "None"

[[union.variant]]
name = "Some"
items = ["int"]

[[union.variant]]
name = "Named"
fields = [{ name = "x", type = "int" }]
`

// unitSeed wraps body into a unit with parameters o: Opt, p: Pair, n: uint.
func unitSeed(result, body string) string {
	return unitPrelude + `
[[func]]
name = "f"
params = [{ name = "o", type = "Opt" }, { name = "p", type = "Pair" }, { name = "n", type = "uint" }]
result = "` + result + `"
body = '''` + body + `'''
`
}

var unitSeeds = []string{
	unitSeed("int", `match o { Opt::None => 0, Opt::Some(var x) => x, Opt::Named { x: var y } => y }`),
	unitSeed("int", `match o { Opt::None => 0 }`),
	unitSeed("int", `match p { Pair { a: 1, b: true } => 1, Pair { b: false } => 2, _ => 3 }`),
	unitSeed("bool", `o matches Opt::Some(var x) && x == 1`),
	unitSeed("int", `if o matches Opt::Some(var x) { x } else { 0 }`),
	unitSeed("int", `match n { 0 => 1, 1 => 2, _ => 3 }`),
	unitSeed("Opt", `match o { Opt::Some(_) as w => w, _ => new Opt::None }`),
	unitSeed("int", `match o { _ => 0, Opt::None => 1 }`),
	unitPrelude,
	`module = "m"`,
	``,
}

func addBodySeeds(f *testing.F) {
	for _, s := range bodySeeds {
		f.Add([]byte(s))
	}
}

func addUnitSeeds(f *testing.F) {
	for _, s := range unitSeeds {
		f.Add([]byte(s))
	}
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
