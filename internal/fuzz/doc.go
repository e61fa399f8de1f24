// Package fuzztests houses Go fuzz harnesses for the front end: lexing and
// parsing of function bodies, and the full resolve, check and lower pipeline
// over whole unit files. They guard against panics, hangs and invalid IR on
// arbitrary input.
package fuzztests
