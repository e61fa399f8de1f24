package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// lexical, reported by the body scanner
	LexInfo                Code = 1000
	LexUnknownChar         Code = 1001
	LexUnterminatedString  Code = 1002
	LexBadNumber           Code = 1003
	LexBadEscape           Code = 1004
	LexUnterminatedComment Code = 1005

	// syntax
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynUnclosedDelimiter Code = 2002
	SynExpectIdentifier  Code = 2003
	SynExpectExpression  Code = 2004
	SynExpectPattern     Code = 2005
	SynExpectType        Code = 2006
	SynExpectFatArrow    Code = 2007
	SynTrailingInput     Code = 2008
	SynMixedFieldStyle   Code = 2009

	// semantic
	SemaInfo                  Code = 3000
	SemaError                 Code = 3001
	SemaDuplicateSymbol       Code = 3002
	SemaUnresolvedSymbol      Code = 3003
	SemaUnknownType           Code = 3004
	SemaUnknownVariant        Code = 3005
	SemaUnknownField          Code = 3006
	SemaDuplicateField        Code = 3007
	SemaMissingField          Code = 3008
	SemaArityMismatch         Code = 3009
	SemaTypeMismatch          Code = 3010
	SemaInvalidBinaryOperands Code = 3011
	SemaInvalidBoolContext    Code = 3012
	SemaPatternTypeMismatch   Code = 3013
	SemaPrivateField          Code = 3014
	SemaPrivateVariant        Code = 3015
	SemaDuplicateBinding      Code = 3016
	SemaNotAClass             Code = 3017
	SemaNotAUnion             Code = 3018
	SemaBadLiteralPattern     Code = 3019
	SemaNonexhaustiveMatch    Code = 3050
	SemaRedundantArm          Code = 3051
	SemaMatchTooComplex       Code = 3052
	SemaUnreachablePattern    Code = 3053

	// I/O
	IOLoadFileError Code = 4001

	// project units and manifest
	ProjInfo             Code = 5000
	ProjInvalidUnit      Code = 5001
	ProjMissingModule    Code = 5003
	ProjUnknownFormat    Code = 5005
	ProjDuplicateModule  Code = 5006
	ProjSelfImport       Code = 5007
	ProjImportCycle      Code = 5008
	ProjDependencyFailed Code = 5010
)

var codeDescription = map[Code]string{
	UnknownCode:               "Unknown error",
	LexInfo:                   "Lexical information",
	LexUnknownChar:            "Unknown character",
	LexUnterminatedString:     "Unterminated string literal",
	LexBadNumber:              "Malformed number literal",
	LexUnterminatedComment:    "Unterminated block comment",
	LexBadEscape:              "Invalid escape sequence",
	SynInfo:                   "Syntax information",
	SynUnexpectedToken:        "Unexpected token",
	SynUnclosedDelimiter:      "Unclosed delimiter",
	SynExpectIdentifier:       "Expected identifier",
	SynExpectExpression:       "Expected expression",
	SynExpectPattern:          "Expected pattern",
	SynExpectType:             "Expected type",
	SynExpectFatArrow:         "Expected '=>' after match pattern",
	SynTrailingInput:          "Unexpected input after expression",
	SynMixedFieldStyle:        "Positional and named fields cannot be mixed",
	SemaInfo:                  "Semantic information",
	SemaError:                 "Semantic error",
	SemaDuplicateSymbol:       "Duplicate symbol",
	SemaUnresolvedSymbol:      "Unresolved symbol",
	SemaUnknownType:           "Unknown type",
	SemaUnknownVariant:        "Unknown variant",
	SemaUnknownField:          "Unknown field",
	SemaDuplicateField:        "Field listed more than once",
	SemaMissingField:          "Missing field in constructor",
	SemaArityMismatch:         "Wrong number of fields",
	SemaTypeMismatch:          "Type mismatch",
	SemaInvalidBinaryOperands: "Invalid operands for binary operator",
	SemaInvalidBoolContext:    "Condition is not a bool",
	SemaPatternTypeMismatch:   "Pattern does not match the scrutinee type",
	SemaPrivateField:          "Field is private to its module",
	SemaPrivateVariant:        "Variant is private to its module",
	SemaDuplicateBinding:      "Variable bound more than once in a pattern",
	SemaNotAClass:             "Type is not a class",
	SemaNotAUnion:             "Type is not a union",
	SemaBadLiteralPattern:     "Literal pattern of the wrong type",
	SemaNonexhaustiveMatch:    "Non-exhaustive match",
	SemaRedundantArm:          "Unreachable match arm",
	SemaMatchTooComplex:       "Match is too complex to analyze",
	SemaUnreachablePattern:    "Unreachable sub-pattern",
	IOLoadFileError:           "I/O load file error",
	ProjInfo:                  "Project information",
	ProjInvalidUnit:           "Invalid program unit",
	ProjMissingModule:         "Imported unit not found",
	ProjUnknownFormat:         "Unknown unit file format",
	ProjDuplicateModule:       "Unit loaded twice",
	ProjSelfImport:            "Unit imports itself",
	ProjImportCycle:           "Import cycle detected",
	ProjDependencyFailed:      "Imported unit has errors",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
