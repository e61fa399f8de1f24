package types

import (
	"fmt"
	"strings"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "unit"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return formatIntType(tt.Width, true)
	case KindUint:
		return formatIntType(tt.Width, false)
	case KindFloat:
		if tt.Width == WidthAny {
			return "float"
		}
		return fmt.Sprintf("f%d", tt.Width)
	case KindParam:
		if info, ok := typesIn.ParamInfo(id); ok {
			return info.Name
		}
	case KindFn:
		if info, ok := typesIn.FnInfo(id); ok {
			parts := make([]string, len(info.Params))
			for i, p := range info.Params {
				parts[i] = labelDepth(typesIn, p, depth+1)
			}
			return "fn(" + strings.Join(parts, ", ") + ") -> " + labelDepth(typesIn, info.Result, depth+1)
		}
	case KindClass:
		if info, ok := typesIn.ClassInfo(id); ok {
			return info.Name
		}
	case KindUnion:
		if info, ok := typesIn.UnionInfo(id); ok {
			return info.Name
		}
	}
	return "?"
}

func formatIntType(width Width, signed bool) string {
	prefix := "u"
	if signed {
		prefix = "i"
	}
	if width == WidthAny {
		if signed {
			return "int"
		}
		return "uint"
	}
	return fmt.Sprintf("%s%d", prefix, width)
}
