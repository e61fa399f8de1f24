package types

import "slices"

// ParamInfo names a generic placeholder.
type ParamInfo struct {
	Name  string
	Owner string
}

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// RegisterParam mints a generic placeholder owned by a function.
func (in *Interner) RegisterParam(name, owner string) TypeID {
	slot := appendSlot(&in.params, ParamInfo{Name: name, Owner: owner}, "param")
	return in.internRaw(Type{Kind: KindParam, Payload: slot})
}

// ParamInfo returns metadata for a generic placeholder.
func (in *Interner) ParamInfo(id TypeID) (*ParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindParam || tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return nil, false
	}
	return &in.params[tt.Payload], true
}

// RegisterFn creates or finds a function type.
func (in *Interner) RegisterFn(params []TypeID, result TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindFn || int(tt.Payload) >= len(in.fns) {
			continue
		}
		info := in.fns[tt.Payload]
		if info.Result == result && slices.Equal(info.Params, params) {
			return id
		}
	}
	slot := appendSlot(&in.fns, FnInfo{Params: slices.Clone(params), Result: result}, "fn")
	return in.internRaw(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn || tt.Payload == 0 || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}
