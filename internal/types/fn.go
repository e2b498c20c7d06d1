package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// FnPtrInfo stores the signature of a function pointer type.
type FnPtrInfo struct {
	Return TypeID
	Params []TypeID
}

type fnKey struct {
	Return TypeID
	Params string
}

// FnPtrOf interns a function pointer type with the given signature.
func (in *Interner) FnPtrOf(ret TypeID, params ...TypeID) TypeID {
	key := fnKey{Return: ret, Params: typeArgsKey(params)}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.fnIdx[key]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.fnptrs))
	if err != nil {
		panic(fmt.Errorf("fnptr overflow: %w", err))
	}
	in.fnptrs = append(in.fnptrs, FnPtrInfo{Return: ret, Params: slices.Clone(params)})
	id := in.internRaw(Type{Kind: KindFnPtr, Payload: slot})
	in.fnIdx[key] = id
	return id
}

// FnPtr returns the signature of a function pointer type.
func (in *Interner) FnPtr(id TypeID) (FnPtrInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	tt, ok := in.lookupLocked(id)
	if !ok || tt.Kind != KindFnPtr {
		return FnPtrInfo{}, false
	}
	info := in.fnptrs[tt.Payload]
	return FnPtrInfo{Return: info.Return, Params: slices.Clone(info.Params)}, true
}
