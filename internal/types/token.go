package types

import "fmt"

// Metadata table tags carried in the top byte of a token.
const (
	TokenTypeRef    uint32 = 0x01000000
	TokenTypeDef    uint32 = 0x02000000
	TokenMethodDef  uint32 = 0x06000000
	TokenMemberRef  uint32 = 0x0A000000
	TokenTypeSpec   uint32 = 0x1B000000
	TokenMethodSpec uint32 = 0x2B000000

	tokenTableMask uint32 = 0xFF000000
	tokenRIDMask   uint32 = 0x00FFFFFF
)

// Token is a metadata token scoped to the module that issued it.
type Token struct {
	Module ModuleID
	Value  uint32
}

// Table returns the metadata table tag.
func (t Token) Table() uint32 { return t.Value & tokenTableMask }

// RID returns the row id within the table.
func (t Token) RID() uint32 { return t.Value & tokenRIDMask }

// IsNil reports whether the token carries no row.
func (t Token) IsNil() bool { return t.RID() == 0 }

func (t Token) String() string {
	return fmt.Sprintf("%08X@%d", t.Value, t.Module)
}

// MethodWithToken binds a method to the token it was referenced by, plus an
// optional constraining type for constrained virtual dispatch.
type MethodWithToken struct {
	Method      MethodID
	Token       Token
	Constrained TypeID
}

type memberRefKey struct {
	Module ModuleID
	Method MethodID
}

// MethodDefToken returns the MethodDef token of m's definition in its
// defining module. Array methods have no token.
func (in *Interner) MethodDefToken(m MethodID) Token {
	in.mu.RLock()
	defer in.mu.RUnlock()
	e, ok := in.methodLocked(m)
	if !ok {
		return Token{}
	}
	def := in.methodDefs[e.def]
	return Token{Module: in.moduleOfLocked(def.Owner), Value: def.Token}
}

// MemberRef returns the MemberRef token module uses to refer to m,
// allocating one on first use.
func (in *Interner) MemberRef(module ModuleID, m MethodID) Token {
	in.mu.Lock()
	defer in.mu.Unlock()
	key := memberRefKey{Module: module, Method: m}
	if tok, ok := in.memberRefs[key]; ok {
		return tok
	}
	tok := Token{Module: module, Value: in.nextRow(module, TokenMemberRef)}
	in.memberRefs[key] = tok
	return tok
}

// WithDefToken binds m to its MethodDef token.
func (in *Interner) WithDefToken(m MethodID) MethodWithToken {
	return MethodWithToken{Method: m, Token: in.MethodDefToken(m)}
}
