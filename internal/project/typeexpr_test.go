package project

import "testing"

func TestParseTypeExprRoundTrip(t *testing.T) {
	tests := []string{
		"int32",
		"Coll.Box<int32>",
		"[A]Coll.Box<!0>",
		"Dict<string,Coll.Box<!!1>[]>",
		"int32[][]",
		"Node*",
		"fnptr<void(int32,object)>",
		"fnptr<int32()>",
		"__Canon",
	}
	for _, src := range tests {
		e, err := ParseTypeExpr(src)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got := e.String(); got != src {
			t.Fatalf("round trip %q -> %q", src, got)
		}
	}
}

func TestParseTypeExprSpacing(t *testing.T) {
	e, err := ParseTypeExpr(" Dict< string , int32 > [] ")
	if err != nil {
		t.Fatal(err)
	}
	if e.String() != "Dict<string,int32>[]" {
		t.Fatalf("got %s", e)
	}
}

func TestParseTypeExprErrors(t *testing.T) {
	for _, src := range []string{"", "Box<", "Box<>", "Box<int32", "!x", "[A", "Box>", "a..b", "fnptr<int32"} {
		if _, err := ParseTypeExpr(src); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}

func TestParseMethodRef(t *testing.T) {
	ref, err := ParseMethodRef("Coll.Box<Map<int32,string>>::Select<!!0>")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Owner.String() != "Coll.Box<Map<int32,string>>" || ref.Name != "Select" || len(ref.Args) != 1 {
		t.Fatalf("parsed %+v", ref)
	}
	if ref.String() != "Coll.Box<Map<int32,string>>::Select<!!0>" {
		t.Fatalf("String() = %s", ref)
	}

	ctor, err := ParseMethodRef("int32[]::.ctor")
	if err != nil || ctor.Name != ".ctor" || ctor.Owner.String() != "int32[]" {
		t.Fatalf("array ctor: %+v, %v", ctor, err)
	}

	for _, src := range []string{"Box.Get", "Box::", "Box::Get<", "::Get"} {
		if _, err := ParseMethodRef(src); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}
