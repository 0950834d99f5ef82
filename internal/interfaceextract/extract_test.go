package interfaceextract

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/janus-lang/janus-sub014/internal/snapshot"
	"github.com/janus-lang/janus-sub014/internal/snapshot/snapshottest"
)

func TestExtract_PublicFunctionExcludesBody(t *testing.T) {
	f := snapshottest.New()

	nameID := f.Str("Greet")
	paramName := f.Str("who")
	paramTypeName := f.Str("string")
	returnTypeName := f.Str("string")

	paramTypeNode := snapshot.NodeID(10)
	f.AddNode(snapshot.Node{ID: paramTypeNode, Kind: snapshot.KindTypeExpr, NameStr: paramTypeName})

	returnTypeNode := snapshot.NodeID(11)
	f.AddNode(snapshot.Node{ID: returnTypeNode, Kind: snapshot.KindTypeExpr, NameStr: returnTypeName})

	bodyStmt := snapshot.NodeID(20)
	f.AddNode(snapshot.Node{ID: bodyStmt, Kind: snapshot.KindStatement})

	fnDecl := snapshot.DeclID(1)
	f.AddDecl(snapshot.Decl{
		ID:             fnDecl,
		Params:         []snapshot.Param{{Name: paramName, TypeNode: paramTypeNode}},
		ReturnTypeNode: returnTypeNode,
	})

	fnNode := snapshot.NodeID(1)
	f.AddNode(snapshot.Node{
		ID:       fnNode,
		Kind:     snapshot.KindFunctionDecl,
		DeclID:   fnDecl,
		NameStr:  nameID,
		Exported: true,
		Children: []snapshot.NodeID{bodyStmt}, // a real parser would attach the body here
	})

	root := snapshot.NodeID(0)
	f.AddNode(snapshot.Node{ID: root, Kind: snapshot.KindModule, Exported: true, Children: []snapshot.NodeID{fnNode}})

	got := Extract(f, root)
	if len(got) != 1 {
		t.Fatalf("Extract() = %d elements, want 1: %+v", len(got), got)
	}
	el := got[0]
	if el.Kind != PublicFunction {
		t.Errorf("Kind = %v, want PublicFunction", el.Kind)
	}
	want := Signature{
		Name:       "Greet",
		Exported:   true,
		Params:     []ParamSig{{Name: "who", TypeText: "string"}},
		ReturnText: "string",
	}
	if diff := cmp.Diff(want, el.Signature); diff != "" {
		t.Errorf("Signature mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_PrivateFieldExcluded(t *testing.T) {
	f := snapshottest.New()

	structName := f.Str("Point")
	pubFieldName := f.Str("X")
	privFieldName := f.Str("y")
	intType := f.Str("int")

	typeNode := snapshot.NodeID(30)
	f.AddNode(snapshot.Node{ID: typeNode, Kind: snapshot.KindTypeExpr, NameStr: intType})

	pubField := snapshot.NodeID(1)
	f.AddNode(snapshot.Node{ID: pubField, Kind: snapshot.KindStructField, NameStr: pubFieldName, Exported: true, Children: []snapshot.NodeID{typeNode}})

	privField := snapshot.NodeID(2)
	f.AddNode(snapshot.Node{ID: privField, Kind: snapshot.KindStructField, NameStr: privFieldName, Exported: false, Children: []snapshot.NodeID{typeNode}})

	structDecl := snapshot.DeclID(5)
	f.AddDecl(snapshot.Decl{ID: structDecl, Fields: []snapshot.NodeID{pubField, privField}})

	structNode := snapshot.NodeID(3)
	f.AddNode(snapshot.Node{ID: structNode, Kind: snapshot.KindStructDecl, DeclID: structDecl, NameStr: structName, Exported: true})

	root := snapshot.NodeID(0)
	f.AddNode(snapshot.Node{ID: root, Kind: snapshot.KindModule, Exported: true, Children: []snapshot.NodeID{structNode}})

	got := Extract(f, root)
	if len(got) != 2 {
		t.Fatalf("Extract() = %d elements, want 2 (root module, struct)", len(got))
	}
	if len(got[1].Signature.Fields) != 1 || got[1].Signature.Fields[0].Name != "X" {
		t.Errorf("Fields = %+v, want only public field X", got[1].Signature.Fields)
	}
}

func TestExtract_MissingNodeSkippedSilently(t *testing.T) {
	f := snapshottest.New()
	root := snapshot.NodeID(0)
	// Root references a child that was never added to the fake.
	f.AddNode(snapshot.Node{ID: root, Kind: snapshot.KindModule, Exported: true, Children: []snapshot.NodeID{999}})

	got := Extract(f, root)
	if len(got) != 1 || got[0].Kind != PublicModule {
		t.Errorf("Extract() = %+v, want only the root module element (missing child skipped, not fatal)", got)
	}
}
