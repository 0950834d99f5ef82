// Package interfaceextract walks a snapshot.Snapshot and yields the set of
// public interface elements for a compilation unit: the signatures the
// engine's dual-CID model hashes separately from implementation content.
package interfaceextract

import (
	"github.com/janus-lang/janus-sub014/internal/snapshot"
)

// ElementKind discriminates the kind of a public interface element.
type ElementKind uint8

const (
	PublicFunction ElementKind = iota
	PublicConstant
	PublicType
	PublicModule
	PublicStructField
	PublicEnumVariant
)

func (k ElementKind) String() string {
	switch k {
	case PublicFunction:
		return "public_function"
	case PublicConstant:
		return "public_constant"
	case PublicType:
		return "public_type"
	case PublicModule:
		return "public_module"
	case PublicStructField:
		return "public_struct_field"
	case PublicEnumVariant:
		return "public_enum_variant"
	default:
		return "unknown"
	}
}

// ParamSig is the signature of one function parameter: name, type text,
// and optionality. Default values are captured because spec.md states that
// inline functions and default parameter values are interface, not
// implementation.
type ParamSig struct {
	Name       string
	TypeText   string
	Optional   bool
	HasDefault bool
}

// TypeParamSig is the signature of one generic type parameter.
type TypeParamSig struct {
	Name      string
	BoundText string
}

// FieldSig is the signature of one publicly visible struct field.
type FieldSig struct {
	Name     string
	TypeText string
}

// VariantSig is the signature of one enum variant.
type VariantSig struct {
	Name           string
	AssociatedType string // "" if the variant carries no payload
}

// Signature is the kind-tagged payload of an InterfaceElement. Exactly one
// of the typed accessors below is meaningful, selected by the owning
// element's Kind.
type Signature struct {
	Name       string
	Exported   bool
	TypeParams []TypeParamSig

	// PublicFunction
	Params     []ParamSig
	ReturnText string
	Inline     bool

	// PublicType
	TypeKind string // "struct" | "enum" | "alias"
	Fields   []FieldSig
	Variants []VariantSig

	// PublicConstant
	ConstTypeText string
	// ConstValueText is populated only when the constant's value
	// participates in type inference (e.g. an array-length constant);
	// otherwise the value is implementation, not interface.
	ConstValueText       string
	ValueParticipatesInInference bool

	// PublicModule
	ExportedSymbols []string
}

// InterfaceElement is one signature-only contribution to a unit's public
// interface, per spec.md §3.
type InterfaceElement struct {
	DeclID    snapshot.DeclID
	Kind      ElementKind
	Signature Signature
	Span      snapshot.NodeID // root node this element was extracted from
}

// Extract walks the snapshot starting at root and returns every public
// interface element reachable from it. The element set is unordered; CID
// generators impose their own canonical order.
//
// Extraction never fails: if the snapshot is missing a node the extractor
// references, that id is silently skipped per spec.md §4.2 — the result is
// simply whatever remains observable.
func Extract(s snapshot.Snapshot, root snapshot.NodeID) []InterfaceElement {
	var out []InterfaceElement
	walk(s, root, &out)
	return out
}

func walk(s snapshot.Snapshot, id snapshot.NodeID, out *[]InterfaceElement) {
	n, ok := s.GetNode(id)
	if !ok {
		return // missing node: skip silently, not fatal
	}

	switch n.Kind {
	case snapshot.KindFunctionDecl:
		if el, ok := extractFunction(s, n); ok {
			*out = append(*out, el)
		}
		return // bodies are not recursed into

	case snapshot.KindStructDecl, snapshot.KindEnumDecl, snapshot.KindAliasDecl:
		if el, ok := extractType(s, n); ok {
			*out = append(*out, el)
		}
		return // field/variant structure is captured by extractType itself

	case snapshot.KindConstDecl:
		if el, ok := extractConst(s, n); ok {
			*out = append(*out, el)
		}
		return

	case snapshot.KindModule:
		if el, ok := extractModule(s, n); ok {
			*out = append(*out, el)
		}
		for _, c := range n.Children {
			walk(s, c, out)
		}
		return

	case snapshot.KindStatement, snapshot.KindExpression, snapshot.KindLiteral,
		snapshot.KindBlock, snapshot.KindIdentifier:
		// Never part of the interface; never recursed into from here,
		// they only appear inside bodies which extractFunction skips.
		return

	default:
		// Unknown node kind: recurse defensively into children per
		// spec.md §4.2, in case it contains nested declarations.
		for _, c := range n.Children {
			walk(s, c, out)
		}
	}
}

func name(s snapshot.Snapshot, id snapshot.StrID) string {
	if id == 0 {
		return ""
	}
	return string(s.StrBytes(id))
}

func typeText(s snapshot.Snapshot, id snapshot.NodeID) string {
	if id == 0 {
		return ""
	}
	n, ok := s.GetNode(id)
	if !ok {
		return ""
	}
	return name(s, n.NameStr)
}

func extractFunction(s snapshot.Snapshot, n snapshot.Node) (InterfaceElement, bool) {
	if !n.Exported {
		return InterfaceElement{}, false
	}
	d, ok := s.GetDecl(n.DeclID)
	if !ok {
		return InterfaceElement{}, false
	}

	params := make([]ParamSig, len(d.Params))
	for i, p := range d.Params {
		params[i] = ParamSig{
			Name:       name(s, p.Name),
			TypeText:   typeText(s, p.TypeNode),
			Optional:   p.Optional,
			HasDefault: p.DefaultValue != 0,
		}
	}

	tparams := make([]TypeParamSig, len(d.TypeParams))
	for i, tp := range d.TypeParams {
		tparams[i] = TypeParamSig{
			Name:      name(s, tp.Name),
			BoundText: typeText(s, tp.Bound),
		}
	}

	return InterfaceElement{
		DeclID: n.DeclID,
		Kind:   PublicFunction,
		Span:   n.ID,
		Signature: Signature{
			Name:       name(s, n.NameStr),
			Exported:   true,
			TypeParams: tparams,
			Params:     params,
			ReturnText: typeText(s, d.ReturnTypeNode),
			Inline:     d.IsInline,
		},
	}, true
}

func extractType(s snapshot.Snapshot, n snapshot.Node) (InterfaceElement, bool) {
	if !n.Exported {
		return InterfaceElement{}, false
	}
	d, _ := s.GetDecl(n.DeclID) // decl may be absent for a bare alias

	var kind string
	switch n.Kind {
	case snapshot.KindStructDecl:
		kind = "struct"
	case snapshot.KindEnumDecl:
		kind = "enum"
	case snapshot.KindAliasDecl:
		kind = "alias"
	}

	var fields []FieldSig
	for _, fid := range d.Fields {
		fn, ok := s.GetNode(fid)
		if !ok || !fn.Exported {
			continue // private fields are not interface
		}
		fields = append(fields, FieldSig{
			Name:     name(s, fn.NameStr),
			TypeText: typeText(s, firstChild(fn)),
		})
	}

	var variants []VariantSig
	for _, vid := range d.Variants {
		vn, ok := s.GetNode(vid)
		if !ok {
			continue
		}
		variants = append(variants, VariantSig{
			Name:           name(s, vn.NameStr),
			AssociatedType: typeText(s, firstChild(vn)),
		})
	}

	tparams := make([]TypeParamSig, len(d.TypeParams))
	for i, tp := range d.TypeParams {
		tparams[i] = TypeParamSig{Name: name(s, tp.Name), BoundText: typeText(s, tp.Bound)}
	}

	return InterfaceElement{
		DeclID: n.DeclID,
		Kind:   PublicType,
		Span:   n.ID,
		Signature: Signature{
			Name:       name(s, n.NameStr),
			Exported:   true,
			TypeParams: tparams,
			TypeKind:   kind,
			Fields:     fields,
			Variants:   variants,
		},
	}, true
}

func extractConst(s snapshot.Snapshot, n snapshot.Node) (InterfaceElement, bool) {
	if !n.Exported {
		return InterfaceElement{}, false
	}
	d, ok := s.GetDecl(n.DeclID)
	if !ok {
		return InterfaceElement{}, false
	}
	sig := Signature{
		Name:                  name(s, n.NameStr),
		Exported:              true,
		ConstTypeText:         typeText(s, d.ConstType),
		ValueParticipatesInInference: d.ValueParticipatesInInference,
	}
	if d.ValueParticipatesInInference {
		sig.ConstValueText = typeText(s, d.ConstValueNode)
	}
	return InterfaceElement{
		DeclID:    n.DeclID,
		Kind:      PublicConstant,
		Span:      n.ID,
		Signature: sig,
	}, true
}

func extractModule(s snapshot.Snapshot, n snapshot.Node) (InterfaceElement, bool) {
	if !n.Exported {
		return InterfaceElement{}, false
	}
	d, _ := s.GetDecl(n.DeclID)
	syms := make([]string, len(d.ExportedSymbols))
	for i, sid := range d.ExportedSymbols {
		syms[i] = name(s, sid)
	}
	return InterfaceElement{
		DeclID: n.DeclID,
		Kind:   PublicModule,
		Span:   n.ID,
		Signature: Signature{
			Name:            name(s, n.NameStr),
			Exported:        true,
			ExportedSymbols: syms,
		},
	}, true
}

func firstChild(n snapshot.Node) snapshot.NodeID {
	if len(n.Children) == 0 {
		return 0
	}
	return n.Children[0]
}
