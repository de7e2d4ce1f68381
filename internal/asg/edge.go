package asg

// EdgeKind names an edge of the node schema.
type EdgeKind uint8

const (
	EdgeNone EdgeKind = iota
	EdgeComments
	EdgeMembers
	EdgeCompilationUnits
	EdgeTypeDeclarations
	EdgeSuperClass
	EdgeSuperInterfaces
	EdgeParameters
	EdgeReturnType
	EdgeThrownExceptions
	EdgeBody
	EdgeOverrides
	EdgeDeclaredType
	EdgeInitializer
	EdgeBounds
	EdgeStatements
	EdgeExpression
	EdgeType
	EdgeRefersTo
	EdgeInvokes
	EdgeArguments
	EdgeDeclaration
	EdgeComponentType
	EdgeTypeParameters

	edgeCount
)

var edgeNames = [edgeCount]string{
	EdgeNone:             "none",
	EdgeComments:         "comments",
	EdgeMembers:          "members",
	EdgeCompilationUnits: "compilationUnits",
	EdgeTypeDeclarations: "typeDeclarations",
	EdgeSuperClass:       "superClass",
	EdgeSuperInterfaces:  "superInterfaces",
	EdgeParameters:       "parameters",
	EdgeReturnType:       "returnType",
	EdgeThrownExceptions: "thrownExceptions",
	EdgeBody:             "body",
	EdgeOverrides:        "overrides",
	EdgeDeclaredType:     "declaredType",
	EdgeInitializer:      "initializer",
	EdgeBounds:           "bounds",
	EdgeStatements:       "statements",
	EdgeExpression:       "expression",
	EdgeType:             "type",
	EdgeRefersTo:         "refersTo",
	EdgeInvokes:          "invokes",
	EdgeArguments:        "arguments",
	EdgeDeclaration:      "declaration",
	EdgeComponentType:    "componentType",
	EdgeTypeParameters:   "typeParameters",
}

func (e EdgeKind) String() string {
	if e >= edgeCount {
		return "unknown"
	}
	return edgeNames[e]
}

// EdgeSpec describes one slot of a kind's edge schema.
type EdgeSpec struct {
	Edge EdgeKind
	// Multi edges hold an ordered list; single edges hold at most one target.
	Multi bool
	// Containment edges own their targets and set the target's parent.
	Containment bool
	// Required edges must resolve when bound.
	Required bool
	// Arbitrated edges go through precision arbitration when rebound.
	Arbitrated bool
	Accept     KindSet
}

var (
	typeDecls   = KindsOf(KindClass, KindGenericClass, KindInterface)
	methods     = KindsOf(KindMethod, KindGenericMethod)
	typeExprs   = KindsOf(KindTypeExpr)
	types       = KindsIn(CatType)
	expressions = KindsIn(CatExpression)
	referable   = KindsIn(CatMember, CatTypeParameter)
)

var (
	specComments = EdgeSpec{Edge: EdgeComments, Multi: true, Accept: KindsOf(KindComment)}
	specMembers  = EdgeSpec{Edge: EdgeMembers, Multi: true, Containment: true,
		Accept: typeDecls.Union(methods).Union(KindsOf(KindPackage, KindVariable))}
	specType           = EdgeSpec{Edge: EdgeType, Arbitrated: true, Accept: types}
	specTypeParameters = EdgeSpec{Edge: EdgeTypeParameters, Multi: true, Containment: true, Accept: KindsOf(KindTypeParameter)}
	specParameters     = EdgeSpec{Edge: EdgeParameters, Multi: true, Containment: true, Accept: KindsOf(KindParameter)}
	specSuperIfaces    = EdgeSpec{Edge: EdgeSuperInterfaces, Multi: true, Containment: true, Arbitrated: true, Accept: typeExprs}
)

var (
	schemas   [kindCount][]EdgeSpec
	edgeSlots [kindCount][edgeCount]int8
)

func init() {
	for k := Kind(0); k < kindCount; k++ {
		schemas[k] = buildSchema(k)
		for e := range edgeSlots[k] {
			edgeSlots[k][e] = -1
		}
		for i, spec := range schemas[k] {
			edgeSlots[k][spec.Edge] = int8(i)
		}
	}
}

// buildSchema assembles capability edges around the kind-specific ones.
// Generic type parameters always come last so widening only appends slots.
func buildSchema(k Kind) []EdgeSpec {
	var out []EdgeSpec
	if k.Has(CapCommentable) {
		out = append(out, specComments)
	}
	if k.Has(CapScope) {
		out = append(out, specMembers)
	}
	if k.Has(CapTyped) {
		typed := specType
		// a type expression is only a carrier of its type
		typed.Required = k == KindTypeExpr
		out = append(out, typed)
	}
	switch k {
	case KindPackage:
		out = append(out, EdgeSpec{Edge: EdgeCompilationUnits, Multi: true, Containment: true, Accept: KindsOf(KindCompilationUnit)})
	case KindCompilationUnit:
		out = append(out, EdgeSpec{Edge: EdgeTypeDeclarations, Multi: true, Accept: typeDecls})
	case KindClass, KindGenericClass:
		out = append(out,
			EdgeSpec{Edge: EdgeSuperClass, Containment: true, Arbitrated: true, Accept: typeExprs},
			specSuperIfaces,
		)
	case KindInterface:
		out = append(out, specSuperIfaces)
	case KindMethod, KindGenericMethod:
		out = append(out,
			specParameters,
			EdgeSpec{Edge: EdgeReturnType, Containment: true, Arbitrated: true, Accept: typeExprs},
			EdgeSpec{Edge: EdgeThrownExceptions, Multi: true, Containment: true, Arbitrated: true, Accept: typeExprs},
			EdgeSpec{Edge: EdgeBody, Containment: true, Arbitrated: true, Accept: KindsOf(KindBlock)},
			EdgeSpec{Edge: EdgeOverrides, Multi: true, Accept: methods},
		)
	case KindParameter:
		out = append(out, EdgeSpec{Edge: EdgeDeclaredType, Containment: true, Required: true, Arbitrated: true, Accept: typeExprs})
	case KindVariable:
		out = append(out,
			EdgeSpec{Edge: EdgeDeclaredType, Containment: true, Arbitrated: true, Accept: typeExprs},
			EdgeSpec{Edge: EdgeInitializer, Containment: true, Arbitrated: true, Accept: expressions},
		)
	case KindTypeParameter:
		out = append(out, EdgeSpec{Edge: EdgeBounds, Multi: true, Containment: true, Arbitrated: true, Accept: typeExprs})
	case KindBlock:
		out = append(out, EdgeSpec{Edge: EdgeStatements, Multi: true, Containment: true,
			Accept: KindsIn(CatStatement).Union(typeDecls).Union(KindsOf(KindVariable))})
	case KindExpressionStatement:
		out = append(out, EdgeSpec{Edge: EdgeExpression, Containment: true, Required: true, Arbitrated: true, Accept: expressions})
	case KindReturn:
		out = append(out, EdgeSpec{Edge: EdgeExpression, Containment: true, Arbitrated: true, Accept: expressions})
	case KindIdentifier:
		out = append(out, EdgeSpec{Edge: EdgeRefersTo, Accept: referable})
	case KindMethodInvocation:
		out = append(out,
			EdgeSpec{Edge: EdgeInvokes, Accept: methods},
			EdgeSpec{Edge: EdgeArguments, Multi: true, Containment: true, Accept: expressions},
		)
	case KindLambda:
		out = append(out,
			specParameters,
			EdgeSpec{Edge: EdgeBody, Containment: true, Arbitrated: true, Accept: expressions.Union(KindsOf(KindBlock))},
		)
	case KindClassType:
		out = append(out, EdgeSpec{Edge: EdgeDeclaration, Accept: typeDecls.Union(KindsOf(KindTypeParameter))})
	case KindArrayType:
		out = append(out, EdgeSpec{Edge: EdgeComponentType, Required: true, Accept: types})
	}
	if k.Has(CapGeneric) {
		out = append(out, specTypeParameters)
	}
	return out
}

// Schema returns the ordered edge layout of a kind. The result must not be modified.
func Schema(k Kind) []EdgeSpec {
	if k >= kindCount {
		return nil
	}
	return schemas[k]
}

// SlotOf returns the schema slot of edge e for kind k, or -1.
func SlotOf(k Kind, e EdgeKind) int {
	if k >= kindCount || e >= edgeCount {
		return -1
	}
	return int(edgeSlots[k][e])
}

// SpecOf returns the schema entry of edge e for kind k.
func SpecOf(k Kind, e EdgeKind) (EdgeSpec, bool) {
	slot := SlotOf(k, e)
	if slot < 0 {
		return EdgeSpec{}, false
	}
	return schemas[k][slot], true
}
