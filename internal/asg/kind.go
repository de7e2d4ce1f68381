package asg

// Kind tags the variant of a node.
type Kind uint8

const (
	KindInvalid Kind = iota // tombstone of a deleted node
	KindPackage
	KindCompilationUnit
	KindComment
	KindClass
	KindGenericClass
	KindInterface
	KindMethod
	KindGenericMethod
	KindParameter
	KindVariable
	KindTypeParameter
	KindBlock
	KindExpressionStatement
	KindReturn
	KindIdentifier
	KindLiteral
	KindMethodInvocation
	KindLambda
	KindTypeExpr
	KindPrimitiveType
	KindClassType
	KindArrayType

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:             "Invalid",
	KindPackage:             "Package",
	KindCompilationUnit:     "CompilationUnit",
	KindComment:             "Comment",
	KindClass:               "Class",
	KindGenericClass:        "GenericClass",
	KindInterface:           "Interface",
	KindMethod:              "Method",
	KindGenericMethod:       "GenericMethod",
	KindParameter:           "Parameter",
	KindVariable:            "Variable",
	KindTypeParameter:       "TypeParameter",
	KindBlock:               "Block",
	KindExpressionStatement: "ExpressionStatement",
	KindReturn:              "Return",
	KindIdentifier:          "Identifier",
	KindLiteral:             "Literal",
	KindMethodInvocation:    "MethodInvocation",
	KindLambda:              "Lambda",
	KindTypeExpr:            "TypeExpr",
	KindPrimitiveType:       "PrimitiveType",
	KindClassType:           "ClassType",
	KindArrayType:           "ArrayType",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Unknown"
	}
	return kindNames[k]
}

// Valid reports whether k names a live node kind.
func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindPackage; k < kindCount; k++ {
		if kindNames[k] == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// Category groups kinds by their role in the graph.
type Category uint8

const (
	CatNone Category = iota
	CatStructure
	CatMember
	CatTypeParameter
	CatStatement
	CatExpression
	CatType
	CatComment
)

func (k Kind) Category() Category {
	switch k {
	case KindPackage, KindCompilationUnit:
		return CatStructure
	case KindClass, KindGenericClass, KindInterface, KindMethod, KindGenericMethod, KindParameter, KindVariable:
		return CatMember
	case KindTypeParameter:
		return CatTypeParameter
	case KindBlock, KindExpressionStatement, KindReturn:
		return CatStatement
	case KindIdentifier, KindLiteral, KindMethodInvocation, KindLambda, KindTypeExpr:
		return CatExpression
	case KindPrimitiveType, KindClassType, KindArrayType:
		return CatType
	case KindComment:
		return CatComment
	default:
		return CatNone
	}
}

// IsTypeDeclaration reports class-like declarations.
func (k Kind) IsTypeDeclaration() bool {
	return k == KindClass || k == KindGenericClass || k == KindInterface
}

// IsNormalMethod reports method declarations; lambdas are not normal methods.
func (k Kind) IsNormalMethod() bool {
	return k == KindMethod || k == KindGenericMethod
}

// Capability is a bit set of the components and edge groups a kind carries.
type Capability uint16

const (
	CapPositioned Capability = 1 << iota
	CapNamed
	CapModifiers
	CapText
	CapTypeInfo
	CapCommentable
	CapScope
	CapTyped
	CapGeneric
)

func (k Kind) Capabilities() Capability {
	switch k {
	case KindPackage:
		return CapNamed | CapScope
	case KindCompilationUnit:
		return CapPositioned | CapCommentable
	case KindComment:
		return CapPositioned | CapText
	case KindClass, KindInterface:
		return CapPositioned | CapNamed | CapModifiers | CapCommentable | CapScope
	case KindGenericClass:
		return CapPositioned | CapNamed | CapModifiers | CapCommentable | CapScope | CapGeneric
	case KindMethod:
		return CapPositioned | CapNamed | CapModifiers | CapCommentable
	case KindGenericMethod:
		return CapPositioned | CapNamed | CapModifiers | CapCommentable | CapGeneric
	case KindParameter:
		return CapPositioned | CapNamed | CapModifiers
	case KindVariable:
		return CapPositioned | CapNamed | CapModifiers | CapCommentable
	case KindTypeParameter:
		return CapPositioned | CapNamed
	case KindBlock, KindExpressionStatement, KindReturn:
		return CapPositioned
	case KindIdentifier:
		return CapPositioned | CapNamed | CapTyped
	case KindLiteral:
		return CapPositioned | CapText | CapTyped
	case KindMethodInvocation:
		return CapPositioned | CapNamed | CapTyped
	case KindLambda:
		return CapPositioned | CapTyped
	case KindTypeExpr:
		return CapPositioned | CapNamed | CapTyped
	case KindPrimitiveType, KindClassType, KindArrayType:
		return CapTypeInfo
	default:
		return 0
	}
}

func (k Kind) Has(c Capability) bool { return k.Capabilities()&c == c }

// KindSet is a bit set of kinds.
type KindSet uint32

func KindsOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// KindsIn returns every kind of the given categories.
func KindsIn(cats ...Category) KindSet {
	var s KindSet
	for k := KindPackage; k < kindCount; k++ {
		for _, c := range cats {
			if k.Category() == c {
				s |= 1 << k
			}
		}
	}
	return s
}

func (s KindSet) Contains(k Kind) bool { return s&(1<<k) != 0 }

func (s KindSet) Union(o KindSet) KindSet { return s | o }

// WidensTo reports whether a node of kind k can be promoted in place to kind to.
// The widened schema is the narrow schema plus trailing slots.
func (k Kind) WidensTo(to Kind) bool {
	switch {
	case k == KindClass && to == KindGenericClass:
		return true
	case k == KindMethod && to == KindGenericMethod:
		return true
	}
	return false
}
