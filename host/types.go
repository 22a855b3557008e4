// Package host models the analysis host's recovered type and symbol
// information the way the host exposes it over its RPC bridge. The host is
// a black box: these records are the narrow surface the extractor consumes,
// and any host exposing equivalent capabilities can be targeted.
package host

// TypeClass tags the structural kind of a type descriptor.
type TypeClass string

const (
	ClassVoid               TypeClass = "void"
	ClassInteger            TypeClass = "integer"
	ClassStructure          TypeClass = "structure"
	ClassPointer            TypeClass = "pointer"
	ClassNamedTypeReference TypeClass = "namedTypeReference"
	ClassEnumeration        TypeClass = "enumeration"
	ClassFunction           TypeClass = "function"
	ClassArray              TypeClass = "array"
)

// StructureVariant distinguishes structs from unions. The host may grow
// further variants; consumers must treat anything else as unsupported.
type StructureVariant string

const (
	VariantStruct StructureVariant = "struct"
	VariantUnion  StructureVariant = "union"
)

// TypeRef is an opaque handle to a type descriptor held by the host.
// Descriptors reference each other through handles rather than by
// embedding, so cyclic type graphs stay representable on the wire.
type TypeRef string

// Type is one type descriptor. Which fields are populated depends on Class:
// structures carry Variant and Members, enumerations carry EnumMembers,
// functions carry Parameters and ReturnType, pointers, named references and
// arrays point at Target.
type Type struct {
	Class          TypeClass        `json:"class"`
	Size           uint64           `json:"size,omitempty"`
	Signed         bool             `json:"signed,omitempty"`
	RegisteredName *string          `json:"registeredName,omitempty"`
	Rendering      string           `json:"rendering,omitempty"`
	Name           *string          `json:"name,omitempty"`
	Variant        StructureVariant `json:"variant,omitempty"`
	Members        []Member         `json:"members,omitempty"`
	EnumMembers    []EnumMember     `json:"enumMembers,omitempty"`
	Parameters     []Parameter      `json:"parameters,omitempty"`
	ReturnType     *TypeRef         `json:"returnType,omitempty"`
	Target         *TypeRef         `json:"target,omitempty"`
	Count          uint64           `json:"count,omitempty"`
}

// Member is a structure member in declaration order.
type Member struct {
	Offset uint64  `json:"offset"`
	Name   string  `json:"name"`
	Type   TypeRef `json:"type"`
}

// EnumMember is an enumeration member in declaration order.
type EnumMember struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Parameter is a function parameter in declaration order.
type Parameter struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// NamedType pairs a top-level declared type name with its descriptor handle.
type NamedType struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// SymbolKind tags a symbol table entry. Only data symbols are consumed by
// the type extraction pass.
type SymbolKind string

const (
	SymbolData     SymbolKind = "data"
	SymbolFunction SymbolKind = "function"
	SymbolImport   SymbolKind = "import"
	SymbolExternal SymbolKind = "external"
)

// Symbol is one symbol table entry.
type Symbol struct {
	Name    string     `json:"name"`
	Address uint64     `json:"address"`
	Kind    SymbolKind `json:"kind"`
}

// DataVariable is the variable the host knows at a given address.
type DataVariable struct {
	Address uint64  `json:"address"`
	Size    uint64  `json:"size"`
	Type    TypeRef `json:"type"`
}
