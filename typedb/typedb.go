// Package typedb holds the type database produced by an extraction pass:
// eight mappings keyed by canonical type name plus the global variables
// keyed by address. Each mapping is persisted as its own JSON document so
// downstream consumers can load exactly the categories they need.
package typedb

import (
	"fmt"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Integer describes a primitive integer type.
type Integer struct {
	Size   uint64 `json:"size"`
	Signed bool   `json:"signed"`
}

// Field is a structure member. It serializes as a [offset, name, typename]
// triple to keep the documents compact.
type Field struct {
	Offset   uint64
	Name     string
	TypeName string
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Offset, f.Name, f.TypeName})
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var parts []jsontext.Value
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("field: expected 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &f.Offset); err != nil {
		return fmt.Errorf("field offset: %w", err)
	}
	if err := json.Unmarshal(parts[1], &f.Name); err != nil {
		return fmt.Errorf("field name: %w", err)
	}
	if err := json.Unmarshal(parts[2], &f.TypeName); err != nil {
		return fmt.Errorf("field typename: %w", err)
	}

	return nil
}

// Structure describes a struct or union; which mapping it lives in decides
// which of the two it is.
type Structure struct {
	Size   uint64  `json:"size"`
	Anon   bool    `json:"anon"`
	Fields []Field `json:"fields"`
}

// EnumField is an enumeration member, serialized as a [name, value] pair.
type EnumField struct {
	Name  string
	Value int64
}

func (f EnumField) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Name, f.Value})
}

func (f *EnumField) UnmarshalJSON(data []byte) error {
	var parts []jsontext.Value
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("enum field: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("enum field: expected 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &f.Name); err != nil {
		return fmt.Errorf("enum field name: %w", err)
	}
	if err := json.Unmarshal(parts[1], &f.Value); err != nil {
		return fmt.Errorf("enum field value: %w", err)
	}

	return nil
}

// Enum describes an enumeration type.
type Enum struct {
	Size   uint64      `json:"size"`
	Signed bool        `json:"signed"`
	Fields []EnumField `json:"fields"`
}

// Typedef aliases another type by canonical key.
type Typedef struct {
	Target string `json:"target"`
}

// Pointer describes a pointer type and its pointee key.
type Pointer struct {
	Size   uint64 `json:"size"`
	Target string `json:"target"`
}

// Parameter is a function parameter, serialized as a [name, typename] pair.
type Parameter struct {
	Name     string
	TypeName string
}

func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.TypeName})
}

func (p *Parameter) UnmarshalJSON(data []byte) error {
	var parts []jsontext.Value
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("parameter: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("parameter: expected 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &p.Name); err != nil {
		return fmt.Errorf("parameter name: %w", err)
	}
	if err := json.Unmarshal(parts[1], &p.TypeName); err != nil {
		return fmt.Errorf("parameter typename: %w", err)
	}

	return nil
}

// Function describes a function signature.
type Function struct {
	Parameters []Parameter `json:"parameters"`
	ReturnType string      `json:"returntype"`
}

// Array describes a fixed-size array type.
type Array struct {
	Count  uint64 `json:"count"`
	Target string `json:"target"`
}

// GlobalVariable describes a data symbol resolved to its type.
type GlobalVariable struct {
	Name     string `json:"name"`
	Size     uint64 `json:"size"`
	TypeName string `json:"typename"`
}

// Database is the complete result of one extraction pass. Entries are
// written exactly once and never mutated afterwards; cross-references
// between entries are by canonical key, never by embedding, which is how
// the shared cyclic type graph flattens into acyclic documents.
type Database struct {
	Integers  map[string]*Integer
	Structs   map[string]*Structure
	Unions    map[string]*Structure
	Enums     map[string]*Enum
	Typedefs  map[string]*Typedef
	Pointers  map[string]*Pointer
	Functions map[string]*Function
	Arrays    map[string]*Array
	Variables map[uint64]*GlobalVariable
}

// New returns an empty database with all mappings allocated.
func New() *Database {
	return &Database{
		Integers:  make(map[string]*Integer),
		Structs:   make(map[string]*Structure),
		Unions:    make(map[string]*Structure),
		Enums:     make(map[string]*Enum),
		Typedefs:  make(map[string]*Typedef),
		Pointers:  make(map[string]*Pointer),
		Functions: make(map[string]*Function),
		Arrays:    make(map[string]*Array),
		Variables: make(map[uint64]*GlobalVariable),
	}
}

// Contains reports whether key is already recorded in any of the eight type
// mappings. A key is final once written, so a hit means the type and
// everything it references are already captured.
func (db *Database) Contains(key string) bool {
	if _, ok := db.Integers[key]; ok {
		return true
	}
	if _, ok := db.Structs[key]; ok {
		return true
	}
	if _, ok := db.Unions[key]; ok {
		return true
	}
	if _, ok := db.Enums[key]; ok {
		return true
	}
	if _, ok := db.Typedefs[key]; ok {
		return true
	}
	if _, ok := db.Pointers[key]; ok {
		return true
	}
	if _, ok := db.Functions[key]; ok {
		return true
	}
	if _, ok := db.Arrays[key]; ok {
		return true
	}

	return false
}
