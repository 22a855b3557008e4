// Package extract walks the type and symbol information a binary-analysis
// host has recovered from a loaded binary and flattens it into a
// typedb.Database keyed by canonical type name.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/typedump/typedump/host"
	"github.com/typedump/typedump/typedb"
)

// BinaryView is the capability surface the extractor needs from an analysis
// host. host.Session satisfies it over the RPC bridge; tests satisfy it
// in memory.
type BinaryView interface {
	NamedTypes(ctx context.Context) ([]host.NamedType, error)
	Symbols(ctx context.Context) ([]host.Symbol, error)
	DataVariableAt(ctx context.Context, addr uint64) (*host.DataVariable, error)
	Type(ctx context.Context, ref host.TypeRef) (*host.Type, error)
}

// Extractor performs one traversal over a binary view. It is single-use:
// the database it builds and the anonymous-name counter belong to one pass.
type Extractor struct {
	view      BinaryView
	log       zerolog.Logger
	db        *typedb.Database
	anonymous int
}

// New creates an extractor for the given view.
func New(view BinaryView, log zerolog.Logger) *Extractor {
	return &Extractor{
		view: view,
		log:  log,
		db:   typedb.New(),
	}
}

// Run executes the full pass: every named type, then every data symbol.
// Any unrecognized type-system construct aborts the traversal; a database
// is returned only when the snapshot is complete.
func (e *Extractor) Run(ctx context.Context) (*typedb.Database, error) {
	named, err := e.view.NamedTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate named types: %w", err)
	}
	for _, nt := range named {
		t, err := e.view.Type(ctx, nt.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve type %q: %w", nt.Name, err)
		}
		if _, err := e.visit(ctx, t, nt.Name); err != nil {
			return nil, err
		}
	}

	symbols, err := e.view.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate symbols: %w", err)
	}
	for _, sym := range symbols {
		if sym.Kind != host.SymbolData {
			continue
		}
		variable, err := e.view.DataVariableAt(ctx, sym.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to look up variable %q at %#x: %w", sym.Name, sym.Address, err)
		}
		t, err := e.view.Type(ctx, variable.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve type of variable %q: %w", sym.Name, err)
		}
		key, err := e.visit(ctx, t, "")
		if err != nil {
			return nil, err
		}
		e.db.Variables[sym.Address] = &typedb.GlobalVariable{
			Name:     sym.Name,
			Size:     variable.Size,
			TypeName: key,
		}
	}

	e.log.Info().
		Int("structs", len(e.db.Structs)).
		Int("unions", len(e.db.Unions)).
		Int("enums", len(e.db.Enums)).
		Int("integers", len(e.db.Integers)).
		Int("typedefs", len(e.db.Typedefs)).
		Int("pointers", len(e.db.Pointers)).
		Int("functions", len(e.db.Functions)).
		Int("arrays", len(e.db.Arrays)).
		Int("variables", len(e.db.Variables)).
		Msg("extraction complete")

	return e.db, nil
}

// typeName derives the canonical key for t, preferring hint where the class
// allows it. The second return is false when the type is anonymous and the
// caller must synthesize a key.
func (e *Extractor) typeName(ctx context.Context, t *host.Type, hint string) (string, bool, error) {
	switch t.Class {
	case host.ClassInteger, host.ClassPointer:
		if hint != "" {
			return hint, true, nil
		}

		return t.Rendering, true, nil
	case host.ClassStructure:
		switch t.Variant {
		case host.VariantStruct, host.VariantUnion:
		default:
			return "", false, fmt.Errorf("unknown structure variant %q", t.Variant)
		}
		if t.RegisteredName == nil {
			return "", false, nil
		}

		return *t.RegisteredName, true, nil
	case host.ClassNamedTypeReference:
		if t.Name == nil {
			return "", false, errors.New("named type reference without a name")
		}

		return *t.Name, true, nil
	case host.ClassEnumeration:
		if t.RegisteredName == nil {
			return "", false, errors.New("enumeration without a registered name")
		}

		return *t.RegisteredName, true, nil
	case host.ClassFunction:
		return t.Rendering, true, nil
	case host.ClassArray:
		element, err := e.elementOf(ctx, t)
		if err != nil {
			return "", false, err
		}
		name, named, err := e.typeName(ctx, element, "")
		if err != nil {
			return "", false, err
		}
		if !named {
			// An array of an anonymous type is itself anonymous.
			return "", false, nil
		}

		return fmt.Sprintf("%s[%d]", name, t.Count), true, nil
	case host.ClassVoid:
		return "", true, nil
	default:
		return "", false, fmt.Errorf("unhandled type class %q (hint %q)", t.Class, hint)
	}
}

// visit returns the canonical key for t, recording t and transitively
// everything it references exactly once. Entries are inserted before their
// children are resolved, so revisiting a key already present in any mapping
// short-circuits; that is the sole mechanism terminating cyclic type graphs.
func (e *Extractor) visit(ctx context.Context, t *host.Type, hint string) (string, error) {
	key, named, err := e.typeName(ctx, t, hint)
	if err != nil {
		return "", err
	}
	anon := false
	if !named {
		key = fmt.Sprintf("anon.%d", e.anonymous)
		e.anonymous++
		anon = true
	}

	if e.db.Contains(key) {
		return key, nil
	}

	switch t.Class {
	case host.ClassInteger:
		e.db.Integers[key] = &typedb.Integer{Size: t.Size, Signed: t.Signed}
	case host.ClassStructure:
		var target map[string]*typedb.Structure
		switch t.Variant {
		case host.VariantStruct:
			target = e.db.Structs
		case host.VariantUnion:
			target = e.db.Unions
		default:
			return "", fmt.Errorf("unknown structure variant %q", t.Variant)
		}
		s := &typedb.Structure{Size: t.Size, Anon: anon, Fields: make([]typedb.Field, 0, len(t.Members))}
		target[key] = s
		for _, m := range t.Members {
			mt, err := e.view.Type(ctx, m.Type)
			if err != nil {
				return "", fmt.Errorf("failed to resolve field %q of %q: %w", m.Name, key, err)
			}
			fieldKey, err := e.visit(ctx, mt, "")
			if err != nil {
				return "", err
			}
			s.Fields = append(s.Fields, typedb.Field{Offset: m.Offset, Name: m.Name, TypeName: fieldKey})
		}
	case host.ClassPointer:
		p := &typedb.Pointer{Size: t.Size}
		e.db.Pointers[key] = p
		pointee, err := e.targetOf(ctx, t, key)
		if err != nil {
			return "", err
		}
		targetKey, err := e.visit(ctx, pointee, "")
		if err != nil {
			return "", err
		}
		p.Target = targetKey
	case host.ClassNamedTypeReference:
		underlying, err := e.targetOf(ctx, t, key)
		if err != nil {
			return "", err
		}
		targetKey, err := e.visit(ctx, underlying, "")
		if err != nil {
			return "", err
		}
		// A reference that resolves to its own key is a degenerate
		// self-alias and gets no entry.
		if targetKey == key {
			return key, nil
		}
		e.db.Typedefs[key] = &typedb.Typedef{Target: targetKey}
	case host.ClassEnumeration:
		fields := make([]typedb.EnumField, 0, len(t.EnumMembers))
		for _, m := range t.EnumMembers {
			fields = append(fields, typedb.EnumField{Name: m.Name, Value: m.Value})
		}
		e.db.Enums[key] = &typedb.Enum{Size: t.Size, Signed: t.Signed, Fields: fields}
	case host.ClassFunction:
		fn := &typedb.Function{Parameters: make([]typedb.Parameter, 0, len(t.Parameters))}
		e.db.Functions[key] = fn
		for _, p := range t.Parameters {
			pt, err := e.view.Type(ctx, p.Type)
			if err != nil {
				return "", fmt.Errorf("failed to resolve parameter %q of %q: %w", p.Name, key, err)
			}
			paramKey, err := e.visit(ctx, pt, "")
			if err != nil {
				return "", err
			}
			fn.Parameters = append(fn.Parameters, typedb.Parameter{Name: p.Name, TypeName: paramKey})
		}
		if t.ReturnType == nil {
			return "", fmt.Errorf("function %q without a return type", key)
		}
		rt, err := e.view.Type(ctx, *t.ReturnType)
		if err != nil {
			return "", fmt.Errorf("failed to resolve return type of %q: %w", key, err)
		}
		returnKey, err := e.visit(ctx, rt, "")
		if err != nil {
			return "", err
		}
		fn.ReturnType = returnKey
	case host.ClassArray:
		a := &typedb.Array{Count: t.Count}
		e.db.Arrays[key] = a
		element, err := e.elementOf(ctx, t)
		if err != nil {
			return "", err
		}
		elementKey, err := e.visit(ctx, element, "")
		if err != nil {
			return "", err
		}
		a.Target = elementKey
	case host.ClassVoid:
		// Void resolves to the empty key with no mapping entry.
	default:
		return "", fmt.Errorf("unhandled type class %q (hint %q)", t.Class, hint)
	}

	e.log.Debug().Str("class", string(t.Class)).Str("key", key).Msg("recorded type")

	return key, nil
}

func (e *Extractor) targetOf(ctx context.Context, t *host.Type, key string) (*host.Type, error) {
	if t.Target == nil {
		return nil, fmt.Errorf("%s %q without a target", t.Class, key)
	}
	target, err := e.view.Type(ctx, *t.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target of %q: %w", key, err)
	}

	return target, nil
}

func (e *Extractor) elementOf(ctx context.Context, t *host.Type) (*host.Type, error) {
	if t.Target == nil {
		return nil, errors.New("array without an element type")
	}
	element, err := e.view.Type(ctx, *t.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve array element type: %w", err)
	}

	return element, nil
}
