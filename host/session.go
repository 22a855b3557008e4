package host

import (
	"context"
	"fmt"

	"github.com/typedump/typedump/client"
)

// Session exposes the loaded binary view of a running analysis host. Calls
// are synchronous and assumed reliable within a single short-lived session;
// there is no retry policy at this layer.
type Session struct {
	rpc *client.Client
}

// NewSession wraps an RPC client pointed at the host bridge.
func NewSession(rpc *client.Client) *Session {
	return &Session{rpc: rpc}
}

// NamedTypes lists every named type known to the binary view.
func (s *Session) NamedTypes(ctx context.Context) ([]NamedType, error) {
	var types []NamedType
	if err := s.rpc.Call(ctx, "binaryview.named_types", nil, &types); err != nil {
		return nil, fmt.Errorf("named_types failed: %w", err)
	}

	return types, nil
}

// Symbols lists the symbol table of the binary view.
func (s *Session) Symbols(ctx context.Context) ([]Symbol, error) {
	var symbols []Symbol
	if err := s.rpc.Call(ctx, "binaryview.symbols", nil, &symbols); err != nil {
		return nil, fmt.Errorf("symbols failed: %w", err)
	}

	return symbols, nil
}

// DataVariableAt looks up the data variable defined at addr.
func (s *Session) DataVariableAt(ctx context.Context, addr uint64) (*DataVariable, error) {
	params := struct {
		Address uint64 `json:"address"`
	}{Address: addr}

	var v DataVariable
	if err := s.rpc.Call(ctx, "binaryview.data_variable_at", params, &v); err != nil {
		return nil, fmt.Errorf("data_variable_at %#x failed: %w", addr, err)
	}

	return &v, nil
}

// Type fetches the descriptor behind a type handle.
func (s *Session) Type(ctx context.Context, ref TypeRef) (*Type, error) {
	params := struct {
		Type TypeRef `json:"type"`
	}{Type: ref}

	var t Type
	if err := s.rpc.Call(ctx, "binaryview.type", params, &t); err != nil {
		return nil, fmt.Errorf("type %q failed: %w", ref, err)
	}

	return &t, nil
}
