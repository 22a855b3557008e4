package host_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/typedump/typedump/client"
	"github.com/typedump/typedump/host"
)

// newStubHost serves canned JSON-RPC results per method name.
func newStubHost(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			ID     uint64         `json:"id"`
			Method string         `json:"method"`
			Params jsontext.Value `json:"params"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		result, ok := results[req.Method]
		if !ok {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))

			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func TestSessionNamedTypes(t *testing.T) {
	t.Parallel()

	server := newStubHost(t, map[string]string{
		"binaryview.named_types": `[{"name":"Point","type":"t.1"},{"name":"int32_t","type":"t.2"}]`,
	})
	defer server.Close()

	session := host.NewSession(client.NewClient(server.URL))

	named, err := session.NamedTypes(context.Background())
	require.NoError(t, err)

	want := []host.NamedType{
		{Name: "Point", Type: "t.1"},
		{Name: "int32_t", Type: "t.2"},
	}
	if diff := cmp.Diff(want, named); diff != "" {
		t.Errorf("named types mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionSymbols(t *testing.T) {
	t.Parallel()

	server := newStubHost(t, map[string]string{
		"binaryview.symbols": `[{"name":"g_counter","address":4096,"kind":"data"},{"name":"main","address":8192,"kind":"function"}]`,
	})
	defer server.Close()

	session := host.NewSession(client.NewClient(server.URL))

	symbols, err := session.Symbols(context.Background())
	require.NoError(t, err)

	want := []host.Symbol{
		{Name: "g_counter", Address: 4096, Kind: host.SymbolData},
		{Name: "main", Address: 8192, Kind: host.SymbolFunction},
	}
	if diff := cmp.Diff(want, symbols); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionDataVariableAt(t *testing.T) {
	t.Parallel()

	server := newStubHost(t, map[string]string{
		"binaryview.data_variable_at": `{"address":4096,"size":4,"type":"t.2"}`,
	})
	defer server.Close()

	session := host.NewSession(client.NewClient(server.URL))

	v, err := session.DataVariableAt(context.Background(), 4096)
	require.NoError(t, err)
	require.Equal(t, &host.DataVariable{Address: 4096, Size: 4, Type: "t.2"}, v)
}

func TestSessionType(t *testing.T) {
	t.Parallel()

	server := newStubHost(t, map[string]string{
		"binaryview.type": `{
			"class": "structure",
			"variant": "struct",
			"size": 8,
			"registeredName": "Point",
			"members": [
				{"offset": 0, "name": "x", "type": "t.2"},
				{"offset": 4, "name": "y", "type": "t.2"}
			]
		}`,
	})
	defer server.Close()

	session := host.NewSession(client.NewClient(server.URL))

	typ, err := session.Type(context.Background(), "t.1")
	require.NoError(t, err)
	require.Equal(t, host.ClassStructure, typ.Class)
	require.Equal(t, host.VariantStruct, typ.Variant)
	require.NotNil(t, typ.RegisteredName)
	require.Equal(t, "Point", *typ.RegisteredName)
	require.Len(t, typ.Members, 2)
}

func TestSessionUnknownMethod(t *testing.T) {
	t.Parallel()

	server := newStubHost(t, nil)
	defer server.Close()

	session := host.NewSession(client.NewClient(server.URL))

	_, err := session.NamedTypes(context.Background())
	require.ErrorContains(t, err, "method not found")
}
