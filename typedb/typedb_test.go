package typedb_test

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/typedump/typedump/typedb"
)

func TestFieldTupleEncoding(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(typedb.Field{Offset: 4, Name: "y", TypeName: "int32_t"})
	require.NoError(t, err)
	require.JSONEq(t, `[4,"y","int32_t"]`, string(raw))

	var f typedb.Field
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Equal(t, typedb.Field{Offset: 4, Name: "y", TypeName: "int32_t"}, f)

	require.Error(t, json.Unmarshal([]byte(`[4,"y"]`), &f))
}

func TestEnumFieldTupleEncoding(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(typedb.EnumField{Name: "RED", Value: -1})
	require.NoError(t, err)
	require.JSONEq(t, `["RED",-1]`, string(raw))

	var f typedb.EnumField
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Equal(t, typedb.EnumField{Name: "RED", Value: -1}, f)
}

func TestParameterTupleEncoding(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(typedb.Parameter{Name: "x", TypeName: "int32_t"})
	require.NoError(t, err)
	require.JSONEq(t, `["x","int32_t"]`, string(raw))

	var p typedb.Parameter
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Equal(t, typedb.Parameter{Name: "x", TypeName: "int32_t"}, p)
}

func sampleDatabase() *typedb.Database {
	db := typedb.New()
	db.Integers["int32_t"] = &typedb.Integer{Size: 4, Signed: true}
	db.Structs["Point"] = &typedb.Structure{
		Size: 8,
		Fields: []typedb.Field{
			{Offset: 0, Name: "x", TypeName: "int32_t"},
			{Offset: 4, Name: "y", TypeName: "int32_t"},
		},
	}
	db.Unions["Value"] = &typedb.Structure{
		Size:   4,
		Fields: []typedb.Field{{Offset: 0, Name: "i", TypeName: "int32_t"}},
	}
	db.Enums["Color"] = &typedb.Enum{
		Size:   4,
		Fields: []typedb.EnumField{{Name: "RED", Value: 0}, {Name: "GREEN", Value: 1}},
	}
	db.Typedefs["myint"] = &typedb.Typedef{Target: "int32_t"}
	db.Pointers["Point*"] = &typedb.Pointer{Size: 8, Target: "Point"}
	db.Functions["void (int32_t x)"] = &typedb.Function{
		Parameters: []typedb.Parameter{{Name: "x", TypeName: "int32_t"}},
		ReturnType: "",
	}
	db.Arrays["int32_t[4]"] = &typedb.Array{Count: 4, Target: "int32_t"}
	db.Variables[0x1000] = &typedb.GlobalVariable{Name: "g_counter", Size: 4, TypeName: "int32_t"}

	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := sampleDatabase()

	require.NoError(t, db.Save(dir))

	// Variables are keyed by decimal address strings on disk.
	raw, err := os.ReadFile(filepath.Join(dir, "variables.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"4096":{"name":"g_counter","size":4,"typename":"int32_t"}}`, string(raw))

	loaded, err := typedb.Load(dir)
	require.NoError(t, err)

	if diff := cmp.Diff(db, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, loaded.Validate())
}

func TestIntegerScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, sampleDatabase().Save(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "integers.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"int32_t":{"size":4,"signed":true}}`, string(raw))
}

func TestLoadMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := typedb.Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestContains(t *testing.T) {
	t.Parallel()

	db := sampleDatabase()

	for _, key := range []string{"int32_t", "Point", "Value", "Color", "myint", "Point*", "void (int32_t x)", "int32_t[4]"} {
		require.True(t, db.Contains(key), key)
	}
	require.False(t, db.Contains("g_counter"))
	require.False(t, db.Contains(""))
}

func TestValidateDanglingReference(t *testing.T) {
	t.Parallel()

	db := sampleDatabase()
	db.Pointers["Broken*"] = &typedb.Pointer{Size: 8, Target: "Missing"}

	err := db.Validate()
	require.ErrorContains(t, err, `pointer Broken* references unknown type "Missing"`)
}

func TestValidateAcceptsVoidKey(t *testing.T) {
	t.Parallel()

	db := typedb.New()
	db.Functions["void ()"] = &typedb.Function{Parameters: []typedb.Parameter{}, ReturnType: ""}

	require.NoError(t, db.Validate())
}
