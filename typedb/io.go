package typedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/go-json-experiment/json"
)

const (
	structsFile   = "structs.json"
	unionsFile    = "unions.json"
	enumsFile     = "enums.json"
	integersFile  = "integers.json"
	typedefsFile  = "typedefs.json"
	pointersFile  = "pointers.json"
	functionsFile = "functions.json"
	arraysFile    = "arrays.json"
	variablesFile = "variables.json"
)

// Save writes the nine mappings into dir, one JSON document per mapping,
// overwriting existing files. Map keys are emitted in sorted order so two
// exports of the same view produce identical files.
func (db *Database) Save(dir string) error {
	for _, doc := range []struct {
		name string
		data any
	}{
		{structsFile, db.Structs},
		{unionsFile, db.Unions},
		{enumsFile, db.Enums},
		{integersFile, db.Integers},
		{typedefsFile, db.Typedefs},
		{pointersFile, db.Pointers},
		{functionsFile, db.Functions},
		{arraysFile, db.Arrays},
		{variablesFile, db.Variables},
	} {
		if err := writeJSON(filepath.Join(dir, doc.name), doc.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.name, err)
		}
	}

	return nil
}

// Load reads a previously saved export from dir.
func Load(dir string) (*Database, error) {
	db := New()
	for _, doc := range []struct {
		name string
		data any
	}{
		{structsFile, &db.Structs},
		{unionsFile, &db.Unions},
		{enumsFile, &db.Enums},
		{integersFile, &db.Integers},
		{typedefsFile, &db.Typedefs},
		{pointersFile, &db.Pointers},
		{functionsFile, &db.Functions},
		{arraysFile, &db.Arrays},
		{variablesFile, &db.Variables},
	} {
		if err := readJSON(filepath.Join(dir, doc.name), doc.data); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", doc.name, err)
		}
	}

	return db, nil
}

// Validate checks that every cross-reference in the database resolves to a
// recorded type or to the empty void key. A dangling key means the export
// was produced by an interrupted or buggy pass and cannot be trusted.
func (db *Database) Validate() error {
	var errs []error

	check := func(owner, key string) {
		if key == "" || db.Contains(key) {
			return
		}
		errs = append(errs, fmt.Errorf("%s references unknown type %q", owner, key))
	}

	for name, s := range db.Structs {
		for _, f := range s.Fields {
			check("struct "+name, f.TypeName)
		}
	}
	for name, u := range db.Unions {
		for _, f := range u.Fields {
			check("union "+name, f.TypeName)
		}
	}
	for name, td := range db.Typedefs {
		check("typedef "+name, td.Target)
	}
	for name, p := range db.Pointers {
		check("pointer "+name, p.Target)
	}
	for name, fn := range db.Functions {
		for _, p := range fn.Parameters {
			check("function "+name, p.TypeName)
		}
		check("function "+name, fn.ReturnType)
	}
	for name, a := range db.Arrays {
		check("array "+name, a.Target)
	}
	for addr, v := range db.Variables {
		check(fmt.Sprintf("variable %q at %#x", v.Name, addr), v.TypeName)
	}

	return errors.Join(errs...)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := json.MarshalWrite(f, v, json.Deterministic(true)); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.UnmarshalRead(f, v)
}
