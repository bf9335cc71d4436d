// Package model defines model cards, signatures, and reference-based loading
// for models logged to the tracking store.
package model

import "fmt"

// ColType is the declared type of a signature column.
type ColType string

const (
	TypeString ColType = "string"
	TypeDouble ColType = "double"
	TypeLong   ColType = "long"
)

// ColSpec names and types one column of a schema.
type ColSpec struct {
	Name string  `yaml:"name" json:"name"`
	Type ColType `yaml:"type" json:"type"`
}

// Schema is an ordered list of column specs.
type Schema []ColSpec

// Signature declares the input and output schemas recorded alongside a
// logged model.
type Signature struct {
	Inputs  Schema `yaml:"inputs" json:"inputs"`
	Outputs Schema `yaml:"outputs" json:"outputs"`
}

// InferSchema derives a schema from an example record. Columns are emitted in
// sorted key order so inference is deterministic.
func InferSchema(example map[string]any) (Schema, error) {
	keys := sortedKeys(example)
	schema := make(Schema, 0, len(example))
	for _, k := range keys {
		t, err := inferType(example[k])
		if err != nil {
			return nil, fmt.Errorf("infer column %q: %w", k, err)
		}
		schema = append(schema, ColSpec{Name: k, Type: t})
	}
	return schema, nil
}

// InferSignature derives a signature from example input and output records.
func InferSignature(input, output map[string]any) (Signature, error) {
	in, err := InferSchema(input)
	if err != nil {
		return Signature{}, fmt.Errorf("signature inputs: %w", err)
	}
	out, err := InferSchema(output)
	if err != nil {
		return Signature{}, fmt.Errorf("signature outputs: %w", err)
	}
	return Signature{Inputs: in, Outputs: out}, nil
}

// Validate checks a record against the schema: every declared column must be
// present with a compatible type, and no undeclared columns are allowed.
func (s Schema) Validate(record map[string]any) error {
	if len(record) != len(s) {
		return Validationf("expected %d column(s), got %d", len(s), len(record))
	}
	for _, col := range s {
		v, ok := record[col.Name]
		if !ok {
			return Validationf("missing column %q", col.Name)
		}
		if !typeMatches(col.Type, v) {
			return Validationf("column %q: expected %s, got %T", col.Name, col.Type, v)
		}
	}
	return nil
}

// Columns returns the column names in schema order.
func (s Schema) Columns() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

func inferType(v any) (ColType, error) {
	switch v.(type) {
	case string:
		return TypeString, nil
	case float32, float64:
		return TypeDouble, nil
	case int, int32, int64:
		return TypeLong, nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func typeMatches(t ColType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeDouble:
		switch v.(type) {
		case float32, float64:
			return true
		// JSON decodes all numbers as float64; accept ints for double columns.
		case int, int32, int64:
			return true
		}
		return false
	case TypeLong:
		switch v.(type) {
		case int, int32, int64:
			return true
		case float64:
			f := v.(float64)
			return f == float64(int64(f))
		}
		return false
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort; schemas are tiny.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
