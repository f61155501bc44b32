package registry

import (
	"encoding/json"
	"strings"

	"github.com/agentstation/masterlink/pkg/errors"
)

// FieldSpec lists the raw source columns that make up one tracked field.
// A single column is used as is; several are joined in order.
//
// In YAML and JSON a FieldSpec is written either as a scalar
// (email: email_address) or as a list (name: [first_name, last_name]).
type FieldSpec []string

// Single returns a FieldSpec for one column.
func Single(column string) FieldSpec {
	return FieldSpec{column}
}

// Columns returns a FieldSpec for several columns.
func Columns(columns ...string) FieldSpec {
	return FieldSpec(columns)
}

// String implements fmt.Stringer.
func (f FieldSpec) String() string {
	return strings.Join(f, "+")
}

// UnmarshalYAML implements yaml.InterfaceUnmarshaler.
func (f *FieldSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*f = FieldSpec{single}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return errors.NewValidationError("field", nil, "expected a column name or a list of column names")
	}
	*f = FieldSpec(list)
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (f FieldSpec) MarshalYAML() (any, error) {
	if len(f) == 1 {
		return f[0], nil
	}
	return []string(f), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FieldSpec{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.NewValidationError("field", string(data), "expected a column name or a list of column names")
	}
	*f = FieldSpec(list)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FieldSpec) MarshalJSON() ([]byte, error) {
	if len(f) == 1 {
		return json.Marshal(f[0])
	}
	return json.Marshal([]string(f))
}
