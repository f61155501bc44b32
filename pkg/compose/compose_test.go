package compose_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/masterlink/pkg/compose"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/table"
)

func people() *table.Table {
	return table.FromRows([]table.Row{
		{"first": "Jane", "last": "Doe", "mail": "jane@x.com"},
		{"first": "Carl", "last": nil, "mail": nil},
		{"first": "Ana", "last": "Lima", "mail": "ana@x.com"},
	}, "first", "last", "mail")
}

func TestColumnMulti(t *testing.T) {
	col, err := compose.Column(people(), registry.Columns("first", "last"), " ")
	require.NoError(t, err)
	assert.Equal(t, []any{"Jane Doe", nil, "Ana Lima"}, col)
}

func TestColumnSeparator(t *testing.T) {
	col, err := compose.Column(people(), registry.Columns("last", "first"), ", ")
	require.NoError(t, err)
	assert.Equal(t, "Doe, Jane", col[0])
}

func TestColumnSingleUnchanged(t *testing.T) {
	tbl := table.FromRows([]table.Row{{"id": int64(4)}, {"id": nil}}, "id")
	col, err := compose.Column(tbl, registry.Single("id"), " ")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), nil}, col)
}

func TestColumnErrors(t *testing.T) {
	_, err := compose.Column(people(), registry.FieldSpec{}, " ")
	assert.True(t, errors.IsValidationError(err))

	_, err = compose.Column(people(), registry.Columns("first", "middle"), " ")
	assert.True(t, errors.IsValidationError(err))
}

func TestReassign(t *testing.T) {
	in := people()
	out, err := compose.Reassign(in, map[string]registry.FieldSpec{
		"name":  registry.Columns("first", "last"),
		"email": registry.Single("mail"),
	}, " ")
	require.NoError(t, err)

	assert.Equal(t, []any{"Jane Doe", nil, "Ana Lima"}, out.Column("name"))
	assert.Equal(t, []any{"jane@x.com", nil, "ana@x.com"}, out.Column("email"))
	assert.Equal(t, 3, out.Len())
	assert.False(t, in.HasColumn("name"), "input must not change")
}

func TestReassignReadsInputColumns(t *testing.T) {
	in := table.FromRows([]table.Row{{"email": "work@x.com", "name": "j@x.com"}}, "email", "name")
	out, err := compose.Reassign(in, map[string]registry.FieldSpec{
		"email": registry.Single("name"),
		"name":  registry.Single("email"),
	}, " ")
	require.NoError(t, err)
	assert.Equal(t, "j@x.com", out.Row(0).Get("email"))
	assert.Equal(t, "work@x.com", out.Row(0).Get("name"))
}

func TestReassignUnknownColumn(t *testing.T) {
	_, err := compose.Reassign(people(), map[string]registry.FieldSpec{"name": registry.Single("full_name")}, " ")
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}
