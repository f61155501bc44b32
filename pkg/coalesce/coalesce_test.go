package coalesce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/masterlink/pkg/coalesce"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/provenance"
	"github.com/agentstation/masterlink/pkg/table"
)

var fields = []string{"email", "name"}

func master() *table.Table {
	return table.FromRows([]table.Row{
		{"id": 1, "high_id": "h1", "low_id": "l1"},
		{"id": 2, "high_id": nil, "low_id": "l2"},
		{"id": 3, "high_id": nil, "low_id": nil},
	}, "id", "high_id", "low_id")
}

func high() coalesce.Source {
	return coalesce.Source{Name: "high", Key: "high_id", Table: table.FromRows([]table.Row{
		{"high_id": "h1", "email": "high@x.com", "name": nil},
	}, "high_id", "email", "name")}
}

func low() coalesce.Source {
	return coalesce.Source{Name: "low", Key: "low_id", Table: table.FromRows([]table.Row{
		{"low_id": "l1", "email": "low@x.com", "name": "Jane Doe"},
		{"low_id": "l2", "email": "carl@x.com", "name": "Carl"},
	}, "low_id", "email", "name")}
}

func TestCoalescePriority(t *testing.T) {
	out, err := coalesce.Coalesce(master(), []coalesce.Source{high(), low()}, fields)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	// both sources have email: the higher priority wins
	assert.Equal(t, "high@x.com", out.Row(0).Get("email"))
	// only the lower priority has the name
	assert.Equal(t, "Jane Doe", out.Row(0).Get("name"))
	// no high link at all
	assert.Equal(t, "carl@x.com", out.Row(1).Get("email"))
	// unlinked master rows get nothing
	assert.Nil(t, out.Row(2).Get("email"))
	assert.Nil(t, out.Row(2).Get("name"))
}

func TestCoalesceRowOrderIndependent(t *testing.T) {
	h := high()
	l := low()
	reversed := coalesce.Source{Name: l.Name, Key: l.Key, Table: table.FromRows([]table.Row{
		l.Table.Row(1), l.Table.Row(0),
	}, "low_id", "email", "name")}

	a, err := coalesce.Coalesce(master(), []coalesce.Source{h, l}, fields)
	require.NoError(t, err)
	b, err := coalesce.Coalesce(master(), []coalesce.Source{h, reversed}, fields)
	require.NoError(t, err)
	assert.Equal(t, a.Records(), b.Records())
}

func TestCoalesceResetsPersistedFields(t *testing.T) {
	m := table.FromRows([]table.Row{{"low_id": "l9", "email": "stale@x.com", "name": "stale"}}, "low_id", "email", "name")
	out, err := coalesce.Coalesce(m, []coalesce.Source{low()}, fields)
	require.NoError(t, err)
	assert.Nil(t, out.Row(0).Get("email"))
	assert.Equal(t, "stale@x.com", m.Row(0).Get("email"), "input must not change")
}

func TestCoalesceKeyForms(t *testing.T) {
	m := table.FromRows([]table.Row{{"low_id": float64(7)}, {"low_id": int64(8)}}, "low_id")
	src := coalesce.Source{Name: "low", Key: "low_id", Table: table.FromRows([]table.Row{
		{"low_id": "7", "email": "seven@x.com", "name": "seven"},
		{"low_id": " 8 ", "email": "eight@x.com", "name": "eight"},
	}, "low_id", "email", "name")}

	out, err := coalesce.Coalesce(m, []coalesce.Source{src}, fields)
	require.NoError(t, err)
	assert.Equal(t, []any{"seven@x.com", "eight@x.com"}, out.Column("email"))
}

func TestCoalesceDuplicateKeysWarn(t *testing.T) {
	logger := logging.NewTestLogger(t)
	src := coalesce.Source{Name: "low", Key: "low_id", Table: table.FromRows([]table.Row{
		{"low_id": "l1", "email": "first@x.com", "name": "first"},
		{"low_id": "l1", "email": "second@x.com", "name": "second"},
	}, "low_id", "email", "name")}

	out, err := coalesce.Coalesce(master(), []coalesce.Source{src}, fields, coalesce.WithLogger(logger.Logger))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len(), "master rows are never duplicated")
	assert.Equal(t, "first@x.com", out.Row(0).Get("email"))
	logger.AssertContains(t, `"duplicate_keys":1`)
	logger.AssertContains(t, `"source":"low"`)
}

func TestCoalesceMasterWithoutLinkColumn(t *testing.T) {
	m := table.FromRows([]table.Row{{"id": 1}}, "id")
	out, err := coalesce.Coalesce(m, []coalesce.Source{low()}, fields)
	require.NoError(t, err)
	assert.Nil(t, out.Row(0).Get("email"))
	assert.True(t, out.HasColumn("email"))
}

func TestCoalesceValidation(t *testing.T) {
	bad := coalesce.Source{Name: "low", Key: "low_id", Table: table.FromRows([]table.Row{{"low_id": "l1"}}, "low_id")}
	_, err := coalesce.Coalesce(master(), []coalesce.Source{bad}, fields)
	assert.True(t, errors.IsValidationError(err))

	_, err = coalesce.Coalesce(master(), []coalesce.Source{{Name: "nil", Key: "x"}}, fields)
	assert.True(t, errors.IsValidationError(err))

	_, err = coalesce.Coalesce(master(), nil, fields, coalesce.WithTracker(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestCoalesceTracksProvenance(t *testing.T) {
	tracker := provenance.NewTracker(true)
	_, err := coalesce.Coalesce(master(), []coalesce.Source{high(), low()}, fields,
		coalesce.WithTracker(tracker), coalesce.WithIDColumn("id"))
	require.NoError(t, err)

	email := tracker.FindByField("master", "1", "email")
	require.Len(t, email, 2)
	assert.Equal(t, "high", email[0].Source)
	assert.True(t, email[0].Selected)
	assert.Equal(t, "low", email[1].Source)
	assert.False(t, email[1].Selected)

	report := provenance.GenerateReport(tracker.Map())
	require.Len(t, report.Rows["master:1"].Fields["email"].Conflicts, 1)

	assert.Empty(t, tracker.FindByRow("master", "3"))
}
