package match

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/masterlink"
	"github.com/agentstation/masterlink/internal/appcontext"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/provenance"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/store/memory"
	"github.com/agentstation/masterlink/pkg/table"
)

func testRegistry() *registry.Registry {
	return &registry.Registry{
		Fields:   []string{"email", "name"},
		Priority: []string{"salesforcecontacts", "volgistics"},
		Sources: map[string]*registry.Source{
			"salesforcecontacts": {
				Name:       "salesforcecontacts",
				PrimaryKey: "contact_id",
				Fields: map[string]registry.FieldSpec{
					"email": registry.Single("email"),
					"name":  registry.Columns("first_name", "last_name"),
				},
			},
			"volgistics": {
				Name:       "volgistics",
				PrimaryKey: "number",
				Fields: map[string]registry.FieldSpec{
					"email": registry.Single("email"),
					"name":  registry.Single("first_name_last_name"),
				},
			},
		},
	}
}

func testStore() *memory.Store {
	return memory.New(memory.WithTables(map[string]*table.Table{
		"master": table.FromRows([]table.Row{
			{"_id": int64(1), "salesforcecontacts_id": "c1", "volgistics_id": nil},
		}, "_id", "salesforcecontacts_id", "volgistics_id"),
		"salesforcecontacts": table.FromRows([]table.Row{
			{"contact_id": "c1", "email": "jane@x.com", "first_name": "Jane", "last_name": "Doe"},
		}, "contact_id", "email", "first_name", "last_name"),
		"volgistics": table.New("number", "email", "first_name_last_name"),
	}))
}

func testApp(store *memory.Store) *appcontext.Mock {
	base := []masterlink.Option{
		masterlink.WithRegistry(testRegistry()),
		masterlink.WithReader(store),
	}
	return &appcontext.Mock{
		ClientFunc: func() (masterlink.Client, error) {
			return masterlink.New(base...)
		},
		ClientWithOptionsFunc: func(opts ...masterlink.Option) (masterlink.Client, error) {
			return masterlink.New(append(base, opts...)...)
		},
	}
}

func execute(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatchJSON(t *testing.T) {
	logging.DisableLoggingForTest(t)

	out, err := execute(t, testApp(testStore()), "--batch", "testdata/batch.yaml")
	require.NoError(t, err)

	var got struct {
		NewMatches     []map[string]any `json:"new_matches"`
		UpdatedMatches []map[string]any `json:"updated_matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []map[string]any{{"salesforcecontacts_id": "c9", "volgistics_id": nil}}, got.NewMatches)
	assert.Empty(t, got.UpdatedMatches)
}

func TestMatchLogsCommandFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	app := testApp(testStore())
	app.LoggerFunc = func() *zerolog.Logger { return tl.Logger }

	_, err := execute(t, app, "--batch", "testdata/batch.yaml")
	require.NoError(t, err)

	tl.AssertContains(t, "linkage run complete")
	tl.AssertContains(t, `"command":"match"`)
	tl.AssertContains(t, `"batch":"testdata/batch.yaml"`)
}

func TestMatchTable(t *testing.T) {
	logging.DisableLoggingForTest(t)

	app := testApp(testStore())
	app.OutputFormatFunc = func() string { return "wide" }

	out, err := execute(t, app, "--batch", "testdata/batch.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "c9")
	assert.Contains(t, out, "New identities")
}

func TestMatchRejectsUpdates(t *testing.T) {
	logging.DisableLoggingForTest(t)

	store := testStore()
	_, err := execute(t, testApp(store), "--batch", "testdata/updates.json")
	require.Error(t, err)
	assert.True(t, errors.IsUnsupported(err))
	assert.Empty(t, store.Reads())
}

func TestMatchWritesProvenance(t *testing.T) {
	logging.DisableLoggingForTest(t)

	path := filepath.Join(t.TempDir(), "provenance.yaml")
	_, err := execute(t, testApp(testStore()), "--batch", "testdata/batch.yaml", "--provenance", path)
	require.NoError(t, err)

	file, err := provenance.Load(path)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.NotEmpty(t, file.RunID)
	assert.NotEmpty(t, file.Provenance)
}

func TestMatchRequiresBatch(t *testing.T) {
	_, err := execute(t, testApp(testStore()))
	assert.Error(t, err)
}

func TestMatchMissingBatchFile(t *testing.T) {
	_, err := execute(t, testApp(testStore()), "--batch", "testdata/absent.yaml")
	assert.Error(t, err)
}

func TestStoreTarget(t *testing.T) {
	app := &appcontext.Mock{
		StoreFunc: func() (string, string) { return "postgres", "postgres://configured" },
	}

	tests := []struct {
		name       string
		flags      Flags
		wantDriver string
		wantDSN    string
	}{
		{"dsn keeps configured driver", Flags{DSN: "postgres://override"}, "postgres", "postgres://override"},
		{"driver keeps configured dsn", Flags{Driver: "mysql"}, "mysql", "postgres://configured"},
		{"both overridden", Flags{Driver: "sqlite", DSN: "./identity.db"}, "sqlite", "./identity.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := storeTarget(app, &tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestStoreTargetNeedsDSN(t *testing.T) {
	_, _, err := storeTarget(&appcontext.Mock{}, &Flags{Driver: "postgres"})
	var ce *errors.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestMatchDSNUsesConfiguredDriver(t *testing.T) {
	logging.DisableLoggingForTest(t)

	app := &appcontext.Mock{
		StoreFunc: func() (string, string) { return "oracle", "" },
		ClientWithOptionsFunc: func(opts ...masterlink.Option) (masterlink.Client, error) {
			return masterlink.New(append([]masterlink.Option{masterlink.WithRegistry(testRegistry())}, opts...)...)
		},
	}

	_, err := execute(t, app, "--batch", "testdata/batch.yaml", "--dsn", "oracle://identity")
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "driver", ve.Field)
	assert.Equal(t, "oracle", ve.Value)
}
