package batchfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/masterlink/internal/batchfile"
	"github.com/agentstation/masterlink/pkg/errors"
)

func TestLoadYAML(t *testing.T) {
	b, err := batchfile.Load(filepath.Join("testdata", "batch.yaml"))
	require.NoError(t, err)
	require.Len(t, b.NewRows["salesforcecontacts"], 1)
	assert.Equal(t, "c9", b.NewRows["salesforcecontacts"][0].Get("contact_id"))
	assert.Empty(t, b.UpdatedRows)
}

func TestLoadJSON(t *testing.T) {
	b, err := batchfile.Load(filepath.Join("testdata", "batch.json"))
	require.NoError(t, err)
	row := b.NewRows["petpoint"][0]
	assert.Equal(t, int64(1234), row.Get("outcome_person_id"))
	assert.Equal(t, 1.5, row.Get("score"))
}

func TestLoadSniffsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{"new_rows":{"volgistics":[{"number":"v1"}]}}`), 0o644))

	b, err := batchfile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Size())
}

func TestLoadErrors(t *testing.T) {
	_, err := batchfile.Load(filepath.Join(t.TempDir(), "missing.json"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"new_rows":`), 0o644))
	_, err = batchfile.Load(path)
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.File)
}

func TestDecodeEmpty(t *testing.T) {
	b, err := batchfile.Decode([]byte(`{}`), batchfile.FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, b.NewRows)
	assert.Equal(t, 0, b.Size())

	_, err = batchfile.Decode([]byte(`{}`), "toml")
	assert.True(t, errors.IsValidationError(err))
}

func TestSniff(t *testing.T) {
	assert.Equal(t, batchfile.FormatJSON, batchfile.Sniff([]byte("  {\"a\":1}")))
	assert.Equal(t, batchfile.FormatYAML, batchfile.Sniff([]byte("new_rows: {}")))
}

func TestYAMLIntegersAreInt64(t *testing.T) {
	b, err := batchfile.Decode([]byte("new_rows:\n  petpoint:\n    - id: 42\n"), batchfile.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, int64(42), b.NewRows["petpoint"][0].Get("id"))
}
