package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/masterlink/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "table",
			ID:       "volgistics",
		}
		assert.Equal(t, "table with ID volgistics not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("table", "master")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "priority",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field priority: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid registry"}
		assert.Equal(t, "validation failed: invalid registry", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestUnsupportedOperationError(t *testing.T) {
	err := pkgerrors.NewUnsupportedOperationError("record updates", "petpoint", "volgistics")
	assert.Contains(t, err.Error(), "record updates")
	assert.Contains(t, err.Error(), "petpoint, volgistics")
	assert.True(t, pkgerrors.IsUnsupported(err))
	assert.False(t, pkgerrors.IsMissingConfig(err))

	bare := pkgerrors.NewUnsupportedOperationError("record updates")
	assert.Equal(t, "unsupported operation record updates", bare.Error())
}

func TestMissingConfigurationError(t *testing.T) {
	err := pkgerrors.NewMissingConfigurationError("shelterluv")
	assert.Equal(t, `source "shelterluv" is not configured in the registry`, err.Error())
	assert.True(t, pkgerrors.IsMissingConfig(err))

	var target *pkgerrors.MissingConfigurationError
	require.True(t, errors.As(errors.Join(errors.New("run failed"), err), &target))
	assert.Equal(t, "shelterluv", target.Source)
}

func TestStoreError(t *testing.T) {
	t.Run("with table", func(t *testing.T) {
		baseErr := errors.New("connection refused")
		err := pkgerrors.NewStoreError("read", "master", baseErr)
		assert.Equal(t, "store read of table master: connection refused", err.Error())
		assert.True(t, pkgerrors.IsStoreRead(err))
		assert.Equal(t, baseErr, err.Unwrap())
		assert.True(t, errors.Is(err, baseErr))
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapStore("read", "master", nil))
		err := pkgerrors.WrapStore("open", "", errors.New("bad dsn"))
		assert.Equal(t, "store open: bad dsn", err.Error())
		assert.True(t, pkgerrors.IsStoreRead(err))
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("registry", "priority must list every source", nil)
	assert.Contains(t, err.Error(), "registry")
	assert.Contains(t, err.Error(), "priority must list every source")

	bare := &pkgerrors.ConfigError{Message: "no registry configured"}
	assert.Equal(t, "configuration error: no registry configured", bare.Error())
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "/data/output.txt", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("lock", "/tmp/masterlink.lock", errors.New("permission denied"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "lock", ioErr.Operation)
		assert.Equal(t, "/tmp/masterlink.lock", ioErr.Path)
		assert.Nil(t, pkgerrors.WrapIO("lock", "x", nil))
	})
}

func TestParseError(t *testing.T) {
	err := pkgerrors.WrapParse("yaml", "registry.yaml", errors.New("unexpected key"))
	assert.Equal(t, "parse error in yaml file registry.yaml: unexpected key", err.Error())

	anon := pkgerrors.NewParseError("json", "", "bad token", nil)
	assert.Equal(t, "json parse error: bad token", anon.Error())
}

func TestWrapValidation(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapValidation("fields", nil))
	err := pkgerrors.WrapValidation("fields", errors.New("duplicate field name"))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestIsLocked(t *testing.T) {
	assert.True(t, pkgerrors.IsLocked(pkgerrors.ErrLocked))
	assert.False(t, pkgerrors.IsLocked(errors.New("other")))
}
