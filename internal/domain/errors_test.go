package domain

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(NotFound("code %s", "X")))
	assert.Equal(t, KindStorageFailure, KindOf(errors.New("disk full")))

	wrapped := pkgerrors.Wrap(Conflict("token already used"), "consume")
	assert.True(t, IsKind(wrapped, KindConflict))
}

func TestStorageFailureUnwrap(t *testing.T) {
	cause := errors.New("locked")
	err := StorageFailure(cause, "save product")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save product")
}

func TestValidTokenType(t *testing.T) {
	assert.True(t, ValidTokenType("login"))
	assert.True(t, ValidTokenType("logout"))
	assert.False(t, ValidTokenType("admin"))
}
