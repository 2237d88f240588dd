package service

import (
	"errors"
	"testing"

	"ainews/internal/featureflags"
	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/repository/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) *repository.Stores {
	t.Helper()
	return docstore.NewStores(docstore.New())
}

func newFlags(t *testing.T, raw string) *featureflags.Set {
	t.Helper()
	flags, err := featureflags.Parse(raw)
	require.NoError(t, err)
	return flags
}

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}
