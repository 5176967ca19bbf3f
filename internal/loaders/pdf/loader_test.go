package pdf

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

func TestLoad_EmptyPath(t *testing.T) {
	loader := New()

	doc, err := loader.Load(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestLoad_MissingFile(t *testing.T) {
	loader := New()
	path := filepath.Join(t.TempDir(), "no_such_document.pdf")

	doc, err := loader.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingInput), "missing file must map to ErrMissingInput, got: %v", err)
	assert.Nil(t, doc)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/pm_kisan_rules.pdf", "pm kisan rules"},
		{"/tmp/scheme-guidelines.PDF", "scheme guidelines"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractTitle(tt.path))
	}
}
