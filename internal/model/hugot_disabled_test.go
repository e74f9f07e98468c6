//go:build !hugot

package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_HugotNotCompiledIn(t *testing.T) {
	dir := copyFixture(t)
	vectorizer := `{"type":"hugot","model_path":"onnx","dimension":5}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorizerFile), []byte(vectorizer), 0o644))

	bundle, err := Load(dir)
	assert.Nil(t, bundle)
	assert.ErrorIs(t, err, ErrInvalidBundle)
	assert.ErrorContains(t, err, `unsupported vectorizer type "hugot"`)
}
