package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

type level string

func newLevels() *Normalizer[level] {
	return NewNormalizer("log level", map[string]level{
		"debug": "debug",
		"INFO":  "info",
	}, "info")
}

func TestNormalize(t *testing.T) {
	n := newLevels()
	assert.Equal(t, level("debug"), n.Normalize("  Debug "))
	assert.Equal(t, level("info"), n.Normalize("info"))
	assert.Equal(t, level("info"), n.Normalize("verbose"), "unknown falls back to default")
}

func TestParse(t *testing.T) {
	n := newLevels()

	v, err := n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, level("info"), v)

	v, err = n.Parse("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, level("debug"), v)

	_, err = n.Parse("trace")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	ce, _ := ferrors.AsClassified(err)
	valid, _ := ce.Field("valid")
	assert.Equal(t, "debug, info", valid)
}

func TestValidKeysIsCopy(t *testing.T) {
	n := newLevels()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"debug", "info"}, n.ValidKeys())
}
