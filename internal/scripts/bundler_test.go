package scripts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/themebuilder/internal/layout"
)

func newTheme(t *testing.T, files map[string]string) layout.Theme {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	th, err := layout.New(root)
	require.NoError(t, err)
	return th
}

const menuJS = `(function () {
  var toggleButton = document.querySelector('.menu-toggle');
  toggleButton.addEventListener('click', function () {
    document.body.classList.toggle('menu-open');
  });
})();
`

const sliderJS = `function initSlider(container) {
  var slideCount = container.children.length;
  return slideCount;
}
window.initSlider = initSlider;
`

func TestRun_WritesBundleInLexicalOrder(t *testing.T) {
	th := newTheme(t, map[string]string{
		"lib/b-slider.js": sliderJS,
		"lib/a-menu.js":   menuJS,
	})
	b := NewBundler(th)

	require.NoError(t, b.Run(t.Context()))

	out, err := os.ReadFile(th.Path("js/main.js"))
	require.NoError(t, err)
	s := string(out)
	assert.Less(t, strings.Index(s, "menu-open"), strings.Index(s, "initSlider"))
	assert.NotContains(t, s, "toggleButton", "locals should be renamed")
	assert.Contains(t, s, "function initSlider(", "top-level names are kept")
	assert.Less(t, len(out), len(menuJS)+len(sliderJS))
}

func TestBundle_EditIsolatedToOneRegion(t *testing.T) {
	th := newTheme(t, map[string]string{
		"lib/a-menu.js":   menuJS,
		"lib/b-slider.js": sliderJS,
	})
	b := NewBundler(th)
	sources, err := th.Glob(layout.LibGlob)
	require.NoError(t, err)

	before, err := b.Bundle(t.Context(), sources)
	require.NoError(t, err)

	edited := strings.ReplaceAll(sliderJS, "slideCount", "totalSlides") + "console.log('ready');\n"
	require.NoError(t, os.WriteFile(th.Path("lib/b-slider.js"), []byte(edited), 0o644))

	after, err := b.Bundle(t.Context(), sources)
	require.NoError(t, err)

	menuOnly, err := Minify("a-menu.js", []byte(menuJS))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(before, menuOnly))
	assert.True(t, bytes.HasPrefix(after, menuOnly), "unrelated file region must not change")
	assert.NotEqual(t, before, after)
}

func TestRun_Deterministic(t *testing.T) {
	th := newTheme(t, map[string]string{"lib/a.js": menuJS, "lib/b.js": sliderJS})
	b := NewBundler(th)

	require.NoError(t, b.Run(t.Context()))
	first, err := os.ReadFile(b.OutputPath())
	require.NoError(t, err)
	require.NoError(t, b.Run(t.Context()))
	second, err := os.ReadFile(b.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_SyntaxErrorAbortsWithoutWriting(t *testing.T) {
	th := newTheme(t, map[string]string{
		"lib/a.js":   menuJS,
		"lib/b.js":   "function (\n",
		"js/main.js": "previous bundle\n",
	})

	err := NewBundler(th).Run(t.Context())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTransform))
	assert.Contains(t, err.Error(), "b.js")

	out, readErr := os.ReadFile(th.Path("js/main.js"))
	require.NoError(t, readErr)
	assert.Equal(t, "previous bundle\n", string(out))
}

func TestRun_EmptyLibraryIsNoop(t *testing.T) {
	th := newTheme(t, map[string]string{"lib/readme.txt": "not a script"})

	require.NoError(t, NewBundler(th).Run(t.Context()))

	_, err := os.Stat(th.Path("js/main.js"))
	assert.True(t, os.IsNotExist(err))
}

func TestBundle_CanceledContext(t *testing.T) {
	th := newTheme(t, map[string]string{"lib/a.js": menuJS})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewBundler(th).Bundle(ctx, []string{th.Path("lib/a.js")})
	require.ErrorIs(t, err, context.Canceled)
}
