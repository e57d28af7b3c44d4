package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

// run parses args and executes the selected command, returning stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("themebuilder"), Vars("test"))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&Global{Context: t.Context(), Stdout: &out}, &cli)
	return out.String(), err
}

func writeTheme(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestTasks_ListsRegisteredNames(t *testing.T) {
	out, err := run(t, "tasks", "-r", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "imagemin\nsass\nuglify\nwatch\n", out)
}

func TestSass_CompilesIntoRoot(t *testing.T) {
	root := writeTheme(t, map[string]string{"sass/style.scss": "a { b: c; }\n"})

	_, err := run(t, "sass", "--root", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "css", "style.css"))
	assert.FileExists(t, filepath.Join(root, "css", "style.css.map"))
}

func TestBuild_RunsAllOneShotTasks(t *testing.T) {
	root := writeTheme(t, map[string]string{
		"sass/style.scss": "a { b: c; }\n",
		"lib/a.js":        "var greeting = 'hi';\n",
	})

	_, err := run(t, "build", "-r", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "css", "style.css"))
	assert.FileExists(t, filepath.Join(root, "js", "main.js"))
}

func TestBuild_SyntaxErrorIsTransformError(t *testing.T) {
	root := writeTheme(t, map[string]string{"lib/a.js": "function (\n"})

	_, err := run(t, "uglify", "-r", root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTransform))
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestConfigFile_SetsThemeRoot(t *testing.T) {
	root := writeTheme(t, map[string]string{"lib/a.js": "var x = 1;\n"})
	cfgPath := filepath.Join(t.TempDir(), "themebuilder.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("theme_root: "+root+"\n"), 0o644))

	_, err := run(t, "uglify", "-c", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "js", "main.js"))
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "tasks", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInit_WritesConfigOnce(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "themebuilder.yaml")

	out, err := run(t, "init", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, cfgPath)

	_, err = run(t, "init", "-c", cfgPath)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = run(t, "init", "-c", cfgPath, "--force")
	require.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "deploy")
	require.Error(t, err)
}
