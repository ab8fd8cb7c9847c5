package combine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"filestoprompt/pkg/notebook"
)

type testEnv struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	engine *Engine
}

func newTestEnv(opts ...Option) *testEnv {
	env := &testEnv{}
	env.engine = NewEngine(NewWriterSink(&env.out, &env.errOut, false), nil, opts...)
	return env
}

func (env *testEnv) run(t *testing.T, cfg *ProcessingConfig, paths ...string) (Stats, error) {
	t.Helper()
	return env.engine.Run(context.Background(), paths, cfg)
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	env := newTestEnv()

	stats, err := env.run(t, &ProcessingConfig{}, file1)
	require.NoError(t, err)

	assert.Equal(t, file1+"\n---\nFile 1 contents\n---\n", env.out.String())
	assert.Empty(t, env.errOut.String())
	assert.Equal(t, 1, stats.Emitted)
}

func TestRunMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	file2 := writeFile(t, filepath.Join(dir, "file2.txt"), "File 2 contents")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, file1, file2)
	require.NoError(t, err)

	out := env.out.String()
	assert.Contains(t, out, file1)
	assert.Contains(t, out, "File 1 contents")
	assert.Contains(t, out, file2)
	assert.Contains(t, out, "File 2 contents")
	assert.Less(t, strings.Index(out, file1), strings.Index(out, file2))
}

func TestRunNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	deep := writeFile(t, filepath.Join(dir, "dir1", "dir2", "file.txt"), "File contents")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	assert.Contains(t, env.out.String(), deep)
	assert.Contains(t, env.out.String(), "File contents")
}

func TestRunFilesBeforeSubdirectories(t *testing.T) {
	dir := t.TempDir()
	nested := writeFile(t, filepath.Join(dir, "a", "nested.txt"), "nested")
	top := writeFile(t, filepath.Join(dir, "z.txt"), "top")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	out := env.out.String()
	require.Contains(t, out, top)
	require.Contains(t, out, nested)
	assert.Less(t, strings.Index(out, top), strings.Index(out, nested))
}

func TestRunIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	file2 := writeFile(t, filepath.Join(dir, "file2.txt"), "File 2 contents")
	env := newTestEnv()

	stats, err := env.run(t, &ProcessingConfig{IgnorePatterns: []string{"file1.txt"}}, dir)
	require.NoError(t, err)

	assert.NotContains(t, env.out.String(), file1)
	assert.Contains(t, env.out.String(), file2)
	assert.Equal(t, 1, stats.Ignored)
}

func TestRunIgnorePatternsApplyToTopLevelFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.log"), "log")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{IgnorePatterns: []string{"*.log"}}, file1)
	require.NoError(t, err)
	assert.Empty(t, env.out.String())
}

func TestRunIgnorePatternsDoNotBlockDescent(t *testing.T) {
	dir := t.TempDir()
	inner := writeFile(t, filepath.Join(dir, "build", "out.txt"), "inner")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{IgnorePatterns: []string{"build"}}, dir)
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), inner)
}

func TestRunGitignore(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	file2 := writeFile(t, filepath.Join(dir, "file2.txt"), "File 2 contents")
	writeFile(t, filepath.Join(dir, ".gitignore"), "file1.txt")

	t.Run("honored", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.run(t, &ProcessingConfig{}, dir)
		require.NoError(t, err)

		assert.NotContains(t, env.out.String(), file1)
		assert.NotContains(t, env.out.String(), "File 1 contents")
		assert.Contains(t, env.out.String(), file2)
		assert.Contains(t, env.out.String(), "File 2 contents")
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.run(t, &ProcessingConfig{IgnoreGitignore: true}, dir)
		require.NoError(t, err)

		assert.Contains(t, env.out.String(), file1)
		assert.Contains(t, env.out.String(), "File 1 contents")
	})
}

func TestRunGitignoreDirectoryPattern(t *testing.T) {
	dir := t.TempDir()
	blocked := writeFile(t, filepath.Join(dir, "dir1", "file.txt"), "blocked")
	kept := writeFile(t, filepath.Join(dir, "dir2", "file.txt"), "kept")
	writeFile(t, filepath.Join(dir, ".gitignore"), "# build output\ndir1/\n")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	assert.NotContains(t, env.out.String(), blocked)
	assert.Contains(t, env.out.String(), kept)
}

func TestRunGitignoreScopedToSubtree(t *testing.T) {
	dir := t.TempDir()
	leftA := writeFile(t, filepath.Join(dir, "left", "a.txt"), "left a")
	leftB := writeFile(t, filepath.Join(dir, "left", "b.txt"), "left b")
	rightA := writeFile(t, filepath.Join(dir, "right", "a.txt"), "right a")
	rightB := writeFile(t, filepath.Join(dir, "right", "b.txt"), "right b")
	writeFile(t, filepath.Join(dir, "left", ".gitignore"), "a.txt")
	writeFile(t, filepath.Join(dir, "right", ".gitignore"), "b.txt")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	out := env.out.String()
	assert.NotContains(t, out, leftA)
	assert.Contains(t, out, leftB)
	assert.Contains(t, out, rightA)
	assert.NotContains(t, out, rightB)
}

func TestRunGitignoreInheritedByDescendants(t *testing.T) {
	dir := t.TempDir()
	deep := writeFile(t, filepath.Join(dir, "sub", "deeper", "secret.txt"), "secret")
	other := writeFile(t, filepath.Join(dir, "sub", "deeper", "other.txt"), "other")
	writeFile(t, filepath.Join(dir, ".gitignore"), "secret.txt")
	writeFile(t, filepath.Join(dir, "sub", ".gitignore"), "unrelated.txt")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	assert.NotContains(t, env.out.String(), deep)
	assert.Contains(t, env.out.String(), other)
}

func TestRunHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	hiddenFile := writeFile(t, filepath.Join(dir, ".hidden-file.txt"), "Hidden file contents")
	hiddenDirFile := writeFile(t, filepath.Join(dir, ".hidden-dir", "file.txt"), "Hidden dir file contents")
	visible := writeFile(t, filepath.Join(dir, "sub", "visible.txt"), "visible")
	nestedHidden := writeFile(t, filepath.Join(dir, "sub", ".nested"), "nested hidden")

	t.Run("excluded by default", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.run(t, &ProcessingConfig{}, dir)
		require.NoError(t, err)

		out := env.out.String()
		assert.NotContains(t, out, hiddenFile)
		assert.NotContains(t, out, hiddenDirFile)
		assert.NotContains(t, out, nestedHidden)
		assert.Contains(t, out, visible)
	})

	t.Run("included", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.run(t, &ProcessingConfig{IncludeHidden: true}, dir)
		require.NoError(t, err)

		out := env.out.String()
		assert.Contains(t, out, hiddenFile)
		assert.Contains(t, out, "Hidden file contents")
		assert.Contains(t, out, hiddenDirFile)
		assert.Contains(t, out, "Hidden dir file contents")
		assert.Contains(t, out, nestedHidden)
	})
}

func TestRunBinaryFile(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "image.bin")
	require.NoError(t, os.WriteFile(bin, []byte{'P', 'N', 'G', 0x89, 0x00}, 0o644))
	text := writeFile(t, filepath.Join(dir, "text.txt"), "text")
	env := newTestEnv()

	stats, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	assert.Contains(t, env.errOut.String(), "Skipping binary file "+bin)
	assert.NotContains(t, env.out.String(), bin)
	assert.NotContains(t, env.out.String(), "PNG")
	assert.Contains(t, env.out.String(), text)
	assert.Equal(t, 1, stats.Binary)
}

func TestRunMissingPath(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	missing := filepath.Join(dir, "missing.txt")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, file1, missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathNotExist))
	assert.Contains(t, env.errOut.String(), "does not exist")
	assert.Contains(t, env.errOut.String(), missing)
	assert.Empty(t, env.out.String())
}

func TestRunSymlinkInDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, filepath.Join(t.TempDir(), "target.txt"), "outside")
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not available: %v", err)
	}
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)
	assert.NotContains(t, env.out.String(), "outside")
	assert.Empty(t, env.errOut.String())
}

func TestRunUnreadableFileContinues(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	locked := writeFile(t, filepath.Join(dir, "a-locked.txt"), "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })
	open := writeFile(t, filepath.Join(dir, "b-open.txt"), "open")
	env := newTestEnv()

	stats, err := env.run(t, &ProcessingConfig{}, dir)
	require.NoError(t, err)

	assert.Contains(t, env.errOut.String(), "Error processing file "+locked)
	assert.Contains(t, env.out.String(), open)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunNotebook(t *testing.T) {
	dir := t.TempDir()
	nb := writeFile(t, filepath.Join(dir, "hello.ipynb"),
		`{"cells": [{"cell_type": "code", "execution_count": 1, "source": ["print('Hello, World!')"], "outputs": []}]}`)

	t.Run("no converter emits raw json", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.run(t, &ProcessingConfig{}, nb)
		require.NoError(t, err)
		assert.Contains(t, env.out.String(), `"cell_type": "code"`)
	})

	t.Run("internal asciidoc", func(t *testing.T) {
		env := newTestEnv()
		cfg := &ProcessingConfig{NotebookConverter: InternalConverter, NotebookFormat: notebook.FormatAsciidoc}
		_, err := env.run(t, cfg, dir)
		require.NoError(t, err)

		out := env.out.String()
		assert.True(t, strings.HasPrefix(out, nb+"\n---\n"))
		assert.Contains(t, out, "+*In[1]:*+")
		assert.Contains(t, out, "print('Hello, World!')")
		assert.NotContains(t, out, "cell_type")
	})

	t.Run("internal markdown", func(t *testing.T) {
		env := newTestEnv()
		cfg := &ProcessingConfig{NotebookConverter: InternalConverter, NotebookFormat: notebook.FormatMarkdown}
		_, err := env.run(t, cfg, nb)
		require.NoError(t, err)
		assert.Contains(t, env.out.String(), "```python\nprint('Hello, World!')\n```")
	})

	t.Run("external", func(t *testing.T) {
		var calls []string
		runner := runnerFunc(func(_ context.Context, name string, args ...string) error {
			calls = append(calls, name)
			target := args[len(args)-1]
			return os.WriteFile(strings.TrimSuffix(target, ".ipynb")+".md", []byte("converted by tool"), 0o644)
		})
		env := newTestEnv(WithRunner(runner))
		cfg := &ProcessingConfig{NotebookConverter: "jupyter-nbconvert", NotebookFormat: notebook.FormatMarkdown}

		_, err := env.run(t, cfg, nb)
		require.NoError(t, err)
		assert.Equal(t, []string{"jupyter-nbconvert"}, calls)
		assert.Equal(t, nb+"\n---\nconverted by tool\n---\n", env.out.String())
	})

	t.Run("external failure is reported", func(t *testing.T) {
		runner := runnerFunc(func(context.Context, string, ...string) error {
			return errors.New("exit status 1")
		})
		other := writeFile(t, filepath.Join(dir, "notes.txt"), "notes")
		t.Cleanup(func() { _ = os.Remove(other) })
		env := newTestEnv(WithRunner(runner))
		cfg := &ProcessingConfig{NotebookConverter: "jupyter-nbconvert", NotebookFormat: notebook.FormatAsciidoc}

		stats, err := env.run(t, cfg, dir)
		require.NoError(t, err)
		assert.Contains(t, env.errOut.String(), "Error converting notebook "+nb)
		assert.NotContains(t, env.out.String(), nb)
		assert.Contains(t, env.out.String(), other)
		assert.Equal(t, 1, stats.Failed)
	})
}

func TestRunInvalidNotebookFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	env := newTestEnv()

	_, err := env.run(t, &ProcessingConfig{NotebookConverter: InternalConverter, NotebookFormat: "html"}, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, notebook.ErrUnknownFormat)
	assert.Empty(t, env.out.String())
}

func TestProcessPath(t *testing.T) {
	dir := t.TempDir()
	file1 := writeFile(t, filepath.Join(dir, "file1.txt"), "File 1 contents")
	env := newTestEnv()

	require.NoError(t, env.engine.ProcessPath(context.Background(), dir, &ProcessingConfig{}))
	assert.Contains(t, env.out.String(), file1)

	err := env.engine.ProcessPath(context.Background(), filepath.Join(dir, "nope"), &ProcessingConfig{})
	assert.True(t, errors.Is(err, ErrPathNotExist))
}

type failingSink struct{ *WriterSink }

func (failingSink) Write(string) error { return errors.New("disk full") }

func TestRunSinkFailureStops(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	var errOut bytes.Buffer
	engine := NewEngine(failingSink{NewWriterSink(&bytes.Buffer{}, &errOut, false)}, nil)

	stats, err := engine.Run(context.Background(), []string{dir}, &ProcessingConfig{})
	require.Error(t, err)
	assert.Equal(t, 0, stats.Emitted)
}

type runnerFunc func(ctx context.Context, name string, args ...string) error

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) error {
	return f(ctx, name, args...)
}

func TestRunSharesConfigUntilRuleFileFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plain", "deeper", "f.txt"), "f")
	writeFile(t, filepath.Join(dir, "ruled", "g.txt"), "g")
	writeFile(t, filepath.Join(dir, "ruled", ".gitignore"), "skip.txt")
	writeFile(t, filepath.Join(dir, "ruled", "inner", "h.txt"), "h")

	seen := map[string]*ProcessingConfig{}
	env := newTestEnv()
	env.engine.onDirectory = func(d string, cfg *ProcessingConfig) { seen[d] = cfg }
	root := &ProcessingConfig{}

	_, err := env.run(t, root, dir)
	require.NoError(t, err)

	assert.Same(t, root, seen[dir])
	assert.Same(t, root, seen[filepath.Join(dir, "plain")])
	assert.Same(t, root, seen[filepath.Join(dir, "plain", "deeper")])

	ruled := seen[filepath.Join(dir, "ruled")]
	require.NotNil(t, ruled)
	assert.NotSame(t, root, ruled)
	assert.Equal(t, []string{"skip.txt"}, ruled.GitignoreRules)
	assert.Empty(t, root.GitignoreRules)
	assert.Same(t, ruled, seen[filepath.Join(dir, "ruled", "inner")])
}

func TestRunExcludedPaths(t *testing.T) {
	dir := t.TempDir()
	kept := writeFile(t, filepath.Join(dir, "kept.txt"), "kept")
	skipped := writeFile(t, filepath.Join(dir, "sub", "out.txt"), "previous output")
	env := newTestEnv(WithExclude(skipped))

	stats, err := env.run(t, &ProcessingConfig{}, dir, skipped)
	require.NoError(t, err)

	assert.Contains(t, env.out.String(), kept)
	assert.NotContains(t, env.out.String(), skipped)
	assert.NotContains(t, env.out.String(), "previous output")
	assert.Equal(t, 1, stats.Emitted)
}

func TestIsNotebookExtensionIsExact(t *testing.T) {
	assert.True(t, isNotebook("analysis.ipynb"))
	assert.False(t, isNotebook("analysis.IPYNB"))
	assert.False(t, isNotebook("analysis.IpYnB"))
	assert.False(t, isNotebook("analysis.ipynb.txt"))
}
