package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformlab/bindcheck/bindings"
	"github.com/platformlab/bindcheck/platform"
	"github.com/platformlab/bindcheck/proc"
)

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
}

const fakeCompilerScript = `out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-d" ]; then out="$a"; fi
  prev="$a"
done
: > "$out"
`

type fixture struct {
	harness *Harness
	version platform.Version
	workDir string
	src     string
	argvLog string // file the fake launcher writes its argv to
}

func newFixture(t *testing.T, compilerScript, launcherScript string) *fixture {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "platform-30.0")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.jar"), []byte("x"), 0644))
	versions, err := platform.Discover(root)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	toolDir := t.TempDir()
	compiler := filepath.Join(toolDir, "bindc")
	writeScript(t, compiler, compilerScript)

	argvLog := filepath.Join(toolDir, "launcher-argv.txt")
	launcher := filepath.Join(toolDir, "emulate")
	if launcherScript == "" {
		launcherScript = `printf '%s\n' "$@" > ` + argvLog + "\n"
	}
	writeScript(t, launcher, launcherScript)

	libDir := t.TempDir()
	for _, name := range []string{RuntimeSupportArchive, HarnessSupportArchive, AnnotationsSupportArchive} {
		require.NoError(t, os.WriteFile(filepath.Join(libDir, name), []byte("x"), 0644))
	}

	cache := bindings.NewCache()
	cached := filepath.Join(toolDir, "platform-30.0.jar")
	require.NoError(t, os.WriteFile(cached, []byte("x"), 0644))
	require.NoError(t, cache.Register(versions[0].Dir, cached))

	workDir := t.TempDir()
	h, err := New(Config{
		Runner:       proc.NewRunner(proc.Config{}),
		Cache:        cache,
		CompilerPath: compiler,
		Launcher:     launcher,
		LibDir:       libDir,
		WorkDir:      workDir,
		ManifestPath: "/fixtures/Manifest.xml",
		ResourcesDir: "/fixtures/res",
		AssetsDir:    "/fixtures/assets",
	})
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "Check.java")
	require.NoError(t, os.WriteFile(src, []byte("class Check {}"), 0644))

	return &fixture{harness: h, version: versions[0], workDir: workDir, src: src, argvLog: argvLog}
}

func (f *fixture) residualArchives(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.workDir, "check-*.jar"))
	require.NoError(t, err)
	return matches
}

func TestCompileReturnsArchive(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")

	out, err := f.harness.Compile(context.Background(), f.src, f.version)
	require.NoError(t, err)

	_, err = os.Stat(out)
	require.NoError(t, err)
	require.NoError(t, os.Remove(out))
}

func TestCompileMissingSource(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")

	_, err := f.harness.Compile(context.Background(), filepath.Join(t.TempDir(), "Missing.java"), f.version)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check source")
}

func TestCompileUncachedVersion(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")
	unknown := platform.Version{Name: "platform-99.0", Version: "99.0", Revision: 99, Dir: "/nope"}

	_, err := f.harness.Compile(context.Background(), f.src, unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached bindings archive")
}

func TestRunCompileCheckCleansUp(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")

	require.NoError(t, f.harness.RunCompileCheck(context.Background(), f.src, f.version))
	assert.Empty(t, f.residualArchives(t), "no residual check archive after a passing check")
}

func TestRunCompileCheckFailure(t *testing.T) {
	f := newFixture(t, `echo "error: bad check"
exit 1
`, "")

	err := f.harness.RunCompileCheck(context.Background(), f.src, f.version)
	require.Error(t, err)

	var diagErr *DiagnosticError
	require.True(t, errors.As(err, &diagErr))
	assert.Contains(t, diagErr.Diagnostics, "error: bad check")
	assert.Equal(t, 1, diagErr.ExitCode)

	assert.Empty(t, f.residualArchives(t), "no residual check archive after a failing check")
}

func TestRunEmulatorCheck(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")

	err := f.harness.RunEmulatorCheck(context.Background(), f.src, f.version, "com.example.WidgetCheck")
	require.NoError(t, err)
	assert.Empty(t, f.residualArchives(t))

	raw, err := os.ReadFile(f.argvLog)
	require.NoError(t, err)
	argv := strings.Split(strings.TrimSpace(string(raw)), "\n")

	// [-cp, classpath, properties..., runner class, test class]
	require.GreaterOrEqual(t, len(argv), 9)
	assert.Equal(t, "-cp", argv[0])
	classpath := strings.Split(argv[1], string(os.PathListSeparator))
	require.Len(t, classpath, 5)
	assert.Equal(t, "platform-30.0.jar", filepath.Base(classpath[0]))
	assert.True(t, strings.HasPrefix(filepath.Base(classpath[1]), "check-"))
	assert.Equal(t, RuntimeSupportArchive, filepath.Base(classpath[2]))
	assert.Equal(t, HarnessSupportArchive, filepath.Base(classpath[3]))
	assert.Equal(t, AnnotationsSupportArchive, filepath.Base(classpath[4]))

	assert.Contains(t, argv, "-Demulator.offline=true")
	assert.Contains(t, argv, "-Demulator.manifest=/fixtures/Manifest.xml")
	assert.Equal(t, DefaultRunnerClass, argv[len(argv)-2])
	assert.Equal(t, "com.example.WidgetCheck", argv[len(argv)-1])
}

func TestRunEmulatorCheckCrashFails(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, `echo "Exception in thread \"main\" java.lang.NullPointerException" >&2
echo "	at com.example.WidgetCheck.run(WidgetCheck.java:7)" >&2
exit 1
`)

	err := f.harness.RunEmulatorCheck(context.Background(), f.src, f.version, "com.example.WidgetCheck")
	require.Error(t, err)

	var diagErr *DiagnosticError
	require.True(t, errors.As(err, &diagErr))
	assert.Equal(t, 1, diagErr.ExitCode)
	assert.Contains(t, diagErr.Diagnostics, "NullPointerException")

	assert.Empty(t, f.residualArchives(t), "no residual check archive after a crashed run")
}

func TestRunEmulatorCheckExtraDeps(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")
	dep := filepath.Join(t.TempDir(), "mocklib.jar")
	require.NoError(t, os.WriteFile(dep, []byte("x"), 0644))

	err := f.harness.RunEmulatorCheck(context.Background(), f.src, f.version, "com.example.WidgetCheck", dep)
	require.NoError(t, err)

	raw, err := os.ReadFile(f.argvLog)
	require.NoError(t, err)
	argv := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Equal(t, "-cp", argv[0])
	classpath := strings.Split(argv[1], string(os.PathListSeparator))
	require.Len(t, classpath, 6)
	assert.Equal(t, "mocklib.jar", filepath.Base(classpath[5]))
}

func TestRunEmulatorCheckRequiresClass(t *testing.T) {
	f := newFixture(t, fakeCompilerScript, "")

	err := f.harness.RunEmulatorCheck(context.Background(), f.src, f.version, "")
	require.Error(t, err)
}

func TestRunEmulatorCheckCompileFailureSkipsLaunch(t *testing.T) {
	f := newFixture(t, `echo "error: broken"
exit 1
`, "")

	err := f.harness.RunEmulatorCheck(context.Background(), f.src, f.version, "com.example.WidgetCheck")
	require.Error(t, err)

	_, statErr := os.Stat(f.argvLog)
	assert.True(t, os.IsNotExist(statErr), "launcher must not run when the check does not compile")
	assert.Empty(t, f.residualArchives(t))
}
