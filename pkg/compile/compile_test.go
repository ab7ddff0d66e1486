package compile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/compile"
)

func TestIsSource(t *testing.T) {
	assert.True(t, compile.IsSource("target.c"))
	assert.True(t, compile.IsSource("target.i"))
	assert.False(t, compile.IsSource("target"))
	assert.False(t, compile.IsSource("target.instr"))
}

// withFakeTool prepends a directory containing an executable named name
// (that just exits 0) to PATH for the duration of the test.
func withFakeTool(t *testing.T, name string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0755))
	old := os.Getenv("PATH")
	require.NoError(t, os.Setenv("PATH", dir+string(os.PathListSeparator)+old))
	t.Cleanup(func() { os.Setenv("PATH", old) })
}

func TestCompileMakeModeAppendsInstrSuffix(t *testing.T) {
	withFakeTool(t, "make")

	binary, err := compile.Compile(compile.Config{
		Mode:   compile.ModeMake,
		Source: "target.c",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "target.instr", binary)
}

func TestCompileSVCOMPModeRequiresOut(t *testing.T) {
	_, err := compile.Compile(compile.Config{
		Mode:   compile.ModeSVCOMP,
		Source: "target.c",
	}, nil)
	assert.Error(t, err)
}

func TestCompileTraceCCModeDefaultsOutToStem(t *testing.T) {
	// trace-cc is invoked as a literal "./trace-cc", so the fake tool
	// must live in the working directory, not on PATH.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trace-cc"), []byte("#!/bin/sh\nexit 0\n"), 0755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	binary, err := compile.Compile(compile.Config{
		Mode:   compile.ModeTraceCC,
		Source: "target.c",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "target", binary)
}

func TestCompileRejectsUnknownMode(t *testing.T) {
	_, err := compile.Compile(compile.Config{
		Mode:   "bogus",
		Source: "target.c",
	}, nil)
	assert.Error(t, err)
}
