package runner_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/runner"
)

// writeScript writes an executable shell script with the given body,
// standing in for an instrumented binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "target.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func leBytes(addrs ...uint64) []byte {
	buf := make([]byte, 8*len(addrs))
	for i, a := range addrs {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], a)
	}
	return buf
}

func TestExecuteDecodesTraceAndExitCode(t *testing.T) {
	trace := leBytes(0x400500, 0x400520)
	script := writeScript(t, `cat >/dev/null; printf '`+escapeForPrintf(trace)+`' >&2; exit 0`)

	r := runner.New(script, runner.Config{}, nil)
	res, err := r.Execute(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0x400500, 0x400520}, res.Trace)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.BugFound)
}

func TestExecuteDetectsBugReturnCode(t *testing.T) {
	script := writeScript(t, `cat >/dev/null; exit 100`)

	r := runner.New(script, runner.Config{}, nil)
	res, err := r.Execute(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.True(t, res.BugFound)
	assert.Equal(t, 100, res.ExitCode)
}

func TestExecuteRespectsCustomBugReturnCode(t *testing.T) {
	script := writeScript(t, `cat >/dev/null; exit 7`)

	r := runner.New(script, runner.Config{BugReturnCode: 7}, nil)
	res, err := r.Execute(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.True(t, res.BugFound)
}

func TestExecuteTimesOut(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	r := runner.New(script, runner.Config{Timeout: 20 * time.Millisecond}, nil)
	_, err := r.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, runner.ErrTimeout)
}

func TestExecuteRejectsMisalignedTrace(t *testing.T) {
	script := writeScript(t, `printf 'xyz' >&2; exit 0`)

	r := runner.New(script, runner.Config{}, nil)
	_, err := r.Execute(context.Background(), nil)
	assert.Error(t, err)
}

// escapeForPrintf turns raw bytes into \ooo octal escapes for use in a
// POSIX printf format string, so the test fixture script can emit an exact byte
// stream on stderr without depending on a non-POSIX tool.
func escapeForPrintf(data []byte) string {
	out := make([]byte, 0, len(data)*4)
	for _, b := range data {
		out = append(out, '\\')
		octal := [3]byte{}
		v := b
		for i := 2; i >= 0; i-- {
			octal[i] = '0' + v%8
			v /= 8
		}
		out = append(out, octal[:]...)
	}
	return string(out)
}
