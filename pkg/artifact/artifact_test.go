package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/legion-fuzz/pkg/artifact"
)

func TestRunDirName(t *testing.T) {
	got := artifact.RunDirName("/bin/target", 5, 0, 1700000000)
	assert.Equal(t, "target_5_0_1700000000", got)
}

func TestWriteTestcaseInlinesStdout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.xml")
	require.NoError(t, artifact.WriteTestcase(path, []byte("hello\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<payload-from-stdout>")
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "</testcase>")
}

func TestWriteMetadataHashesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "target.c")
	require.NoError(t, os.WriteFile(src, []byte("int main(){return 0;}"), 0644))

	metaPath := filepath.Join(dir, "metadata.xml")
	require.NoError(t, artifact.WriteMetadata(metaPath, src))

	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<producer>Legion</producer>")
	assert.Contains(t, string(data), "<entryfunction>main</entryfunction>")
	assert.Contains(t, string(data), "<architecture>32bit</architecture>")
}

func TestSinkCreatesDirectoriesAndSavesInputs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "target.c")
	require.NoError(t, os.WriteFile(src, []byte("int main(){return 0;}"), 0644))

	sink, err := artifact.New(artifact.Config{
		OutputDir:   dir,
		Binary:      "/bin/target",
		ProgramFile: src,
		MinSamples:  5,
		TimeCoeff:   0,
		StartEpoch:  1700000000,
		SaveInputs:  true,
		SaveTests:   true,
	})
	require.NoError(t, err)

	require.NoError(t, sink.SaveInput(1700000001, []byte{0x01, 0x02}))
	require.NoError(t, sink.SaveTestcase(1700000001, []byte("out")))

	entries, err := os.ReadDir(filepath.Join(dir, "inputs", "target_5_0_1700000000"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	testEntries, err := os.ReadDir(filepath.Join(dir, "tests", "target_5_0_1700000000"))
	require.NoError(t, err)
	// metadata.xml plus one testcase.
	assert.Len(t, testEntries, 2)
}

func TestSinkSkipsWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	sink, err := artifact.New(artifact.Config{
		OutputDir:  dir,
		Binary:     "/bin/target",
		MinSamples: 5,
		StartEpoch: 1700000000,
	})
	require.NoError(t, err)

	require.NoError(t, sink.SaveInput(1, []byte("x")))
	require.NoError(t, sink.SaveTestcase(1, []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "inputs"))
	assert.True(t, os.IsNotExist(err))
}
