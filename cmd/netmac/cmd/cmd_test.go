package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anupcshan/netmac/intelhex"
	"github.com/anupcshan/netmac/membuf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netHex = ":020000040800F2\n" +
	":0C000000324050607080010203040506CD\n" +
	":00000001FF\n"

func writeInput(t *testing.T, dir, contents string) string {
	t.Helper()

	path := filepath.Join(dir, "Net.hex")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPatchCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, netHex)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))
	metricsFile := filepath.Join(dir, "netmac.prom")

	_, err := execute(t, "patch", "-i", in, "-d", outDir, "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"NetAABBCCDDEEFF.hex"}, listDir(t, outDir))
	got, err := os.ReadFile(filepath.Join(outDir, "NetAABBCCDDEEFF.hex"))
	require.NoError(t, err)
	assert.Equal(t, ":020000040800F2\n"+
		":0C000000AABBCCDDEEFF010203040506E4\n"+
		":00000001FF\n", string(got))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "netmac_images_patched_total 1")
}

func TestPatchCommandCustomMAC(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, netHex)

	_, err := execute(t, "patch", "-i", in, "-d", dir, "--new", "02:00:00:00:00:2a")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "Net02000000002A.hex"))
	require.NoError(t, err)
	assert.Contains(t, string(got), ":0C00000002000000002A")
}

func TestPatchCommandWritesNothingOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"missing", ":00000001FF\n", membuf.ErrPatternNotFound},
		{"duplicate", strings.Repeat(":0C000000324050607080010203040506CD\n", 2), membuf.ErrAmbiguousMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := writeInput(t, dir, tt.input)
			outDir := filepath.Join(dir, "out")
			require.NoError(t, os.Mkdir(outDir, 0o755))

			_, err := execute(t, "patch", "-i", in, "-d", outDir)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, listDir(t, outDir))
		})
	}
}

func TestPatchCommandRejectsBadMAC(t *testing.T) {
	_, err := execute(t, "patch", "-i", "unused.hex", "--new", "AABBCC")
	assert.True(t, errors.Is(err, membuf.ErrInvalidPattern), "got %v", err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, netHex)
	outDir := filepath.Join(dir, "images")

	job := "input: " + in + "\n" +
		"out_dir: " + outDir + "\n" +
		"workers: 2\n" +
		"macs:\n  - \"02:00:00:00:00:01\"\n  - \"020000000001\"\n" +
		"start: \"02:00:00:00:00:FF\"\n" +
		"count: 2\n"
	jobFile := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobFile, []byte(job), 0o644))

	_, err := execute(t, "batch", "-c", jobFile)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"Net020000000001.hex",
		"Net0200000000FF.hex",
		"Net020000000100.hex",
	}, listDir(t, outDir))

	for _, name := range listDir(t, outDir) {
		f, err := os.Open(filepath.Join(outDir, name))
		require.NoError(t, err)
		parser := intelhex.NewParser(f)
		for parser.HasNext() {
			require.NoError(t, parser.ReadRecord())
		}
		f.Close()
		for _, rec := range parser.Records {
			assert.True(t, rec.Valid(), "%s line %d", name, rec.Line+1)
		}
	}
}

func TestBatchJobTargets(t *testing.T) {
	job := &BatchJob{
		MACs:  []string{"AABBCCDDEEFF"},
		Start: "AABBCCDDEEFE",
		Count: 3,
	}
	targets, err := job.Targets()
	require.NoError(t, err)
	assert.Equal(t, []membuf.Pattern{"AABBCCDDEEFF", "AABBCCDDEEFE", "AABBCCDDEF00"}, targets)
}

func TestBatchCommandNoTargets(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, netHex)

	_, err := execute(t, "batch", "-i", in, "-d", dir)
	assert.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, netHex+"trailer\n")

	out, err := execute(t, "verify", "--find", "32:40:50:60:70:80", in)
	require.NoError(t, err)
	assert.Contains(t, out, "4 lines, 3 records (1 data), 0 malformed, 0 bad checksums")
	assert.Contains(t, out, "324050607080 found 1 times at offsets [0]")
}

func TestVerifyCommandBadChecksum(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, ":0C000000324050607080010203040506CC\n")

	out, err := execute(t, "verify", in)
	assert.True(t, errors.Is(err, ErrBadChecksum), "got %v", err)
	assert.Contains(t, out, "line 1: bad checksum")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "NetAABBCCDDEEFF.hex", OutputName(membuf.MustParseMAC("aa:bb:cc:dd:ee:ff")))
}
