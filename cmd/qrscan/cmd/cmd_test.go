package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate runs the test in an empty directory with no reachable config
// file and returns that directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func encodeFile(t *testing.T, path, text string, args ...string) {
	t.Helper()
	args = append([]string{"encode", "--output", path}, args...)
	_, stderr, err := run(t, append(args, text)...)
	require.NoError(t, err, stderr)
}

func decodeJSON(t *testing.T, stdout string) []fileResult {
	t.Helper()
	var results []fileResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	return results
}

func TestEncodeThenDecode(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "hello.png")
	encodeFile(t, path, "Hello CLI", "--level", "H")

	stdout, stderr, err := run(t, "decode", "--format", "json", path)
	require.NoError(t, err, stderr)
	results := decodeJSON(t, stdout)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0].File)
	assert.Equal(t, "Hello CLI", results[0].Text)
	assert.Equal(t, "H", results[0].ECLevel)
	assert.Equal(t, 1, results[0].Version)
	assert.Equal(t, "]Q1", results[0].SymbologyIdentifier)
	assert.Empty(t, results[0].Error)
}

func TestDecodeTextOutput(t *testing.T) {
	dir := isolate(t)
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")
	encodeFile(t, first, "first")
	encodeFile(t, second, "second")

	stdout, _, err := run(t, "decode", first)
	require.NoError(t, err)
	assert.Equal(t, "first\n", stdout)

	stdout, _, err = run(t, "decode", "--workers", "1", first, second)
	require.NoError(t, err)
	assert.Equal(t, first+": first\n"+second+": second\n", stdout)
}

func TestDecodeReportsFailures(t *testing.T) {
	dir := isolate(t)
	good := filepath.Join(dir, "good.png")
	encodeFile(t, good, "still decoded")

	blank := filepath.Join(dir, "blank.png")
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	f, err := os.Create(blank)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	stdout, stderr, err := run(t, "decode", "--format", "yaml", good, blank)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files")
	assert.Contains(t, stderr, "decode failed")

	var results []fileResult
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "still decoded", results[0].Text)
	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[1].Error, "symbol not found")
	assert.NotEmpty(t, results[1].Stage)
}

func TestDecodeMissingFile(t *testing.T) {
	dir := isolate(t)
	stdout, _, err := run(t, "decode", filepath.Join(dir, "missing.png"))
	require.Error(t, err)
	assert.Contains(t, stdout, "missing.png: error:")
}

func TestDecodeWritesMetrics(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "metrics.png")
	encodeFile(t, path, "measured")
	metricsFile := filepath.Join(dir, "qrscan.prom")

	_, stderr, err := run(t, "decode", "--metrics-file", metricsFile, path)
	require.NoError(t, err, stderr)
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `qrscan_decodes_total{outcome="success",stage="none"} 1`)
}

func TestDecodeMaxDimension(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "large.png")
	encodeFile(t, path, "shrink me", "--scale", "30")

	stdout, stderr, err := run(t, "--log-level", "debug", "decode", "--max-dimension", "200", path)
	require.NoError(t, err, stderr)
	assert.Equal(t, "shrink me\n", stdout)
	assert.Contains(t, stderr, "downscaled image")
}

func TestEncodeImageFormats(t *testing.T) {
	dir := isolate(t)
	for _, name := range []string{"symbol.bmp", "symbol.tiff", "symbol.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			encodeFile(t, path, "format "+name, "--scale", "4")
			stdout, stderr, err := run(t, "decode", path)
			require.NoError(t, err, stderr)
			assert.Equal(t, "format "+name+"\n", stdout)
		})
	}
}

func TestEncodeRejectsUnknownExtension(t *testing.T) {
	dir := isolate(t)
	_, _, err := run(t, "encode", "--output", filepath.Join(dir, "symbol.jpg"), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestEncodeToStdout(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, "encode", "--margin", "1", "Hi")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	// Version 1 is 21 modules, plus one quiet zone module on each side.
	require.Len(t, lines, 23)
	assert.Equal(t, strings.Repeat("  ", 23), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  "+strings.Repeat("██", 7)))
}

func TestEncodeRejectsInvalidSettings(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "encode", "--level", "X", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid encode level")

	_, _, err = run(t, "encode", "--version", "1", "--level", "H", strings.Repeat("too long ", 10))
	require.Error(t, err)
}

func TestConfigFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	config := "decode:\n  output_format: yaml\nencode:\n  level: Q\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qrscan.yaml"), []byte(config), 0o644))

	path := filepath.Join(dir, "configured.png")
	encodeFile(t, path, "configured")
	stdout, stderr, err := run(t, "decode", path)
	require.NoError(t, err, stderr)

	var results []fileResult
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "configured", results[0].Text)
	assert.Equal(t, "Q", results[0].ECLevel)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := isolate(t)
	configPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("decode:\n  output_format: yaml\n"), 0o644))

	path := filepath.Join(dir, "flags.png")
	encodeFile(t, path, "flags win")
	stdout, stderr, err := run(t, "--config", configPath, "decode", "--format", "json", path)
	require.NoError(t, err, stderr)
	results := decodeJSON(t, stdout)
	require.Len(t, results, 1)
	assert.Equal(t, "flags win", results[0].Text)
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("QRSCAN_DECODE_OUTPUT_FORMAT", "json")
	t.Setenv("QRSCAN_LOG_FORMAT", "json")

	path := filepath.Join(dir, "env.png")
	encodeFile(t, path, "from env")
	stdout, stderr, err := run(t, "decode", path)
	require.NoError(t, err, stderr)
	results := decodeJSON(t, stdout)
	require.Len(t, results, 1)
	assert.Equal(t, "from env", results[0].Text)
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "--log-level", "verbose", "encode", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMissingConfigFile(t *testing.T) {
	dir := isolate(t)
	_, _, err := run(t, "--config", filepath.Join(dir, "absent.yaml"), "encode", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestDecodeRequiresFiles(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "decode")
	require.Error(t, err)
}
