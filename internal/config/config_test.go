package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/filter"
	"github.com/KaramelBytes/pandenem/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	testutil.Chdir(t, t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "latin1", c.InputEncoding)
	assert.Equal(t, ";", c.InputDelimiter)
	assert.Equal(t, enem.DefaultYears, c.Years)
	assert.Equal(t, filter.OnInvalidAbort, c.OnInvalid)
	assert.Equal(t, enem.DefaultTopBracketCap, c.IncomeTopCap)
	assert.Equal(t, slog.LevelInfo, c.Level())

	f := c.FilterConfig()
	require.NoError(t, f.Validate())
	assert.Equal(t, filter.DefaultConfig().OutputColumns(), f.OutputColumns())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	testutil.Chdir(t, dir)
	path := filepath.Join(dir, "pandenem.yaml")
	yml := `output_dir: out
years: [2021, 2022]
on_invalid: skip
exclusions:
  - column: IN_TREINEIRO
    values: ["1"]
rules:
  - column: NU_ANO
    allowed: ["2021", "2022"]
  - column: NU_NOTA_REDACAO
    range: [0, 1000]
  - column: IN_TREINEIRO
    allowed: ["0", "1"]
keep_columns: [NU_ANO, NU_NOTA_REDACAO, IN_TREINEIRO]
drop_after: [IN_TREINEIRO]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PANDENEM_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("PANDENEM_LOG_LEVEL") })
	t.Setenv("PANDENEM_CHUNK_ROWS", "500")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out", c.OutputDir)
	assert.Equal(t, []int{2021, 2022}, c.Years)
	assert.Equal(t, 500, c.ChunkRows)
	assert.Equal(t, slog.LevelDebug, c.Level())
	require.Len(t, c.Rules, 3)
	assert.Equal(t, []float64{0, 1000}, c.Rules[1].Range)

	f := c.FilterConfig()
	require.NoError(t, f.Validate())
	assert.Equal(t, filter.OnInvalidSkip, f.OnInvalid)
	assert.Equal(t, []string{"NU_ANO", "NU_NOTA_REDACAO"}, f.OutputColumns())
	assert.Len(t, f.Exclusions, 1)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	testutil.Chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	testutil.Chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	require.NoError(t, c.Set("years", "2019-2021"))
	require.NoError(t, c.Set("on_invalid", "skip"))
	require.NoError(t, c.Set("keep_columns", "NU_ANO, SG_UF_PROVA"))
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2020, 2021}, got.Years)
	assert.Equal(t, "skip", got.OnInvalid)
	assert.Equal(t, []string{"NU_ANO", "SG_UF_PROVA"}, got.KeepColumns)
}

func TestSetRejectsBadValues(t *testing.T) {
	c := Default()
	for key, val := range map[string]string{
		"on_invalid":      "retry",
		"chunk_rows":      "-1",
		"input_encoding":  "ebcdic",
		"input_delimiter": "::",
		"income_top_cap":  "100",
		"years":           "2022-2019",
		"unknown":         "x",
	} {
		assert.Error(t, c.Set(key, val), key)
	}
}

func TestParseYears(t *testing.T) {
	got, err := ParseYears("2019, 2021-2022")
	require.NoError(t, err)
	assert.Equal(t, []int{2019, 2021, 2022}, got)

	_, err = ParseYears(" , ")
	assert.Error(t, err)
}
