package filter_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/filter"
	"github.com/KaramelBytes/pandenem/internal/manifest"
	tu "github.com/KaramelBytes/pandenem/internal/testutil"
)

const rawHeader = "NU_INSCRICAO;NU_ANO;TP_ESCOLA;IN_TREINEIRO;NO_MUNICIPIO_PROVA;SG_UF_PROVA;" +
	"TP_PRESENCA_CN;TP_PRESENCA_CH;TP_PRESENCA_LC;TP_PRESENCA_MT;" +
	"NU_NOTA_CN;NU_NOTA_CH;NU_NOTA_LC;NU_NOTA_MT;NU_NOTA_REDACAO;Q005;Q006;Q025\n"

func raw2021() string {
	return rawHeader +
		"1;2021;1;0;São Paulo;SP;1;1;1;1;500.1;600.2;550;610.5;880;4;D;B\n" +
		"2;2021;2;1;Recife;PE;1;1;1;1;400;500;450;480;600;3;C;A\n" +
		"3;2021;1;0;Belém;PA;0;1;1;1;;500;450;;;2;B;A\n" +
		"4;2021;3;0;Curitiba;PR;1;1;1;1;700;650;640;720;1000;5;I;B\n" +
		"5;2021;1;0;Brasília;DF;1;1;1;1;450;470;;500;720;;A;\n"
}

func raw2022Invalid() string {
	return rawHeader +
		"6;2022;1;0;Maceió;AL;1;1;1;1;500;500;500;500;500;2;C;C\n"
}

const want2021 = "NU_ANO,TP_ESCOLA,SG_UF_PROVA,NU_NOTA_CN,NU_NOTA_CH,NU_NOTA_LC,NU_NOTA_MT,NU_NOTA_REDACAO,Q005,Q006,Q025\n" +
	"2021,1,SP,500.1,600.2,550,610.5,880,4,D,B\n" +
	"2021,3,PR,700,650,640,720,1000,5,I,B\n" +
	"2021,1,DF,450,470,,500,720,,A,\n"

func testConfig(dir string, years ...int) filter.Config {
	cfg := filter.DefaultConfig()
	cfg.Years = years
	cfg.Rules = enem.DefaultRules([]int{2021, 2022})
	cfg.InputPattern = filepath.Join(dir, "raw", "MICRODADOS_ENEM_{year}.csv")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ChunkRows = 2
	return cfg
}

func TestPipelineFiltersLatin1Input(t *testing.T) {
	dir := t.TempDir()
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())

	p, err := filter.NewPipeline(testConfig(dir, 2021), tu.NewTestLogger(t))
	require.NoError(t, err)
	p.SetProgress(io.Discard)

	m, err := p.Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "out", "2021_filtrado.csv"))
	require.NoError(t, err)
	assert.Equal(t, want2021, string(got))

	res, ok := m.Result(2021)
	require.True(t, ok)
	assert.Equal(t, manifest.StatusOK, res.Status)
	assert.Equal(t, 5, res.RowsRead)
	assert.Equal(t, 2, res.RowsRemoved)
	assert.Equal(t, 3, res.RowsWritten)

	saved, err := manifest.Load(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, m.RunID, saved.RunID)
	assert.Equal(t, []int{2021}, saved.Succeeded())
	assert.NotContains(t, saved.Columns, enem.ColTrainee)
}

func TestPipelineChunkSizeDoesNotChangeOutput(t *testing.T) {
	for _, rows := range []int{1, 3, 100} {
		dir := t.TempDir()
		tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())
		cfg := testConfig(dir, 2021)
		cfg.ChunkRows = rows

		p, err := filter.NewPipeline(cfg, nil)
		require.NoError(t, err)
		_, err = p.Run(context.Background())
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(dir, "out", "2021_filtrado.csv"))
		require.NoError(t, err)
		assert.Equal(t, want2021, string(got), "chunk rows %d", rows)
	}
}

func TestPipelineAbortStopsAtInvalidYear(t *testing.T) {
	dir := t.TempDir()
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2022.csv", raw2022Invalid())
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())

	p, err := filter.NewPipeline(testConfig(dir, 2022, 2021), tu.NewTestLogger(t))
	require.NoError(t, err)

	m, err := p.Run(context.Background())
	require.ErrorIs(t, err, enem.ErrInvalidEntry)

	var inv *enem.InvalidEntryError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, enem.ColInternet, inv.Column)
	assert.Equal(t, []string{"C"}, inv.Values)

	assert.NoFileExists(t, filepath.Join(dir, "out", "2022_filtrado.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "out", "2021_filtrado.csv"))
	_, processed := m.Result(2021)
	assert.False(t, processed)

	saved, err := manifest.Load(filepath.Join(dir, "out"))
	require.NoError(t, err)
	res, ok := saved.Result(2022)
	require.True(t, ok)
	assert.Equal(t, manifest.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "Q025")
}

func TestPipelineSkipContinuesWithNextYear(t *testing.T) {
	dir := t.TempDir()
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2022.csv", raw2022Invalid())
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())
	cfg := testConfig(dir, 2022, 2021)
	cfg.OnInvalid = filter.OnInvalidSkip

	p, err := filter.NewPipeline(cfg, tu.NewTestLogger(t))
	require.NoError(t, err)

	m, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "out", "2022_filtrado.csv"))
	assert.FileExists(t, filepath.Join(dir, "out", "2021_filtrado.csv"))

	res, ok := m.Result(2022)
	require.True(t, ok)
	assert.Equal(t, manifest.StatusSkipped, res.Status)
	assert.Equal(t, []int{2021}, m.Succeeded())
}

func TestPipelineDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())
	cfg := testConfig(dir, 2021)
	cfg.DryRun = true

	p, err := filter.NewPipeline(cfg, nil)
	require.NoError(t, err)
	m, err := p.Run(context.Background())
	require.NoError(t, err)

	res, _ := m.Result(2021)
	assert.Equal(t, 3, res.RowsWritten)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestPipelineHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021())
	cfg := testConfig(dir, 2021)
	cfg.OnInvalid = filter.OnInvalidSkip

	p, err := filter.NewPipeline(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "out", "2021_filtrado.csv"))
}

func TestNewPipelineRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]func(*filter.Config){
		"no years":        func(c *filter.Config) { c.Years = nil },
		"policy":          func(c *filter.Config) { c.OnInvalid = "ignore" },
		"input pattern":   func(c *filter.Config) { c.InputPattern = "raw.csv" },
		"encoding":        func(c *filter.Config) { c.Encoding = "ebcdic" },
		"rule not kept":   func(c *filter.Config) { c.Columns = []string{enem.ColYear} },
		"malformed rule":  func(c *filter.Config) { c.Rules = filter.RuleSet{{Column: enem.ColYear}} },
		"negative chunks": func(c *filter.Config) { c.ChunkRows = -1 },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(dir, 2021)
			mutate(&cfg)
			_, err := filter.NewPipeline(cfg, nil)
			assert.ErrorIs(t, err, enem.ErrConfig)
		})
	}
}
