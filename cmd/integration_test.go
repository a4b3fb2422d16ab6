package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/pandenem/internal/enem"
	"github.com/KaramelBytes/pandenem/internal/manifest"
	tu "github.com/KaramelBytes/pandenem/internal/testutil"
)

const rawHeader = "NU_INSCRICAO;NU_ANO;TP_ESCOLA;IN_TREINEIRO;NO_MUNICIPIO_PROVA;SG_UF_PROVA;" +
	"TP_PRESENCA_CN;TP_PRESENCA_CH;TP_PRESENCA_LC;TP_PRESENCA_MT;" +
	"NU_NOTA_CN;NU_NOTA_CH;NU_NOTA_LC;NU_NOTA_MT;NU_NOTA_REDACAO;Q005;Q006;Q025\n"

const raw2021 = rawHeader +
	"1;2021;1;0;São Paulo;SP;1;1;1;1;500.1;600.2;550;610.5;880;4;D;B\n" +
	"2;2021;2;1;Recife;PE;1;1;1;1;400;500;450;480;600;3;C;A\n" +
	"3;2021;1;0;Belém;PA;0;1;1;1;;500;450;;;2;B;A\n" +
	"4;2021;3;0;Curitiba;PR;1;1;1;1;700;650;640;720;1000;5;I;B\n" +
	"5;2021;1;0;Brasília;DF;1;1;1;1;450;470;;500;720;;A;\n"

const raw2022 = rawHeader +
	"6;2022;1;0;Maceió;AL;1;1;1;1;500;500;500;500;500;2;C;C\n"

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	fltYears, fltInput, fltOutputDir, fltOnInvalid = "", "", "", ""
	fltChunkRows, fltDryRun, fltQuiet = 0, false, false
	repDir, repYears, repRegion, repXLSX, repCSVDir = "", "", "", "", ""
	repStates, repFormat, repTopN, repAscending = nil, "table", 0, false
	cfgFile, debug, cfgInitForce = "", false, false
	cfg = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if errOut.Len() > 0 {
		t.Log(errOut.String())
	}
	return out.String(), err
}

// resetFlags clears the Changed state left by previous invocations.
func resetFlags(c *cobra.Command) {
	unset := func(f *pflag.Flag) { f.Changed = false }
	c.Flags().VisitAll(unset)
	c.PersistentFlags().VisitAll(unset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	tu.Chdir(t, home)
	return home
}

func TestCLI_FilterThenReport(t *testing.T) {
	dir := isolate(t)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021)
	input := filepath.Join(dir, "raw", "MICRODADOS_ENEM_{year}.csv")
	outDir := filepath.Join(dir, "out")

	out, err := runCmd(t, "filter", "--years", "2021", "-i", input, "-o", outDir, "--chunk-rows", "2", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "2021: 5 read, 2 removed, 3 written")

	got, err := os.ReadFile(filepath.Join(outDir, "2021_filtrado.csv"))
	require.NoError(t, err)
	assert.Equal(t, "NU_ANO,TP_ESCOLA,SG_UF_PROVA,NU_NOTA_CN,NU_NOTA_CH,NU_NOTA_LC,NU_NOTA_MT,NU_NOTA_REDACAO,Q005,Q006,Q025\n"+
		"2021,1,SP,500.1,600.2,550,610.5,880,4,D,B\n"+
		"2021,3,PR,700,650,640,720,1000,5,I,B\n"+
		"2021,1,DF,450,470,,500,720,,A,\n", string(got))

	m, err := manifest.Load(outDir)
	require.NoError(t, err)
	assert.Equal(t, []int{2021}, m.Succeeded())

	out, err = runCmd(t, "report", "regional", "-d", outDir, "--years", "2021", "-f", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"NU_ANO,Norte,Nordeste,Centro-Oeste,Sudeste,Sul,Brasil",
		"2021,,,535.00,628.16,742.00,635.05",
	}, lines)

	out, err = runCmd(t, "report", "knowledge-areas", "-d", outDir, "--years", "2021", "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "grand_mean\n639.05\n")

	out, err = runCmd(t, "report", "top", "-n", "1", "-d", outDir, "--years", "2021", "-f", "csv")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",PR,")

	out, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2021", "--region", "sudeste", "-f", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "| SP | 1 |")
	assert.NotContains(t, out, "| PR |")

	xlsx := filepath.Join(dir, "reports", "internet.xlsx")
	_, err = runCmd(t, "report", "internet", "-d", outDir, "--years", "2021", "--xlsx", xlsx)
	require.NoError(t, err)
	_, err = os.Stat(xlsx)
	assert.NoError(t, err)

	csvDir := filepath.Join(dir, "reports", "csv")
	_, err = runCmd(t, "report", "knowledge-areas", "-d", outDir, "--years", "2021", "--csv-dir", csvDir)
	require.NoError(t, err)
	got, err = os.ReadFile(filepath.Join(csvDir, "grand_mean.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "grand_mean\n639.05"), string(got))
	assert.FileExists(t, filepath.Join(csvDir, "knowledge_areas.csv"))
}

func TestCLI_ReportOnYearWithNoRowsLeft(t *testing.T) {
	dir := isolate(t)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2022.csv", rawHeader+
		"7;2022;1;1;Recife;PE;1;1;1;1;500;500;500;500;500;2;C;A\n")
	input := filepath.Join(dir, "raw", "MICRODADOS_ENEM_{year}.csv")
	outDir := filepath.Join(dir, "out")

	out, err := runCmd(t, "filter", "--years", "2021,2022", "-i", input, "-o", outDir, "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "2022: 1 read, 1 removed, 0 written")

	out, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2022")
	require.NoError(t, err)
	assert.Contains(t, out, "(0 rows)")

	out, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2021,2022", "--state", "sp", "-f", "csv")
	require.NoError(t, err)
	assert.Equal(t, "SG_UF_PROVA,candidates\nSP,1", strings.TrimSpace(out))
}

func TestCLI_ReportErrors(t *testing.T) {
	dir := isolate(t)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021)
	input := filepath.Join(dir, "raw", "MICRODADOS_ENEM_{year}.csv")
	outDir := filepath.Join(dir, "out")
	_, err := runCmd(t, "filter", "--years", "2021", "-i", input, "-o", outDir, "-q")
	require.NoError(t, err)

	_, err = runCmd(t, "report", "regional", "-d", outDir, "--years", "2021", "--region", "leste")
	assert.ErrorIs(t, err, enem.ErrDomain)

	_, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2021", "--state", "SP,BA")
	assert.ErrorIs(t, err, enem.ErrDomain)

	_, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2019")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = runCmd(t, "report", "frequency", "-d", outDir, "--years", "2021", "-f", "html")
	assert.ErrorIs(t, err, enem.ErrConfig)
}

func TestCLI_FilterAbortAndSkip(t *testing.T) {
	dir := isolate(t)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2021.csv", raw2021)
	tu.WriteLatin1(t, dir, "raw/MICRODADOS_ENEM_2022.csv", raw2022)
	input := filepath.Join(dir, "raw", "MICRODADOS_ENEM_{year}.csv")

	out, err := runCmd(t, "filter", "--years", "2022,2021", "-i", input, "-o", filepath.Join(dir, "abort"), "-q")
	assert.ErrorIs(t, err, enem.ErrInvalidEntry)
	assert.Contains(t, out, "2022 failed")
	assert.NoFileExists(t, filepath.Join(dir, "abort", "2021_filtrado.csv"))

	out, err = runCmd(t, "filter", "--years", "2022,2021", "-i", input, "-o", filepath.Join(dir, "skip"), "--on-invalid", "skip", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "2022 skipped")
	assert.FileExists(t, filepath.Join(dir, "skip", "2021_filtrado.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "skip", "2022_filtrado.csv"))

	_, err = runCmd(t, "filter", "--years", "2021", "-i", input, "-o", filepath.Join(dir, "dry"), "--dry-run", "-q")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "dry"))
}

func TestCLI_Config(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "cfg", "pandenem.yaml")

	out, err := runCmd(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.FileExists(t, path)

	_, err = runCmd(t, "--config", path, "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")

	_, err = runCmd(t, "--config", path, "config", "set", "on_invalid", "skip")
	require.NoError(t, err)
	_, err = runCmd(t, "--config", path, "config", "set", "on_invalid", "retry")
	assert.Error(t, err)

	out, err = runCmd(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "on_invalid: skip")
	assert.Contains(t, out, "rules: 16, exclusions: 5")
}
