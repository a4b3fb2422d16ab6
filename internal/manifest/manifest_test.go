package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RecordKeepsYearsSorted(t *testing.T) {
	m := New(t.TempDir(), "skip", []string{"NU_ANO"})
	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)

	m.Record(YearResult{Year: 2022, Status: StatusSkipped, Error: "invalid entry"})
	m.Record(YearResult{Year: 2020, Status: StatusOK, RowsWritten: 3})
	m.Record(YearResult{Year: 2021, Status: StatusFailed})
	m.Record(YearResult{Year: 2021, Status: StatusOK, RowsWritten: 7})

	require.Len(t, m.Years, 3)
	assert.Equal(t, []int{2020, 2021}, m.Succeeded())
	r, ok := m.Result(2021)
	require.True(t, ok)
	assert.Equal(t, 7, r.RowsWritten)
	_, ok = m.Result(2019)
	assert.False(t, ok)
}

func TestManifest_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := New(dir, "abort", []string{"NU_ANO", "SG_UF_PROVA"})
	m.Record(YearResult{Year: 2021, Status: StatusOK, Output: filepath.Join(dir, "2021_filtrado.csv")})
	require.NoError(t, m.Save())
	m.Record(YearResult{Year: 2022, Status: StatusSkipped})
	require.NoError(t, m.Save())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp file is left behind")
	assert.Equal(t, FileName, entries[0].Name())

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, dir, got.Dir())
	assert.Equal(t, m.Columns, got.Columns)
	assert.Equal(t, []int{2021}, got.Succeeded())
}

func TestManifest_Errors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0o644))
	_, err = Load(dir)
	assert.ErrorContains(t, err, "parse manifest")

	assert.Error(t, (&Manifest{}).Save())
}
