package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

var sample = []engine.Problem{
	{Title: "Two Sum", Link: "https://leetcode.com/problems/two-sum/", Difficulty: "Easy", Platform: "LeetCode", Language: "C++", Topic: "array"},
	{Title: "Watermelon", Link: "https://codeforces.com/problemset/problem/4/A", Difficulty: "800", Platform: "Codeforces", Language: "C++", Topic: "General"},
}

func TestStoreSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "problems.json")
	s := New(path)

	require.NoError(t, s.Save(sample))
	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, sample, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStoreSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.json")
	require.NoError(t, New(path).Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestStoreLoadErrors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json")).Load()
	require.ErrorIs(t, err, ErrNotFound)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":`), 0o644))
	_, err = New(path).Load()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sample))

	require.Equal(t,
		"Platform,Title,Link,Difficulty,Language,Topic\n"+
			"LeetCode,Two Sum,https://leetcode.com/problems/two-sum/,Easy,C++,array\n"+
			"Codeforces,Watermelon,https://codeforces.com/problemset/problem/4/A,800,C++,General\n",
		buf.String())
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problems.xlsx")
	require.NoError(t, ExportXLSX(path, sample))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, exportHeaders, rows[0])
	require.Equal(t, "Two Sum", rows[1][1])
	require.Equal(t, "800", rows[2][3])
}
