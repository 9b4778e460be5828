package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookPushCreatesSheets(t *testing.T) {
	st := seedStore(t)
	e := NewExporter(st, t.TempDir())
	path := filepath.Join(t.TempDir(), "serp.xlsx")

	p := NewWorkbookPusher(e, path)
	require.NoError(t, p.Push("2026-08-20"))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	sheets := book.GetSheetList()
	assert.Contains(t, sheets, "2026-08-20")
	assert.Contains(t, sheets, "domains")
	assert.NotContains(t, sheets, "Sheet1")

	rows, err := book.GetRows("2026-08-20")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, snapshotHeader, rows[0])
}

func TestWorkbookPushIsRepeatable(t *testing.T) {
	st := seedStore(t)
	e := NewExporter(st, t.TempDir())
	path := filepath.Join(t.TempDir(), "serp.xlsx")

	p := NewWorkbookPusher(e, path)
	require.NoError(t, p.Push("2026-08-20"))
	// A second push rewrites the same sheets instead of appending
	require.NoError(t, p.Push("2026-08-20"))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("2026-08-20")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	domainRows, err := book.GetRows("domains")
	require.NoError(t, err)
	assert.Len(t, domainRows, 2)
}

func TestNoopPusher(t *testing.T) {
	assert.NoError(t, NoopPusher{}.Push("2026-08-20"))
}
