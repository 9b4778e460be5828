package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Pusher mirrors the CSV exports to an external sheet-like sink. Push
// failures must be tolerable: callers log them and move on, a missing or
// broken sink never fails a run.
type Pusher interface {
	Push(date string) error
}

// NoopPusher is used when the workbook sync is disabled
type NoopPusher struct{}

func (NoopPusher) Push(string) error { return nil }

// WorkbookPusher maintains an XLSX workbook with one sheet per snapshot
// date plus a "domains" sheet, each rewritten wholesale on every push.
type WorkbookPusher struct {
	exporter *Exporter
	path     string
}

// NewWorkbookPusher creates a pusher writing to the workbook at path
func NewWorkbookPusher(exporter *Exporter, path string) *WorkbookPusher {
	return &WorkbookPusher{exporter: exporter, path: path}
}

// Push rewrites the date sheet and the domains sheet
func (p *WorkbookPusher) Push(date string) error {
	snapshot, err := p.exporter.SnapshotTable(date)
	if err != nil {
		return fmt.Errorf("failed to build snapshot sheet: %w", err)
	}
	domains, err := p.exporter.DomainsTable()
	if err != nil {
		return fmt.Errorf("failed to build domains sheet: %w", err)
	}

	book, err := excelize.OpenFile(p.path)
	if err != nil {
		book = excelize.NewFile()
	}
	defer book.Close()

	if err := replaceSheet(book, date, snapshot); err != nil {
		return err
	}
	if err := replaceSheet(book, "domains", domains); err != nil {
		return err
	}

	// Drop the default sheet excelize creates in a fresh workbook
	if idx, idxErr := book.GetSheetIndex("Sheet1"); idxErr == nil && idx >= 0 && date != "Sheet1" {
		if delErr := book.DeleteSheet("Sheet1"); delErr != nil {
			return fmt.Errorf("failed to drop default sheet: %w", delErr)
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create workbook dir: %w", err)
	}
	if err := book.SaveAs(p.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// replaceSheet deletes any previous version of the sheet and writes the
// table from A1
func replaceSheet(book *excelize.File, name string, table [][]string) error {
	if idx, err := book.GetSheetIndex(name); err == nil && idx >= 0 {
		if err := book.DeleteSheet(name); err != nil {
			return fmt.Errorf("failed to clear sheet %s: %w", name, err)
		}
	}
	if _, err := book.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	for i, row := range table {
		cell := fmt.Sprintf("A%d", i+1)
		if err := book.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}
