// Package export renders user statistics for the administrator: an xlsx
// snapshot of the users table and a PNG chart of registrations per day.
package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/artur/slide-bot/internal/database/models"
)

// SheetName is the worksheet holding the users snapshot.
const SheetName = "users"

var header = []any{"user_id", "username", "reached_end", "date_added"}

type UserLister interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

// Exporter writes spreadsheet snapshots into dir on fs. Every call to
// Export creates a new file which the caller must Remove after use.
type Exporter struct {
	users UserLister
	fs    afero.Fs
	dir   string
}

func NewExporter(users UserLister, fs afero.Fs, dir string) *Exporter {
	return &Exporter{users: users, fs: fs, dir: dir}
}

// Export writes all users to a fresh xlsx file and returns its path.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	users, err := e.users.ListAll(ctx)
	if err != nil {
		return "", err
	}

	book, err := buildWorkbook(users)
	if err != nil {
		return "", err
	}
	defer book.Close()

	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path := filepath.Join(e.dir, "stats-"+uuid.NewString()+".xlsx")
	f, err := e.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := book.Write(f); err != nil {
		f.Close()
		e.fs.Remove(path)
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		e.fs.Remove(path)
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	return path, nil
}

// Open opens a file produced by Export for reading.
func (e *Exporter) Open(path string) (afero.File, error) {
	return e.fs.Open(path)
}

// Remove deletes a file produced by Export.
func (e *Exporter) Remove(path string) error {
	return e.fs.Remove(path)
}

func buildWorkbook(users []models.User) (*excelize.File, error) {
	book := excelize.NewFile()

	if err := book.SetSheetName("Sheet1", SheetName); err != nil {
		book.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := book.SetSheetRow(SheetName, "A1", &header); err != nil {
		book.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			book.Close()
			return nil, err
		}

		reachedEnd := 0
		if u.ReachedEnd {
			reachedEnd = 1
		}
		row := []any{u.ID, u.Username, reachedEnd, u.DateAdded}
		if err := book.SetSheetRow(SheetName, cell, &row); err != nil {
			book.Close()
			return nil, fmt.Errorf("failed to write row for user %d: %w", u.ID, err)
		}
	}

	return book, nil
}
