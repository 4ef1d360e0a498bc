package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/BradenHooton/svatba/internal/models"
)

// BackupVersion is bumped whenever the snapshot layout changes.
const BackupVersion = 1

// Backup is the JSON snapshot offered for download.
type Backup struct {
	Version    int            `json:"version"`
	CreatedAt  string         `json:"createdAt"`
	GuestCount int            `json:"guestCount"`
	Guests     []models.Guest `json:"guests"`
}

// RestoreIssue explains why one snapshot record would not be restored.
type RestoreIssue struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Email   string `json:"email,omitempty"`
	Problem string `json:"problem"`
}

// RestoreReport is the outcome of a restore dry run. Nothing is written.
type RestoreReport struct {
	DryRun                   bool           `json:"dryRun"`
	Total                    int            `json:"total"`
	Valid                    int            `json:"valid"`
	Invalid                  int            `json:"invalid"`
	New                      int            `json:"new"`
	DuplicatesOfExisting     int            `json:"duplicatesOfExisting"`
	DuplicatesWithinSnapshot int            `json:"duplicatesWithinSnapshot"`
	Issues                   []RestoreIssue `json:"issues,omitempty"`
}

var exportHeaders = []string{
	"Име", "Имейл", "Телефон", "Присъствие", "Придружител", "Име на придружител",
	"Деца", "Хранене", "Меню", "Меню на придружител", "Алергии", "Дата на отговор",
}

// ExportService turns the guest list into downloads. It only reads.
type ExportService struct {
	guests   *GuestService
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewExportService(guests *GuestService, logger *slog.Logger) *ExportService {
	return &ExportService{
		guests:   guests,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// exportRows returns the redacted list ordered by submission date.
func (s *ExportService) exportRows(ctx context.Context) ([]models.Guest, error) {
	all, err := s.guests.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := models.RedactForAdmin(all)
	SortGuests(rows, SortBySubmissionDate, SortAsc)
	return rows, nil
}

func (s *ExportService) filename(ext string) string {
	return fmt.Sprintf("guests-%s.%s", s.now().UTC().Format("2006-01-02"), ext)
}

// ExportCSV writes a UTF-8 CSV with a BOM so spreadsheet apps pick the
// right encoding for Cyrillic.
func (s *ExportService) ExportCSV(ctx context.Context) (*bytes.Buffer, string, error) {
	rows, err := s.exportRows(ctx)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	buf.WriteString("\ufeff")

	w := csv.NewWriter(buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, "", fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range rows {
		if err := w.Write(guestRecord(g)); err != nil {
			return nil, "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush csv: %w", err)
	}

	return buf, s.filename("csv"), nil
}

// ExportXLSX builds a single-sheet workbook with a styled header row.
func (s *ExportService) ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error) {
	rows, err := s.exportRows(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Гости"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#8E6C88"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("create header style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", fmt.Errorf("write header %s: %w", cell, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetColWidth(sheet, col, col, 18); err != nil {
			return nil, "", fmt.Errorf("set column width: %w", err)
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return nil, "", err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, "", fmt.Errorf("style header row: %w", err)
	}

	for r, g := range rows {
		for c, value := range guestRecord(g) {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, "", err
			}
			var v interface{} = value
			if c == 6 {
				// children as a number so the sheet can sum it
				v = g.ChildrenCount
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}
	return buf, s.filename("xlsx"), nil
}

func guestRecord(g models.Guest) []string {
	return []string{
		g.GuestName,
		g.Email,
		g.Phone,
		yesNo(g.Attending),
		yesNo(g.PlusOneAttending),
		g.PlusOneName,
		strconv.Itoa(g.ChildrenCount),
		dietaryLabel(g.DietaryPreference),
		menuLabel(g.MenuChoice),
		menuLabel(g.PlusOneMenuChoice),
		g.Allergies,
		g.SubmissionDate,
	}
}

// Backup returns a snapshot of the whole list.
func (s *ExportService) Backup(ctx context.Context) (*Backup, string, error) {
	rows, err := s.exportRows(ctx)
	if err != nil {
		return nil, "", err
	}
	return &Backup{
		Version:    BackupVersion,
		CreatedAt:  s.now().UTC().Format(models.SubmissionDateLayout),
		GuestCount: len(rows),
		Guests:     rows,
	}, s.filename("json"), nil
}

// PreviewRestore checks what restoring snapshot would do without writing.
func (s *ExportService) PreviewRestore(ctx context.Context, snapshot Backup) (*RestoreReport, error) {
	existing, err := s.guests.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	current := make(map[string]struct{}, len(existing))
	for _, g := range existing {
		current[models.NormalizeEmail(g.Email)] = struct{}{}
	}

	report := &RestoreReport{DryRun: true, Total: len(snapshot.Guests)}
	seen := make(map[string]int, len(snapshot.Guests))

	for i, g := range snapshot.Guests {
		email := models.NormalizeEmail(g.Email)

		if problem := s.checkRecord(g); problem != "" {
			report.Invalid++
			report.Issues = append(report.Issues, RestoreIssue{Index: i, ID: g.ID, Email: email, Problem: problem})
			continue
		}
		report.Valid++

		if first, dup := seen[email]; dup {
			report.DuplicatesWithinSnapshot++
			report.Issues = append(report.Issues, RestoreIssue{
				Index: i, ID: g.ID, Email: email,
				Problem: fmt.Sprintf("duplicate of snapshot record %d", first),
			})
			continue
		}
		seen[email] = i

		if _, ok := current[email]; ok {
			report.DuplicatesOfExisting++
			continue
		}
		report.New++
	}

	s.logger.Info("restore dry run",
		slog.Int("total", report.Total),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", report.Invalid),
		slog.Int("new", report.New))
	return report, nil
}

// checkRecord returns a short problem description, or "" when the record
// could be restored as is.
func (s *ExportService) checkRecord(g models.Guest) string {
	switch {
	case g.ID == "":
		return "missing id"
	case s.validate.Var(g.GuestName, "required,max=100") != nil:
		return "invalid guestName"
	case s.validate.Var(g.Email, "required,email") != nil:
		return "invalid email"
	case s.validate.Var(g.ChildrenCount, "min=0,max=10") != nil:
		return "invalid childrenCount"
	case s.validate.Var(g.DietaryPreference, "omitempty,oneof=standard vegetarian") != nil:
		return "invalid dietaryPreference"
	case s.validate.Var(g.MenuChoice, "omitempty,oneof=meat vegetarian") != nil:
		return "invalid menuChoice"
	case s.validate.Var(g.PlusOneMenuChoice, "omitempty,oneof=meat vegetarian") != nil:
		return "invalid plusOneMenuChoice"
	case s.validate.Var(g.Allergies, "max=500") != nil:
		return "invalid allergies"
	case g.PlusOneAttending && g.PlusOneName == "":
		return "missing plusOneName"
	case g.SubmittedAt().IsZero():
		return "invalid submissionDate"
	}
	return ""
}
