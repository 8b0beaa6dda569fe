package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/contractor-leads/internal/leads"
)

const exportDateLayout = "1/2/2006"

var exportHeaders = []string{"Name", "Email", "Phone", "Service", "Urgency", "Status", "Value", "Description", "Created"}

func exportRow(l *leads.Lead) []string {
	urgency := string(l.UrgencyLevel)
	if urgency == "" {
		urgency = string(leads.UrgencyNormal)
	}
	return []string{
		l.FullName,
		l.Email,
		l.Phone,
		l.ServiceNeeded,
		urgency,
		string(l.Status),
		"$" + strconv.Itoa(l.LeadValue),
		l.ProjectDescription,
		l.CreatedAt.Format(exportDateLayout),
	}
}

// ExportCSV renders the header row plus one fully quoted record per lead,
// joined by "\n" without a trailing newline.
func ExportCSV(list []*leads.Lead) string {
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, strings.Join(exportHeaders, ","))
	for _, l := range list {
		row := exportRow(l)
		for i, field := range row {
			row[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

var tsvSanitizer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// ExportTSV renders the clipboard format for spreadsheet paste. Tabs and
// line breaks inside fields become spaces so each lead stays on one row.
func ExportTSV(list []*leads.Lead) string {
	lines := make([]string, 0, len(list)+1)
	lines = append(lines, strings.Join(exportHeaders, "\t"))
	for _, l := range list {
		row := exportRow(l)
		for i, field := range row {
			row[i] = tsvSanitizer.Replace(field)
		}
		lines = append(lines, strings.Join(row, "\t"))
	}
	return strings.Join(lines, "\n")
}

// ExportXLSX renders a single-sheet workbook with the same columns.
func ExportXLSX(list []*leads.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leads"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to create header style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for r, l := range list {
		row := r + 2
		values := []any{
			l.FullName,
			l.Email,
			l.Phone,
			l.ServiceNeeded,
			exportRow(l)[4],
			string(l.Status),
			l.LeadValue,
			l.ProjectDescription,
			l.CreatedAt.Format(exportDateLayout),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	for i := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("dashboard: failed to drop default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename follows leads-YYYY-MM-DD.<ext>.
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("leads-%s.%s", now.UTC().Format("2006-01-02"), ext)
}

// Stats are the dashboard summary cards.
type Stats struct {
	TotalLeads int `json:"total_leads"`
	TotalValue int `json:"total_value"`
	NewLeads   int `json:"new_leads"`
	Qualified  int `json:"qualified"`
}

// ComputeStats summarizes a lead list.
func ComputeStats(list []*leads.Lead) Stats {
	s := Stats{TotalLeads: len(list)}
	for _, l := range list {
		s.TotalValue += l.LeadValue
		switch l.Status {
		case leads.StatusNew:
			s.NewLeads++
		case leads.StatusQualified:
			s.Qualified++
		}
	}
	return s
}
