package dashboard

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/contractor-leads/internal/leads"
)

func exportFixture() []*leads.Lead {
	return []*leads.Lead{
		{
			FullName:           `Tom "TJ" Hale`,
			Email:              "tom@hale.net",
			Phone:              "786-555-0199",
			ServiceNeeded:      "AC/HVAC",
			UrgencyLevel:       leads.UrgencyUrgent,
			Status:             leads.StatusContacted,
			LeadValue:          455,
			ProjectDescription: "Unit blowing warm air, upstairs only",
			CreatedAt:          time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC),
		},
		{
			FullName:           "Ana Ruiz",
			Email:              "ana@example.com",
			Phone:              "954-555-0123",
			ServiceNeeded:      "Pool Service",
			Status:             leads.StatusNew,
			LeadValue:          250,
			ProjectDescription: "Weekly\tcleaning please",
			CreatedAt:          time.Date(2025, 12, 25, 8, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportCSV(t *testing.T) {
	out := ExportCSV(exportFixture())

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Email,Phone,Service,Urgency,Status,Value,Description,Created", lines[0])
	assert.False(t, strings.HasSuffix(out, "\n"))

	r := csv.NewReader(strings.NewReader(out))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		`Tom "TJ" Hale`, "tom@hale.net", "786-555-0199", "AC/HVAC", "urgent", "contacted", "$455",
		"Unit blowing warm air, upstairs only", "7/4/2025",
	}, records[1])
	assert.Equal(t, "normal", records[2][4], "missing urgency exports as normal")
	assert.Equal(t, "12/25/2025", records[2][8])
}

func TestExportCSVEmpty(t *testing.T) {
	assert.Equal(t, "Name,Email,Phone,Service,Urgency,Status,Value,Description,Created", ExportCSV(nil))
}

func TestExportTSV(t *testing.T) {
	list := exportFixture()
	list[1].ProjectDescription = "Weekly\tcleaning\r\nplease"
	out := ExportTSV(list)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name\tEmail\tPhone\tService\tUrgency\tStatus\tValue\tDescription\tCreated", lines[0])

	fields := strings.Split(lines[2], "\t")
	require.Len(t, fields, 9)
	assert.Equal(t, "Weekly cleaning please", fields[7])
	assert.Equal(t, "$250", fields[6])
}

func TestExportXLSX(t *testing.T) {
	body, err := ExportXLSX(exportFixture())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Leads"}, f.GetSheetList())
	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, `Tom "TJ" Hale`, rows[1][0])
	assert.Equal(t, "455", rows[1][6])
	assert.Equal(t, "normal", rows[2][4])
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "leads-2025-03-09.csv", ExportFilename(now, "csv"))
	assert.Equal(t, "leads-2025-03-09.xlsx", ExportFilename(now, "xlsx"))
}

func TestComputeStats(t *testing.T) {
	list := exportFixture()
	list = append(list, &leads.Lead{Status: leads.StatusQualified, LeadValue: 810})

	stats := ComputeStats(list)
	assert.Equal(t, Stats{TotalLeads: 3, TotalValue: 1515, NewLeads: 1, Qualified: 1}, stats)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}
