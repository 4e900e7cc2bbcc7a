// Package impex implements CSV and JSON export/import of work orders.
package impex

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Mike-Sabalan-Automation/workorders/internal/models"
)

// csvHeader is the exported column set, in order. Import expects the
// same layout and reads fields positionally.
var csvHeader = []string{
	"ID",
	"Title",
	"Description",
	"Assignee",
	"Priority",
	"Status",
	"Due Date",
	"Estimated Hours",
	"Created Date",
	"Updated Date",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// DisplayID renders a record id for export, e.g. WO-0042. Negative
// (not yet synced) ids keep their sign after the prefix.
func DisplayID(id int64) string {
	return fmt.Sprintf("WO-%04d", id)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(exportTimeLayout)
}

func formatHours(h float64) string {
	if h == 0 {
		return ""
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// ExportCSV writes all records as CSV with a header row.
func ExportCSV(w io.Writer, orders []models.WorkOrder) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, wo := range orders {
		row := []string{
			DisplayID(wo.ID),
			wo.Title,
			wo.Description,
			wo.AssignedTo,
			string(wo.Priority),
			string(wo.Status),
			wo.DueDate,
			formatHours(wo.EstimatedHours),
			formatTime(wo.CreatedAt),
			formatTime(wo.UpdatedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes all records as a JSON array using the wire shape.
func ExportJSON(w io.Writer, orders []models.WorkOrder) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(orders)
}

// ImportJSON parses a JSON array of records. Record ids are kept
// as found so a re-import of an export round-trips.
func ImportJSON(r io.Reader) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	dec := json.NewDecoder(r)
	if err := dec.Decode(&orders); err != nil {
		return nil, fmt.Errorf("parse json import: %w", err)
	}
	for i := range orders {
		orders[i].Normalize()
	}
	return orders, nil
}

// ImportCSV parses a CSV export back into records. The ID column is
// ignored: imported rows get ID 0 and the caller mints fresh temporary
// ids before storing them. Missing fields fall back to defaults, and
// both timestamps are set to now.
func ImportCSV(r io.Reader, now time.Time) ([]models.WorkOrder, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv import: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv import needs a header and at least one data row")
	}

	field := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	orders := make([]models.WorkOrder, 0, len(rows)-1)
	for n, row := range rows[1:] {
		hours, _ := strconv.ParseFloat(field(row, 7), 64)
		wo := models.WorkOrder{
			Title:          field(row, 1),
			Description:    field(row, 2),
			AssignedTo:     field(row, 3),
			Priority:       models.Priority(field(row, 4)),
			Status:         models.Status(field(row, 5)),
			DueDate:        field(row, 6),
			EstimatedHours: hours,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if wo.Title == "" {
			wo.Title = fmt.Sprintf("Imported Work Order %d", n+1)
		}
		wo.Normalize()
		orders = append(orders, wo)
	}
	return orders, nil
}
