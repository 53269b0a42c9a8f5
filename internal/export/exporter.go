package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// Format is an output format for query results
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, csv or json)", s)
}

// WriteCSV writes a query result as CSV with a header row
func WriteCSV(w io.Writer, result *models.QueryResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range result.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteJSON writes a query result as a JSON array of objects keyed by column
func WriteJSON(w io.Writer, result *models.QueryResult) error {
	records := make([]map[string]string, len(result.Rows))
	for i, row := range result.Rows {
		rec := make(map[string]string, len(result.Columns))
		for j, col := range result.Columns {
			if j < len(row) {
				rec[col] = row[j]
			}
		}
		records[i] = rec
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportToCSV exports favorites to a CSV file
func ExportToCSV(favorites []models.Favorite, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Name", "Description", "Query", "Tags", "Created", "Updated", "Last Used", "Usage Count"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, fav := range favorites {
		lastUsed := ""
		if !fav.LastUsed.IsZero() {
			lastUsed = fav.LastUsed.Format("2006-01-02 15:04:05")
		}
		row := []string{
			fav.Name,
			fav.Description,
			fav.Query,
			strings.Join(fav.Tags, ", "),
			fav.CreatedAt.Format("2006-01-02 15:04:05"),
			fav.UpdatedAt.Format("2006-01-02 15:04:05"),
			lastUsed,
			fmt.Sprintf("%d", fav.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

// ExportToJSON exports favorites to a JSON file
func ExportToJSON(favorites []models.Favorite, path string) error {
	data, err := json.MarshalIndent(favorites, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal favorites to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}
