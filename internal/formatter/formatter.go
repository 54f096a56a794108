// package formatter renders queue request history in various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formats lists every supported format.
var Formats = []string{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// requestRecord is the JSON shape of a [models.QueueRequest].
type requestRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	TrackURI    string `json:"track_uri"`
	TrackName   string `json:"track_name"`
	RequestedAt string `json:"requested_at"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ExportToCSV converts queue requests to CSV format with columns: ID, RequestedAt, UserID, TrackName, TrackURI
func ExportToCSV(reqs []*models.QueueRequest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "RequestedAt", "UserID", "TrackName", "TrackURI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, req := range reqs {
		record := []string{req.ID, timestamp(req.RequestedAt), req.UserID, req.TrackName, req.TrackURI}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts queue requests to a Markdown table
func ExportToMarkdown(reqs []*models.QueueRequest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Queue history\n\n")
	fmt.Fprintf(&buf, "**Requests**: %d\n\n", len(reqs))

	if len(reqs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| Requested at | Visitor | Track | URI |\n")
	buf.WriteString("| --- | --- | --- | --- |\n")
	for _, req := range reqs {
		fmt.Fprintf(&buf, "| %s | %s | %s | `%s` |\n",
			timestamp(req.RequestedAt), shortID(req.UserID), escapeCell(trackName(req)), req.TrackURI)
	}

	return buf.Bytes(), nil
}

// ExportToText converts queue requests to plain text, one per line
func ExportToText(reqs []*models.QueueRequest) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Requests: %d\n\n", len(reqs))
	for i, req := range reqs {
		fmt.Fprintf(&buf, "%d. %s  %s  (%s, visitor %s)\n",
			i+1, timestamp(req.RequestedAt), trackName(req), req.TrackURI, shortID(req.UserID))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts queue requests to an indented JSON array
func ExportToJSON(reqs []*models.QueueRequest) ([]byte, error) {
	records := make([]requestRecord, 0, len(reqs))
	for _, req := range reqs {
		records = append(records, requestRecord{
			ID:          req.ID,
			UserID:      req.UserID,
			TrackURI:    req.TrackURI,
			TrackName:   req.TrackName,
			RequestedAt: timestamp(req.RequestedAt),
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders reqs in the named format.
func Export(format string, reqs []*models.QueueRequest) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return ExportToText(reqs)
	case FormatCSV:
		return ExportToCSV(reqs)
	case FormatMarkdown, "md":
		return ExportToMarkdown(reqs)
	case FormatJSON:
		return ExportToJSON(reqs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders reqs and writes them to path.
func WriteExport(format string, reqs []*models.QueueRequest, path string) error {
	data, err := Export(format, reqs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func trackName(req *models.QueueRequest) string {
	if req.TrackName == "" {
		return req.TrackURI
	}
	return req.TrackName
}

// shortID keeps the first block of a visitor uuid.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
