package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFormat defines supported export formats.
type ExportFormat string

const (
	// ExportFormatCSV exports entries as comma-separated values.
	ExportFormatCSV ExportFormat = "csv"
	// ExportFormatJSON exports entries as a JSON array.
	ExportFormatJSON ExportFormat = "json"
)

// ExportOptions configures audit log export parameters.
type ExportOptions struct {
	Format  ExportFormat // Export format (csv or json)
	From    time.Time    // Start of time range (inclusive)
	To      time.Time    // End of time range (inclusive)
	ActorID string       // Filter by acting tenant (optional)
	Limit   int          // Maximum number of entries (0 = no limit)
}

// exportedEntry is the serialized shape of an audit entry for export.
// Payload is emitted as raw JSON so consumers see the original snapshot.
type exportedEntry struct {
	ID           string          `json:"id"`
	ActorID      string          `json:"actor_id"`
	EntityType   string          `json:"entity_type"`
	EntityID     string          `json:"entity_id"`
	Action       string          `json:"action"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	PreviousHash string          `json:"previous_hash,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ExportEntries exports audit entries matching the given options.
// Returns the exported data as bytes in the specified format.
func ExportEntries(repo Repository, opts ExportOptions) ([]byte, error) {
	if opts.Format != ExportFormatCSV && opts.Format != ExportFormatJSON {
		return nil, fmt.Errorf("unsupported export format: %s", opts.Format)
	}

	if opts.ActorID == "" {
		// Full-table export would need its own paginated repository method;
		// exports are always scoped to an acting tenant today.
		return nil, fmt.Errorf("export requires an ActorID filter")
	}

	entries, err := repo.QueryByActor(opts.ActorID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	if !opts.From.IsZero() || !opts.To.IsZero() {
		entries = filterByTimeRange(entries, opts.From, opts.To)
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}

	switch opts.Format {
	case ExportFormatCSV:
		return exportToCSV(entries)
	default:
		return exportToJSON(entries)
	}
}

// filterByTimeRange keeps entries within [from, to]; zero bounds are open.
func filterByTimeRange(entries []*Entry, from, to time.Time) []*Entry {
	filtered := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.CreatedAt.After(to) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func exportToJSON(entries []*Entry) ([]byte, error) {
	exported := make([]exportedEntry, 0, len(entries))
	for _, e := range entries {
		exported = append(exported, exportedEntry{
			ID:           e.ID,
			ActorID:      e.ActorID,
			EntityType:   e.EntityType,
			EntityID:     e.EntityID,
			Action:       e.Action,
			Payload:      json.RawMessage(e.Payload),
			RequestID:    e.RequestID,
			PreviousHash: e.PreviousHash,
			CreatedAt:    e.CreatedAt,
		})
	}
	return json.MarshalIndent(exported, "", "  ")
}

func exportToCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "actor_id", "entity_type", "entity_id", "action", "request_id", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		row := []string{
			e.ID, e.ActorID, e.EntityType, e.EntityID, e.Action,
			e.RequestID, e.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
