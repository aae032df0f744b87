package amqp

import (
	"encoding/json"
	"time"
)

// ReportExportMessage notifies the worker that a report export was queued.
// It carries only the export id; the worker loads the full export from the
// database before appending it to Google Sheets.
type ReportExportMessage struct {
	ExportID   string    `json:"export_id"`
	RepublicID int64     `json:"republic_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReportExportMessage creates a message for a freshly queued export.
func NewReportExportMessage(exportID string, republicID int64) *ReportExportMessage {
	return &ReportExportMessage{
		ExportID:   exportID,
		RepublicID: republicID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON creates a message from JSON bytes.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
