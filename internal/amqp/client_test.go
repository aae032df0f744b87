package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportExportMessage(t *testing.T) {
	msg := NewReportExportMessage("3f1c2a9e", 42)

	assert.Equal(t, "3f1c2a9e", msg.ExportID)
	assert.Equal(t, int64(42), msg.RepublicID)
	assert.False(t, msg.Timestamp.IsZero())
	assert.LessOrEqual(t, time.Since(msg.Timestamp), time.Second)
}

func TestReportExportMessage_JSON(t *testing.T) {
	msg := &ReportExportMessage{
		ExportID:   "abc-123",
		RepublicID: 7,
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	require.NoError(t, err)

	parsed, err := ReportExportMessageFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, msg.ExportID, parsed.ExportID)
	assert.Equal(t, msg.RepublicID, parsed.RepublicID)
	assert.True(t, parsed.Timestamp.Equal(msg.Timestamp))
}

func TestReportExportMessage_InvalidJSON(t *testing.T) {
	_, err := ReportExportMessageFromJSON([]byte(`{"republic_id": "not_a_number"}`))
	assert.Error(t, err)
}
