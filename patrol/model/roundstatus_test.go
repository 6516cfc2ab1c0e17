package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from RoundStatus
		to   RoundStatus
		ok   bool
	}{
		{name: "Pending to in progress", from: RoundPending, to: RoundInProgress, ok: true},
		{name: "Pending to completed", from: RoundPending, to: RoundCompleted, ok: true},
		{name: "In progress to completed", from: RoundInProgress, to: RoundCompleted, ok: true},
		{name: "Same state", from: RoundInProgress, to: RoundInProgress, ok: true},
		{name: "Completed to in progress", from: RoundCompleted, to: RoundInProgress, ok: false},
		{name: "Completed to pending", from: RoundCompleted, to: RoundPending, ok: false},
		{name: "In progress to pending", from: RoundInProgress, to: RoundPending, ok: false},
		{name: "Invalid target", from: RoundPending, to: RoundStatus(9), ok: false},
		{name: "Zero source", from: RoundStatus(0), to: RoundPending, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanAdvanceTo(tt.to))

			next, err := tt.from.Advance(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, next)
			}
		})
	}
}

func TestRoundStatusEncoding(t *testing.T) {
	b, err := json.Marshal(struct {
		Status RoundStatus `json:"status"`
	}{Status: RoundInProgress})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(b))

	var decoded struct {
		Status RoundStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"COMPLETED"}`), &decoded))
	assert.Equal(t, RoundCompleted, decoded.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"EN_PROGRESO"}`), &decoded))

	var scanned RoundStatus
	require.NoError(t, scanned.Scan([]byte("PENDING")))
	assert.Equal(t, RoundPending, scanned)

	v, err := RoundCompleted.Value()
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", v)

	_, err = RoundStatus(0).Value()
	assert.Error(t, err)
}

func TestNormalizeLogKind(t *testing.T) {
	tests := map[string]LogKind{
		"observation":  LogObservation,
		" INCIDENT ":   LogIncident,
		"Notification": LogNotification,
		"":             LogNotification,
		"whatever":     LogNotification,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLogKind(in), in)
	}
}
