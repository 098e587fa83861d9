package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	require.Equal(t, "assetguard.conflict.detected", Subject("assetguard", TypeConflictDetected))
	require.Equal(t, "assetguard.quota.updated", Subject("assetguard.", TypeQuotaUpdated))
	require.Equal(t, "claim.registered", Subject("", TypeClaimRegistered))
}

func TestEncode_FillsEnvelope(t *testing.T) {
	data, err := Encode(Event{
		Type:    TypeConflictDetected,
		AssetID: "sensor-7",
		UserIDs: []string{"alice", "bob"},
	})
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotEmpty(t, decoded.ID)
	require.False(t, decoded.OccurredAt.IsZero())
	require.Equal(t, []string{"alice", "bob"}, decoded.UserIDs)
}

func TestNewNATSPublisher_RequiresURL(t *testing.T) {
	_, err := NewNATSPublisher(NATSConfig{})
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.Publish(context.Background(), Event{Type: TypeMessageSent}))
}
