package entities_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
)

func TestQueueToken_AvailableActions(t *testing.T) {
	tests := []struct {
		status entities.TokenStatus
		want   []entities.TokenAction
	}{
		{entities.TokenStatusWaiting, []entities.TokenAction{"call", "hold", "transfer"}},
		{entities.TokenStatusCheckedIn, []entities.TokenAction{"hold", "transfer"}},
		{entities.TokenStatusCalled, []entities.TokenAction{"start", "recall", "no-show", "hold", "transfer"}},
		{entities.TokenStatusInConsultation, []entities.TokenAction{"complete", "hold", "transfer"}},
		{entities.TokenStatusOnHold, []entities.TokenAction{"resume", "transfer"}},
		{entities.TokenStatusTransferred, []entities.TokenAction{"hold", "transfer"}},
		{entities.TokenStatusCompleted, nil},
		{entities.TokenStatusNoShow, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			token := entities.QueueToken{Status: tt.status}
			assert.Equal(t, tt.want, token.AvailableActions())
		})
	}
}

func TestQueueToken_Can(t *testing.T) {
	waiting := entities.QueueToken{Status: entities.TokenStatusWaiting}
	assert.True(t, waiting.Can(entities.TokenActionCall))
	assert.False(t, waiting.Can(entities.TokenActionComplete))

	done := entities.QueueToken{Status: entities.TokenStatusCompleted}
	assert.False(t, done.Can(entities.TokenActionTransfer))
}

func TestQueueToken_DecodeDoctorRef(t *testing.T) {
	t.Run("populated doctor", func(t *testing.T) {
		var token entities.QueueToken
		require.NoError(t, json.Unmarshal([]byte(`{"_id":"t1","doctorId":{"_id":"d1","name":"Dr. Mehta"}}`), &token))
		assert.Equal(t, "Dr. Mehta", token.DoctorLabel())
		assert.Equal(t, "d1", token.Doctor.RefID())
	})

	t.Run("bare id uses doctorName", func(t *testing.T) {
		var token entities.QueueToken
		require.NoError(t, json.Unmarshal([]byte(`{"_id":"t1","doctorId":"d1","doctorName":"Dr. Rao"}`), &token))
		assert.Equal(t, "Dr. Rao", token.DoctorLabel())
	})

	t.Run("absent doctor", func(t *testing.T) {
		var token entities.QueueToken
		require.NoError(t, json.Unmarshal([]byte(`{"_id":"t1","doctorId":null}`), &token))
		assert.Nil(t, token.Doctor)
		assert.Equal(t, "-", token.DoctorLabel())
	})
}

func TestParseTokenAction(t *testing.T) {
	a, ok := entities.ParseTokenAction("no_show")
	assert.True(t, ok)
	assert.Equal(t, entities.TokenActionNoShow, a)

	_, ok = entities.ParseTokenAction("teleport")
	assert.False(t, ok)
}
