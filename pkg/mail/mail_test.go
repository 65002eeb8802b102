package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New("smtp.example.com", 587, "user", "pass")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSendRejectsInvalidSender(t *testing.T) {
	s, err := New("smtp.example.com", 587, "user", "pass")
	require.NoError(t, err)

	err = s.Send("not-an-address", []string{"to@example.com"}, "subject", "body")
	assert.Error(t, err)
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	s, err := New("smtp.example.com", 587, "user", "pass")
	require.NoError(t, err)

	err = s.Send("from@example.com", []string{"broken recipient"}, "subject", "body")
	assert.Error(t, err)
}
