package mau

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	form := &Form{Name: "example"}
	s := newSession("12345", form, nil)
	assert.Equal(t, SessionVersion, s.Version)
	assert.Equal(t, "12345", s.ChatID)
	assert.Equal(t, "example", s.Form)
	assert.Empty(t, s.Query)
	assert.Nil(t, s.Answers)
}

func TestSessionRoundTrip(t *testing.T) {
	form := &Form{Name: "example"}
	s := newSession("12345", form, map[string]any{"seeded": "yes"})
	s.Query = "color"
	s.Text = "Pick a color."
	s.Choices = []string{"red", "green"}
	s.setAnswer("name", "ada")

	data, err := s.encode()
	require.NoError(t, err)

	decoded, err := decodeSession(data)
	require.NoError(t, err)
	assert.Equal(t, s.Version, decoded.Version)
	assert.Equal(t, s.ChatID, decoded.ChatID)
	assert.Equal(t, s.Form, decoded.Form)
	assert.Equal(t, s.Query, decoded.Query)
	assert.Equal(t, s.Text, decoded.Text)
	assert.Equal(t, s.Choices, decoded.Choices)
	assert.Equal(t, map[string]any{"seeded": "yes", "name": "ada"}, decoded.Answers)
}

func TestDecodeSessionVersionMismatch(t *testing.T) {
	_, err := decodeSession([]byte(`{"version":7,"chatID":"12345","form":"example"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSession)
}

func TestDecodeSessionBadPayload(t *testing.T) {
	_, err := decodeSession([]byte(`not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSession)
}
