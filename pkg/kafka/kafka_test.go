package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Op string `json:"op"`
		ID int    `json:"document_id"`
	}
	got, err := DecodeJSON[payload]([]byte(`{"op":"add","document_id":3}`))
	require.NoError(t, err)
	assert.Equal(t, payload{Op: "add", ID: 3}, got)
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	_, err := DecodeJSON[map[string]any]([]byte("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding kafka message")
}

func TestEncodeMessages(t *testing.T) {
	msgs, err := encodeMessages([]Event{
		{Key: "1", Value: map[string]any{"op": "add"}},
		{Key: "2", Value: map[string]any{"op": "remove"}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("1"), msgs[0].Key)
	assert.JSONEq(t, `{"op":"add"}`, string(msgs[0].Value))
	assert.Equal(t, []byte("2"), msgs[1].Key)
}

func TestEncodeMessagesRejectsUnmarshalable(t *testing.T) {
	_, err := encodeMessages([]Event{{Key: "x", Value: make(chan int)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)
}
