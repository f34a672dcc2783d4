package fhe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandle_MarshalText(t *testing.T) {
	h := Handle([]byte{0xde, 0xad, 0xbe, 0xef})

	text, err := h.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "deadbeef", string(text))

	var restored Handle
	require.NoError(t, restored.UnmarshalText(text))
	require.True(t, h.Equal(restored))

	err = restored.UnmarshalText([]byte("not hex"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode handle")
}

func TestHandle_JSON(t *testing.T) {
	h := Handle([]byte{0xde, 0xad, 0xbe, 0xef})

	data, err := json.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, `"deadbeef"`, string(data))

	var restored Handle
	require.NoError(t, json.Unmarshal(data, &restored))
	require.True(t, h.Equal(restored))
}

func TestHandle_String(t *testing.T) {
	h := Handle([]byte{0xde, 0xad, 0xbe, 0xef, 0x01})
	require.Equal(t, "handle[deadbeef]", h.String())

	require.Equal(t, "handle[]", Handle(nil).String())
}
