package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrame(CmdSubscribe, "id", "sub-1", "destination", "/topic/casos/nuevosCasos")
	raw := f.Marshal()

	parsed, err := ParseFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, CmdSubscribe, parsed.Command)
	assert.Equal(t, "sub-1", parsed.Headers["id"])
	assert.Equal(t, "/topic/casos/nuevosCasos", parsed.Headers["destination"])
	assert.Empty(t, parsed.Body)
}

func TestParseFrameWithBody(t *testing.T) {
	raw := []byte("MESSAGE\nsubscription:s1\ndestination:/topic/mensajes\n\n{\"id\":\"m1\"}\x00")
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, CmdMessage, f.Command)
	assert.Equal(t, "s1", f.Headers["subscription"])
	assert.JSONEq(t, `{"id":"m1"}`, string(f.Body))
}

func TestParseFrameCRLF(t *testing.T) {
	raw := []byte("CONNECTED\r\nversion:1.2\r\n\r\n\x00")
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, CmdConnected, f.Command)
	assert.Equal(t, "1.2", f.Headers["version"])
}

func TestParseFrameHeartbeat(t *testing.T) {
	f, err := ParseFrame([]byte("\n"))
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestParseFrameMalformed(t *testing.T) {
	_, err := ParseFrame([]byte("GARBAGE-NO-SEPARATOR"))
	assert.ErrorIs(t, err, errFrameMalformado)
}

func TestParseFrameFirstHeaderWins(t *testing.T) {
	raw := []byte("MESSAGE\ndestination:/topic/a\ndestination:/topic/b\n\n\x00")
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, "/topic/a", f.Headers["destination"])
}
