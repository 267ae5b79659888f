package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCodecFramePassthrough(t *testing.T) {
	c := Codec{}

	payload := []byte{0x0a, 0x05, 'h', 'e', 'l', 'l', 'o'}
	out, err := c.Marshal(&Frame{Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	var f Frame
	require.NoError(t, c.Unmarshal(out, &f))
	assert.Equal(t, payload, f.Payload)
}

func TestCodecFrameEmpty(t *testing.T) {
	c := Codec{}

	f := Frame{Payload: []byte("stale")}
	require.NoError(t, c.Unmarshal(nil, &f))
	assert.Nil(t, f.Payload)
}

func TestCodecUnmarshalCopies(t *testing.T) {
	c := Codec{}

	data := []byte{1, 2, 3}
	var f Frame
	require.NoError(t, c.Unmarshal(data, &f))

	data[0] = 9
	assert.Equal(t, byte(1), f.Payload[0])
}

func TestCodecProtoFallback(t *testing.T) {
	c := Codec{}

	msg := wrapperspb.String("fallback")
	data, err := c.Marshal(msg)
	require.NoError(t, err)

	var got wrapperspb.StringValue
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, "fallback", got.GetValue())
}

func TestCodecRejectsUnknownTypes(t *testing.T) {
	c := Codec{}

	_, err := c.Marshal(42)
	assert.Error(t, err)

	assert.Error(t, c.Unmarshal([]byte{1}, &struct{}{}))
}

func TestCodecName(t *testing.T) {
	assert.Equal(t, "proto", Codec{}.Name())
}
