package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
)

func TestFakeScript(t *testing.T) {
	ctx := context.Background()
	f := channel.NewFake().
		On("AT+CFUN=1", channel.Fail(at.ResultTimeout), channel.OK()).
		On("AT+CESQ", channel.OK("+CESQ: 30,99,255,255,35,115"))

	r, err := f.Send(ctx, "AT+CFUN=1", 0)
	require.NoError(t, err)
	assert.Equal(t, at.ResultTimeout, r)

	for range 2 {
		r, _ = f.Send(ctx, "AT+CFUN=1", 0)
		assert.Equal(t, at.ResultOK, r, "last reply repeats")
	}

	r, _ = f.Send(ctx, "AT+CESQ", 0)
	assert.Equal(t, at.ResultOK, r)
	resp, ok := f.ReadResponse(at.UrcSignalQuality)
	assert.True(t, ok)
	assert.Equal(t, "+CESQ: 30,99,255,255,35,115", resp)

	r, _ = f.Send(ctx, "AT+UNKNOWN", 0)
	assert.Equal(t, at.ResultError, r)

	assert.Equal(t, 3, f.Count("AT+CFUN=1"))
	assert.Len(t, f.Calls(), 5)
}

func TestFakeUnsolicited(t *testing.T) {
	ctx := context.Background()
	f := channel.NewFake().On("ATZ", channel.Reply{Result: at.ResultOK, Unsolicited: []string{"%BOOTEV:0"}})
	f.Push("RDY")

	_, err := f.Send(ctx, "ATZ", 0)
	require.NoError(t, err)

	ready, err := f.PollUnsolicited(ctx, nil, 0)
	require.NoError(t, err)
	require.True(t, ready)
	resp, _ := f.ReadResponse("")
	assert.Equal(t, "%BOOTEV:0", resp)

	ready, _ = f.PollUnsolicited(ctx, nil, 0)
	assert.False(t, ready)

	require.NoError(t, f.Close())
	_, err = f.Send(ctx, "AT", 0)
	assert.ErrorIs(t, err, channel.ErrClosed)
}
