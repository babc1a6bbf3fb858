package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/modem"
	"i4.energy/across/ntnmodem/variant/builtin"
)

const genericInfo = "Acme Radio 1.0"

// connected returns a Fake answering the conversation of modem.New and
// the status queries of a registered modem.
func connected() *channel.Fake {
	return channel.NewFake().
		On(at.CmdAt, channel.OK()).
		On(at.CmdEchoOff, channel.OK()).
		On(at.CmdInfo, channel.OK(strings.Split(genericInfo, "\n")...)).
		On(at.CmdRegistration, channel.OK(`+CEREG: 5,1,"1234","0A0B0C",9`)).
		On(at.CmdSignal, channel.OK("+CESQ: 99,99,255,255,35,115"))
}

func newModem(t *testing.T, ch channel.Channel) *modem.Modem {
	t.Helper()
	config, err := modem.NewConfigBuilder().
		WithChannel(ch).
		WithRegistry(builtin.NewRegistry()).
		Build()
	require.NoError(t, err)

	m, err := modem.New(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// startGateway runs a gateway over fake until the test ends.
func startGateway(t *testing.T, fake *channel.Fake, configure ...func(*Gateway)) *Gateway {
	t.Helper()
	g := &Gateway{
		Modem:        newModem(t, fake),
		PollInterval: time.Millisecond,
	}
	for _, fn := range configure {
		fn(g)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return g
}

func TestGateway(t *testing.T) {
	t.Run("Initial status", func(t *testing.T) {
		g := startGateway(t, connected())

		// Updated is set once both registration and signal are known.
		require.Eventually(t, func() bool {
			return !g.Status().Updated.IsZero()
		}, time.Second, time.Millisecond)

		status := g.Status()
		assert.Equal(t, "generic", status.Variant)
		assert.Equal(t, "HOME", status.Registration)
		assert.Equal(t, "1234", status.TrackingArea)
		assert.Equal(t, "0A0B0C", status.CellID)
		require.NotNil(t, status.SINR)
		assert.Equal(t, 23.0, *status.SINR)
		assert.Equal(t, "STRONG", status.Quality)
	})

	t.Run("Downlink", func(t *testing.T) {
		fake := connected()
		g := startGateway(t, fake)
		fake.Push(`+CRTDCP: 1,5,"68656c6c6f"`)

		assert.Eventually(t, func() bool {
			return g.Status().Downlinks == 1
		}, time.Second, time.Millisecond)
		assert.Equal(t, []byte("hello"), g.Status().LastDownlink)
	})

	t.Run("Registration event", func(t *testing.T) {
		fake := connected()
		g := startGateway(t, fake)
		require.Eventually(t, func() bool {
			return g.Status().Registration == "HOME"
		}, time.Second, time.Millisecond)

		fake.Push(`+CEREG: 2,"1234","0A0B0C",9`)
		assert.Eventually(t, func() bool {
			return g.Status().Registration == "SEARCHING"
		}, time.Second, time.Millisecond)
	})

	t.Run("Send", func(t *testing.T) {
		fake := connected().On(`AT+CSODCP=1,4,"70696e67"`, channel.OK())
		g := startGateway(t, fake)

		msg, err := g.Send(context.Background(), Uplink{Payload: []byte("ping")})
		require.NoError(t, err)
		assert.Equal(t, 4, msg.Size)
		assert.Equal(t, 1, g.Status().Uplinks)
	})

	t.Run("Periodic status uplink", func(t *testing.T) {
		fake := connected().On(`AT+CSODCP=1,4,"54455354"`, channel.OK())
		g := startGateway(t, fake, func(g *Gateway) {
			g.TransmitInterval = 5 * time.Millisecond
		})

		assert.Eventually(t, func() bool {
			return g.Status().Uplinks >= 2
		}, time.Second, time.Millisecond)
	})

	t.Run("No status uplink while unregistered", func(t *testing.T) {
		fake := channel.NewFake().
			On(at.CmdAt, channel.OK()).
			On(at.CmdEchoOff, channel.OK()).
			On(at.CmdInfo, channel.OK(genericInfo)).
			On(at.CmdRegistration, channel.OK(`+CEREG: 5,2`)).
			On(at.CmdSignal, channel.OK("+CESQ: 99,99,255,255,255,255"))
		g := startGateway(t, fake, func(g *Gateway) {
			g.TransmitInterval = time.Millisecond
		})

		assert.Eventually(t, func() bool {
			return fake.Count(at.CmdRegistration) >= 3
		}, time.Second, time.Millisecond)
		assert.Zero(t, g.Status().Uplinks)
		assert.Zero(t, fake.Count(`AT+CSODCP=1,4,"54455354"`))
	})

	t.Run("Stops when disconnected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ch := channel.NewMockChannel(ctrl)
		gomock.InOrder(
			ch.EXPECT().Send(gomock.Any(), at.CmdAt, gomock.Any()).Return(at.ResultOK, nil),
			ch.EXPECT().Send(gomock.Any(), at.CmdEchoOff, gomock.Any()).Return(at.ResultOK, nil),
			ch.EXPECT().Send(gomock.Any(), at.CmdInfo, gomock.Any()).Return(at.ResultOK, nil),
			ch.EXPECT().ReadResponse("").Return(genericInfo, true),
			ch.EXPECT().Send(gomock.Any(), at.CmdRegistration, gomock.Any()).Return(at.ResultUnknown, channel.ErrDisconnected),
		)
		ch.EXPECT().Close().Return(nil).AnyTimes()

		g := &Gateway{Modem: newModem(t, ch)}
		err := g.Run(context.Background())
		assert.ErrorIs(t, err, channel.ErrDisconnected)
	})
}
