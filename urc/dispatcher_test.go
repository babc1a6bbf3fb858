package urc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"i4.energy/across/ntnmodem/channel"
	"i4.energy/across/ntnmodem/timeutil"
	"i4.energy/across/ntnmodem/urc"
)

var epoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	table := urc.DefaultTable()
	tests := []struct {
		line string
		want urc.Kind
	}{
		{"+CEREG: 2", urc.KindRegistration},
		{`+CRTDCP: 1,2,"0102"`, urc.KindConnectionlessData},
		{"%SOCKETEV:1,1", urc.KindUnknown},
		{"garbage", urc.KindUnknown},
		{"", urc.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Classify(tt.line))
		})
	}

	extended := table.With(
		urc.Rule{Prefix: "%SOCKETEV:", Kind: urc.KindSocketData},
		urc.Rule{Prefix: "+CEREG: 0", Kind: urc.KindUnknown},
	)
	assert.Equal(t, urc.KindSocketData, extended.Classify("%SOCKETEV:1,1"))
	assert.Equal(t, urc.KindUnknown, extended.Classify("+CEREG: 0"), "longest prefix wins")
	assert.Equal(t, urc.KindRegistration, extended.Classify("+CEREG: 1"))
	assert.Len(t, table, 2, "With does not modify the receiver")
}

func TestKindText(t *testing.T) {
	for k := urc.KindUnknown; k <= urc.KindBoot; k++ {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var back urc.Kind
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}
	_, err := urc.ParseKind("sms")
	assert.Error(t, err)
}

func TestAwait(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the matching line and queues others", func(t *testing.T) {
		fake := channel.NewFake()
		fake.Push("+CEREG: 2", "%BOOTEV:0")
		clock := timeutil.NewMockClock(epoch)
		d := urc.NewDispatcher(fake, urc.Options{Clock: clock})

		line, err := d.Await(ctx, "%BOOTEV:0", 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "%BOOTEV:0", line)

		ev, ok := d.Next()
		require.True(t, ok)
		assert.Equal(t, urc.KindRegistration, ev.Kind)
		assert.Equal(t, "+CEREG: 2", ev.Line)
		assert.Empty(t, clock.Sleeps())
	})

	t.Run("Times out with empty result", func(t *testing.T) {
		clock := timeutil.NewMockClock(epoch)
		d := urc.NewDispatcher(channel.NewFake(), urc.Options{Clock: clock})

		line, err := d.Await(ctx, "%BOOTEV:0", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "", line)
		assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, time.Second, time.Second}, clock.Sleeps())
	})

	t.Run("Previously queued event satisfies the wait", func(t *testing.T) {
		fake := channel.NewFake()
		fake.Push("+CEREG: 5")
		d := urc.NewDispatcher(fake, urc.Options{Clock: timeutil.NewMockClock(epoch)})

		n, err := d.Poll(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		line, err := d.Await(ctx, "+CEREG:", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "+CEREG: 5", line)
		assert.Equal(t, 0, d.Pending())
	})

	t.Run("Zero timeout waits until the event arrives", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ch := channel.NewMockChannel(ctrl)
		clock := timeutil.NewMockClock(epoch)
		prefixes := []string{"+", "%"}

		gomock.InOrder(
			ch.EXPECT().PollUnsolicited(gomock.Any(), prefixes, time.Duration(0)).Return(false, nil).Times(3),
			ch.EXPECT().PollUnsolicited(gomock.Any(), prefixes, time.Duration(0)).Return(true, nil),
			ch.EXPECT().ReadResponse("").Return("%BOOTEV:0", true),
		)

		d := urc.NewDispatcher(ch, urc.Options{Clock: clock, Prefixes: prefixes})
		line, err := d.Await(ctx, "%BOOTEV", 0)
		require.NoError(t, err)
		assert.Equal(t, "%BOOTEV:0", line)
		assert.Len(t, clock.Sleeps(), 3)
	})

	t.Run("Channel failure is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ch := channel.NewMockChannel(ctrl)
		ch.EXPECT().PollUnsolicited(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, channel.ErrDisconnected)

		d := urc.NewDispatcher(ch, urc.Options{Clock: timeutil.NewMockClock(epoch)})
		_, err := d.Await(ctx, "%BOOTEV:0", time.Minute)
		assert.True(t, errors.Is(err, channel.ErrDisconnected))
	})
}

func TestDispatchHandlers(t *testing.T) {
	ctx := context.Background()
	fake := channel.NewFake()
	fake.Push(`+CRTDCP: 1,2,"0102"`, "+CEREG: 1", "%IGNORED:1")

	d := urc.NewDispatcher(fake, urc.Options{Clock: timeutil.NewMockClock(epoch)})

	var got []urc.Event
	d.Handle(urc.KindConnectionlessData, func(ev urc.Event) { got = append(got, ev) })

	n, err := d.Poll(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, got, 1)
	assert.Equal(t, `+CRTDCP: 1,2,"0102"`, got[0].Line)
	assert.Equal(t, epoch, got[0].Received)

	assert.Equal(t, 2, d.Pending())
	ev, _ := d.Next()
	assert.Equal(t, urc.KindRegistration, ev.Kind)
	ev, _ = d.Next()
	assert.Equal(t, urc.KindUnknown, ev.Kind)
	_, ok := d.Next()
	assert.False(t, ok)

	d.Extend(urc.Rule{Prefix: "%IGNORED:", Kind: urc.KindBoot})
	assert.Equal(t, urc.KindBoot, d.Classify("%IGNORED:1"))
}
