package modem_test

import (
	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/channel"
)

// MockSequenceBuilder collects the channel calls of a modem conversation
// for use with gomock.InOrder.
type MockSequenceBuilder struct {
	channel *channel.MockChannel
	calls   []any
}

func NewMockSequence(ch *channel.MockChannel) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		channel: ch,
		calls:   []any{},
	}
}

// Command expects cmd to be sent and answered with result.
func (b *MockSequenceBuilder) Command(cmd string, result at.ResultCode) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.channel.EXPECT().Send(gomock.Any(), cmd, gomock.Any()).Return(result, nil),
	)
	return b
}

// Response expects the response of the last command to be read.
func (b *MockSequenceBuilder) Response(prefix, resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.channel.EXPECT().ReadResponse(prefix).Return(resp, resp != ""),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.Command(at.CmdAt, at.ResultOK)
}

func (b *MockSequenceBuilder) EchoOff() *MockSequenceBuilder {
	return b.Command(at.CmdEchoOff, at.ResultOK)
}

// Info expects the ATI query answered with info.
func (b *MockSequenceBuilder) Info(info string) *MockSequenceBuilder {
	return b.Command(at.CmdInfo, at.ResultOK).Response("", info)
}

// Connect expects the conversation of modem.New.
func (b *MockSequenceBuilder) Connect(info string) *MockSequenceBuilder {
	return b.AT().EchoOff().Info(info)
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
