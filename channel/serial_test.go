package channel

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/mock/gomock"
	"i4.energy/across/ntnmodem/at"
)

func TestSerialDialer_Dial_EmptyPortName(t *testing.T) {
	dialer := SerialDialer{
		PortName: "",
	}

	ctx := context.Background()
	transport, err := dialer.Dial(ctx)

	if !errors.Is(err, ErrNoPortName) {
		t.Errorf("expected ErrNoPortName, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport for empty port name")
	}
}

func TestSerialDialer_Dial_NilContext(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/ttyUSB0",
	}

	transport, err := dialer.Dial(nil)

	if !errors.Is(err, ErrNilContext) {
		t.Errorf("expected ErrNilContext, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport for nil context")
	}
}

func TestSerialDialer_Dial_ContextCanceled(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent", // Port that should fail to open
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	transport, err := dialer.Dial(ctx)

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport for canceled context")
	}
}

func TestSerialDialer_Dial_NonexistentPort(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent", // This will fail, but we test the path
		Options:  PortOptions{BaudRate: 9600, Parity: "even"},
	}

	transport, err := dialer.Dial(context.Background())

	if err == nil {
		t.Error("expected error for non-existent port")
	}
	if transport != nil {
		t.Error("expected nil transport for non-existent port")
	}
}

func TestSerialDialer_Dial_InvalidOptions(t *testing.T) {
	dialer := SerialDialer{
		PortName: "/dev/nonexistent",
		Options:  PortOptions{DataBits: 9},
	}

	if _, err := dialer.Dial(context.Background()); err == nil {
		t.Error("expected error for invalid data bits")
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		want    serial.Mode
		wantErr bool
	}{
		{
			name: "defaults",
			opts: PortOptions{},
			want: serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
		},
		{
			name: "explicit values",
			opts: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "o"},
			want: serial.Mode{BaudRate: 9600, DataBits: 7, Parity: serial.OddParity, StopBits: serial.TwoStopBits},
		},
		{name: "bad stop bits", opts: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", opts: PortOptions{Parity: "mark"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.opts.SerialMode()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SerialMode() error = %v", err)
			}
			if *mode != tt.want {
				t.Errorf("SerialMode() = %+v, want %+v", *mode, tt.want)
			}
		})
	}
}

func TestClientOverMockTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := NewMockTransport(ctrl)
	written := make(chan struct{})

	mockTransport.EXPECT().Write([]byte("AT+CGSN=1\r")).DoAndReturn(func(p []byte) (int, error) {
		close(written)
		return len(p), nil
	})
	gomock.InOrder(
		mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			<-written
			resp := "+CGSN: \"490154203237518\"\r\nOK\r\n"
			return copy(p, resp), nil
		}),
		mockTransport.EXPECT().Read(gomock.Any()).Return(0, io.EOF),
	)
	mockTransport.EXPECT().Close().Return(nil)

	c := NewClient(mockTransport, nil)
	result, err := c.Send(context.Background(), at.CmdIMEI, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != at.ResultOK {
		t.Errorf("expected OK, got %v", result)
	}
	resp, ok := c.ReadResponse(at.RespIMEI)
	if !ok || resp != `+CGSN: "490154203237518"` {
		t.Errorf("unexpected response %q", resp)
	}

	// wait for the reader to consume EOF so every expected Read happened
	deadline := time.Now().Add(time.Second)
	for {
		_, err := c.PollUnsolicited(context.Background(), nil, 0)
		if errors.Is(err, ErrDisconnected) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reader did not observe EOF")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestDialerInterface_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDialer := NewMockDialer(ctrl)
	dialError := errors.New("dial failed")

	ctx := context.Background()
	mockDialer.EXPECT().Dial(ctx).Return(nil, dialError)

	transport, err := mockDialer.Dial(ctx)
	if err != dialError {
		t.Errorf("expected dial error, got: %v", err)
	}
	if transport != nil {
		t.Error("expected nil transport on error")
	}
}
