package initseq_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"i4.energy/across/ntnmodem/at"
	"i4.energy/across/ntnmodem/initseq"
)

func TestParse(t *testing.T) {
	data := []byte(`
- cmd: AT%RESET
  urc:
    pattern: "%BOOTEV:0"
    timeout: 30
  why: reboot to apply settings
- cmd: AT+CFUN=1
  res: OK
  timeout: 30
  retry:
    count: 2
    delay: 1.5
  why: radio on
- gpio:
    duration: 0.2
  delay: 1
  why: pulse reset line
`)
	seq, err := initseq.Parse(data)
	require.NoError(t, err)

	want := initseq.Sequence{
		{Command: "AT%RESET", Event: &initseq.Event{Pattern: "%BOOTEV:0", Timeout: 30 * time.Second}, Rationale: "reboot to apply settings"},
		{Command: "AT+CFUN=1", Expect: at.ResultOK, Timeout: 30 * time.Second, Retry: &initseq.Retry{Count: 2, Delay: 1500 * time.Millisecond}, Rationale: "radio on"},
		{Hardware: &initseq.Hardware{Duration: 200 * time.Millisecond}, Delay: time.Second, Rationale: "pulse reset line"},
	}
	if diff := cmp.Diff(want, seq, cmpopts.IgnoreFields(initseq.Hardware{}, "Action")); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSON(t *testing.T) {
	seq, err := initseq.Parse([]byte(`[{"cmd":"AT+CMEE=2","res":"ok","why":"verbose errors"}]`))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, at.ResultOK, seq[0].Expect)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown result", data: "- cmd: AT\n  res: MAYBE\n"},
		{name: "negative retry", data: "- cmd: AT\n  res: OK\n  retry:\n    count: -1\n"},
		{name: "urc without pattern", data: "- cmd: ATZ\n  urc:\n    timeout: 10\n"},
		{name: "not a list", data: "cmd: AT\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := initseq.Parse([]byte(tt.data))
			assert.ErrorIs(t, err, initseq.ErrInvalidRecord)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	seq := initseq.Default()

	data, err := initseq.Marshal(seq)
	require.NoError(t, err)

	got, err := initseq.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, seq, got)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "init.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- cmd: AT\n  res: OK\n"), 0o600))

	seq, err := initseq.Load(path)
	require.NoError(t, err)
	assert.Equal(t, initseq.Sequence{{Command: "AT", Expect: at.ResultOK}}, seq)

	_, err = initseq.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
