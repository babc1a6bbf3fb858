package initseq

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"i4.energy/across/ntnmodem/at"
)

// Record is the external representation of a Step. Durations are in
// seconds. Because YAML is a superset of JSON, Parse accepts both.
type Record struct {
	Cmd     string       `yaml:"cmd,omitempty" json:"cmd,omitempty"`
	Res     string       `yaml:"res,omitempty" json:"res,omitempty"`
	Timeout float64      `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Delay   float64      `yaml:"delay,omitempty" json:"delay,omitempty"`
	Retry   *RetryRecord `yaml:"retry,omitempty" json:"retry,omitempty"`
	Urc     *UrcRecord   `yaml:"urc,omitempty" json:"urc,omitempty"`
	Gpio    *GpioRecord  `yaml:"gpio,omitempty" json:"gpio,omitempty"`
	Why     string       `yaml:"why,omitempty" json:"why,omitempty"`
}

type RetryRecord struct {
	Count int     `yaml:"count" json:"count"`
	Delay float64 `yaml:"delay,omitempty" json:"delay,omitempty"`
}

type UrcRecord struct {
	Pattern string  `yaml:"pattern" json:"pattern"`
	Timeout float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

type GpioRecord struct {
	Duration float64 `yaml:"duration" json:"duration"`
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Step converts the record.
func (r Record) Step() (Step, error) {
	step := Step{
		Command:   r.Cmd,
		Timeout:   seconds(r.Timeout),
		Delay:     seconds(r.Delay),
		Rationale: r.Why,
	}
	if r.Res != "" {
		code, ok := at.ParseResultName(r.Res)
		if !ok {
			return Step{}, fmt.Errorf("%w: unknown result %q", ErrInvalidRecord, r.Res)
		}
		step.Expect = code
	}
	if r.Retry != nil {
		if r.Retry.Count < 0 {
			return Step{}, fmt.Errorf("%w: negative retry count", ErrInvalidRecord)
		}
		step.Retry = &Retry{Count: r.Retry.Count, Delay: seconds(r.Retry.Delay)}
	}
	if r.Urc != nil {
		if r.Urc.Pattern == "" {
			return Step{}, fmt.Errorf("%w: urc without pattern", ErrInvalidRecord)
		}
		step.Event = &Event{Pattern: r.Urc.Pattern, Timeout: seconds(r.Urc.Timeout)}
	}
	if r.Gpio != nil {
		step.Hardware = &Hardware{Duration: seconds(r.Gpio.Duration)}
	}
	return step, nil
}

// Record converts the step. Hardware actions are not representable and
// only their duration is kept.
func (s Step) Record() Record {
	r := Record{
		Cmd:     s.Command,
		Timeout: s.Timeout.Seconds(),
		Delay:   s.Delay.Seconds(),
		Why:     s.Rationale,
	}
	if s.Expect != at.ResultUnknown {
		r.Res = s.Expect.String()
	}
	if s.Retry != nil {
		r.Retry = &RetryRecord{Count: s.Retry.Count, Delay: s.Retry.Delay.Seconds()}
	}
	if s.Event != nil {
		r.Urc = &UrcRecord{Pattern: s.Event.Pattern, Timeout: s.Event.Timeout.Seconds()}
	}
	if s.Hardware != nil {
		r.Gpio = &GpioRecord{Duration: s.Hardware.Duration.Seconds()}
	}
	return r
}

// FromRecords builds a Sequence from its external representation.
func FromRecords(records []Record) (Sequence, error) {
	seq := make(Sequence, 0, len(records))
	for i, r := range records {
		step, err := r.Step()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		seq = append(seq, step)
	}
	return seq, nil
}

// Records returns the external representation of seq.
func (seq Sequence) Records() []Record {
	records := make([]Record, len(seq))
	for i, s := range seq {
		records[i] = s.Record()
	}
	return records
}

// Parse decodes a YAML or JSON list of records.
func Parse(data []byte) (Sequence, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return FromRecords(records)
}

// Marshal encodes seq as a YAML list of records.
func Marshal(seq Sequence) ([]byte, error) {
	return yaml.Marshal(seq.Records())
}

// Load reads a sequence file.
func Load(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read init sequence: %w", err)
	}
	seq, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse init sequence %s: %w", path, err)
	}
	return seq, nil
}
