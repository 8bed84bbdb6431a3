package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type CommandKind string

const (
	CommandKindPlay        CommandKind = "play"
	CommandKindPause       CommandKind = "pause"
	CommandKindTestScent   CommandKind = "test-scent"
	CommandKindRequestAuth CommandKind = "request-auth"
)

type PlayParams struct {
	ScentID   string `json:"scent_id"`
	Intensity int    `json:"intensity"`
	CycleMs   int    `json:"cycle_ms"`
}

type TestScentParams struct {
	Position   int `json:"position"`
	DurationMs int `json:"duration_ms"`
}

// CommandPayload is a tagged variant: exactly the parameter set matching
// Kind may be non-nil. Pause and request-auth carry no parameters.
type CommandPayload struct {
	Kind      CommandKind      `json:"kind"`
	Play      *PlayParams      `json:"play,omitempty"`
	TestScent *TestScentParams `json:"test_scent,omitempty"`
}

func (p CommandPayload) Validate() error {
	switch p.Kind {
	case CommandKindPlay:
		if p.Play == nil || p.TestScent != nil {
			return fmt.Errorf("play command requires play parameters only")
		}
	case CommandKindTestScent:
		if p.TestScent == nil || p.Play != nil {
			return fmt.Errorf("test-scent command requires test-scent parameters only")
		}
	case CommandKindPause, CommandKindRequestAuth:
		if p.Play != nil || p.TestScent != nil {
			return fmt.Errorf("%s command takes no parameters", p.Kind)
		}
	default:
		return fmt.Errorf("unknown command kind '%s'", p.Kind)
	}
	return nil
}

type commandPayloadJSON struct {
	Kind   CommandKind     `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
}

func (p CommandPayload) MarshalJSON() ([]byte, error) {
	out := commandPayloadJSON{Kind: p.Kind}

	var params any
	switch p.Kind {
	case CommandKindPlay:
		params = p.Play
	case CommandKindTestScent:
		params = p.TestScent
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		out.Params = raw
	}

	return json.Marshal(out)
}

func (p *CommandPayload) UnmarshalJSON(data []byte) error {
	var in commandPayloadJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*p = CommandPayload{Kind: in.Kind}
	switch in.Kind {
	case CommandKindPlay:
		p.Play = &PlayParams{}
		if in.Params != nil {
			if err := json.Unmarshal(in.Params, p.Play); err != nil {
				return err
			}
		}
	case CommandKindTestScent:
		p.TestScent = &TestScentParams{}
		if in.Params != nil {
			if err := json.Unmarshal(in.Params, p.TestScent); err != nil {
				return err
			}
		}
	}

	return nil
}

type DeviceCommand struct {
	ID                string         `json:"id" gorm:"primaryKey"`
	DeviceID          string         `json:"device_id" gorm:"index"`
	Payload           CommandPayload `json:"payload" gorm:"serializer:json"`
	Executed          bool           `json:"executed"`
	ExecutedAt        *time.Time     `json:"executed_at,omitempty"`
	CreationTimestamp time.Time      `json:"creation_timestamp"`
}
