package model

import (
	"encoding/json"
	"fmt"
)

// Hook event names as they appear in EventHeader.EventName.
const (
	EventLiquidityAdded = "LiquidityAdded"
	EventSwapExecuted   = "SwapExecuted"
)

// TypedEventRecord is a TypedEvent read back from JSONL with its payload
// left undecoded until the event name is known.
type TypedEventRecord struct {
	EventHeader
	Decoded json.RawMessage `json:"decoded"`
	Raw     *RawLogRef      `json:"raw,omitempty"`
}

// LiquidityAdded decodes the payload of a LiquidityAdded record.
func (r TypedEventRecord) LiquidityAdded() (LiquidityAddedData, error) {
	var data LiquidityAddedData
	if err := r.decode(EventLiquidityAdded, &data); err != nil {
		return LiquidityAddedData{}, err
	}
	return data, nil
}

// SwapExecuted decodes the payload of a SwapExecuted record.
func (r TypedEventRecord) SwapExecuted() (SwapExecutedData, error) {
	var data SwapExecutedData
	if err := r.decode(EventSwapExecuted, &data); err != nil {
		return SwapExecutedData{}, err
	}
	return data, nil
}

func (r TypedEventRecord) decode(want string, out interface{}) error {
	if r.EventName != want {
		return fmt.Errorf("record is %s, not %s", r.EventName, want)
	}
	if len(r.Decoded) == 0 {
		return fmt.Errorf("%s record has no payload", want)
	}
	if err := json.Unmarshal(r.Decoded, out); err != nil {
		return fmt.Errorf("decode %s: %w", want, err)
	}
	return nil
}
