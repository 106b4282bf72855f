package hook

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"predictionScope/internal/contract"
	"predictionScope/internal/model"
)

const (
	EventLiquidityAdded = model.EventLiquidityAdded
	EventSwapExecuted   = model.EventSwapExecuted
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map maps extra topic0 hashes to event names, for hooks deployed
	// with renamed but layout-compatible events.
	Topic0Map map[string]string
}

// Decoder decodes hook events from raw log records.
type Decoder struct {
	hookABI     abi.ABI
	topicToName map[string]string
}

// NewDecoder builds a hook event decoder.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	parsed, err := hookABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse hook abi: %w", err)
	}

	topicToName := map[string]string{
		strings.ToLower(parsed.Events[EventLiquidityAdded].ID.Hex()): EventLiquidityAdded,
		strings.ToLower(parsed.Events[EventSwapExecuted].ID.Hex()):   EventSwapExecuted,
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = name
	}

	return &Decoder{
		hookABI:     parsed,
		topicToName: topicToName,
	}, nil
}

// EventTopics returns the topic0 hashes of the hook events, used as the
// default indexer filter.
func EventTopics() ([]common.Hash, error) {
	parsed, err := hookABI.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse hook abi: %w", err)
	}
	return []common.Hash{
		parsed.Events[EventLiquidityAdded].ID,
		parsed.Events[EventSwapExecuted].ID,
	}, nil
}

// EventTopic resolves an event name, in any of the spellings the topic0 map
// accepts, to its topic0 hash.
func EventTopic(name string) (common.Hash, bool) {
	canonical := normalizeEventName(name)
	if canonical == "" {
		return common.Hash{}, false
	}
	parsed, err := hookABI.ABI()
	if err != nil {
		return common.Hash{}, false
	}
	event, ok := parsed.Events[canonical]
	if !ok {
		return common.Hash{}, false
	}
	return event.ID, true
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid hook address: %s", log.Address)
	}

	switch name {
	case EventLiquidityAdded:
		decoded, err := d.decodeLiquidityAdded(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	case EventSwapExecuted:
		decoded, err := d.decodeSwapExecuted(log)
		if err != nil {
			return nil, err
		}
		return buildTypedEvent(log, name, decoded.PoolID, decoded), nil
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "liquidityadded", "liquidity_added":
		return EventLiquidityAdded
	case "swapexecuted", "swap_executed", "swap":
		return EventSwapExecuted
	default:
		return ""
	}
}

func buildTypedEvent(log model.LogRecord, name, poolID string, decoded interface{}) *model.TypedEvent {
	return &model.TypedEvent{
		EventHeader: log.Header(name, poolID),
		Decoded:     decoded,
		Raw:         &model.RawLogRef{Topic0: log.Topic0(), Data: log.Data},
	}
}

func (d *Decoder) decodeLiquidityAdded(log model.LogRecord) (model.LiquidityAddedData, error) {
	event := d.hookABI.Events[EventLiquidityAdded]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.LiquidityAddedData{}, err
	}

	var indexed struct {
		PoolId   [32]byte
		Provider common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.LiquidityAddedData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.LiquidityAddedData{}, err
	}
	if len(values) != 3 {
		return model.LiquidityAddedData{}, fmt.Errorf("unexpected liquidity values: %d", len(values))
	}

	amount0, err := contract.AsBigInt(values[0])
	if err != nil {
		return model.LiquidityAddedData{}, err
	}
	amount1, err := contract.AsBigInt(values[1])
	if err != nil {
		return model.LiquidityAddedData{}, err
	}
	shares, err := contract.AsBigInt(values[2])
	if err != nil {
		return model.LiquidityAddedData{}, err
	}

	return model.LiquidityAddedData{
		PoolID:   common.Hash(indexed.PoolId).Hex(),
		Provider: indexed.Provider.Hex(),
		Amount0:  amount0.String(),
		Amount1:  amount1.String(),
		Shares:   shares.String(),
	}, nil
}

func (d *Decoder) decodeSwapExecuted(log model.LogRecord) (model.SwapExecutedData, error) {
	event := d.hookABI.Events[EventSwapExecuted]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapExecutedData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapExecutedData{}, err
	}
	if len(values) != 3 {
		return model.SwapExecutedData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	zeroForOne, err := contract.AsBool(values[0])
	if err != nil {
		return model.SwapExecutedData{}, err
	}
	amountIn, err := contract.AsBigInt(values[1])
	if err != nil {
		return model.SwapExecutedData{}, err
	}
	amountOut, err := contract.AsBigInt(values[2])
	if err != nil {
		return model.SwapExecutedData{}, err
	}

	return model.SwapExecutedData{
		PoolID:     indexedTopics[0].Hex(),
		ZeroForOne: zeroForOne,
		AmountIn:   amountIn.String(),
		AmountOut:  amountOut.String(),
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
