package hook

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"predictionScope/internal/model"
)

var testPoolID = common.HexToHash("0x5c6d7f1e0a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5")

func TestDecoderLiquidityAdded(t *testing.T) {
	parsed, err := hookABI.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	hookAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	provider := common.HexToAddress("0x2222222222222222222222222222222222222222")

	event := parsed.Events[EventLiquidityAdded]
	data, err := event.Inputs.NonIndexed().Pack(
		big.NewInt(1600),
		big.NewInt(400),
		big.NewInt(2000),
	)
	if err != nil {
		t.Fatalf("pack liquidity: %v", err)
	}

	logRecord := buildLogRecord(hookAddr, event.ID, data, []common.Hash{
		testPoolID,
		common.BytesToHash(provider.Bytes()),
	})

	typed, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode liquidity: %v", err)
	}

	added, ok := typed.Decoded.(model.LiquidityAddedData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if added.Amount0 != "1600" || added.Amount1 != "400" || added.Shares != "2000" {
		t.Fatalf("amounts mismatch: %+v", added)
	}
	if added.Provider != provider.Hex() {
		t.Fatalf("provider mismatch: %s", added.Provider)
	}
	if added.PoolID != testPoolID.Hex() || typed.PoolID != testPoolID.Hex() {
		t.Fatalf("pool id mismatch: %s / %s", added.PoolID, typed.PoolID)
	}
	if typed.EventName != EventLiquidityAdded || typed.BlockNumber != 12345 {
		t.Fatalf("event envelope mismatch: %+v", typed)
	}
}

func TestDecoderSwapExecuted(t *testing.T) {
	parsed, err := hookABI.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	hookAddr := common.HexToAddress("0x9999999999999999999999999999999999999999")
	event := parsed.Events[EventSwapExecuted]
	data, err := event.Inputs.NonIndexed().Pack(true, big.NewInt(100), big.NewInt(100))
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(hookAddr, event.ID, data, []common.Hash{testPoolID})
	if !decoder.CanDecode(logRecord.Topics[0]) {
		t.Fatalf("decoder should accept swap topic")
	}

	typed, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := typed.Decoded.(model.SwapExecutedData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if !swap.ZeroForOne || swap.AmountIn != "100" || swap.AmountOut != "100" {
		t.Fatalf("swap mismatch: %+v", swap)
	}
	if swap.PoolID != testPoolID.Hex() {
		t.Fatalf("pool id mismatch: %s", swap.PoolID)
	}
}

func TestDecoderRejects(t *testing.T) {
	decoder, err := NewDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	parsed, err := hookABI.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	if decoder.CanDecode("") {
		t.Fatalf("empty topic must not decode")
	}
	if decoder.CanDecode(common.HexToHash("0x01").Hex()) {
		t.Fatalf("unknown topic must not decode")
	}

	// SwapExecuted carries one indexed topic; a missing pool id is malformed.
	hookAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data, err := parsed.Events[EventSwapExecuted].Inputs.NonIndexed().Pack(false, big.NewInt(1), big.NewInt(1))
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}
	logRecord := buildLogRecord(hookAddr, parsed.Events[EventSwapExecuted].ID, data, nil)
	if _, err := decoder.Decode(logRecord); err == nil {
		t.Fatalf("expected topic count error")
	}

	if _, err := NewDecoder(DecoderConfig{Topic0Map: map[string]string{"0x01": "Mint"}}); err == nil {
		t.Fatalf("expected unsupported name error")
	}
}

func TestDecoderTopicOverride(t *testing.T) {
	parsed, err := hookABI.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	alias := common.HexToHash("0xabcdef").Hex()
	decoder, err := NewDecoder(DecoderConfig{Topic0Map: map[string]string{alias: "swap_executed"}})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := parsed.Events[EventSwapExecuted].Inputs.NonIndexed().Pack(false, big.NewInt(7), big.NewInt(5))
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}
	hookAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	logRecord := buildLogRecord(hookAddr, common.HexToHash(alias), data, []common.Hash{testPoolID})

	typed, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode alias: %v", err)
	}
	if typed.EventName != EventSwapExecuted {
		t.Fatalf("event name mismatch: %s", typed.EventName)
	}
}

func TestEventTopics(t *testing.T) {
	topics, err := EventTopics()
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(topics) != 2 || topics[0] == topics[1] {
		t.Fatalf("unexpected topics: %v", topics)
	}
}

func buildLogRecord(address common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:     137,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}
