package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"predictionScope/internal/hook"
)

// ParseAddresses converts hook addresses into common.Address, dropping blanks
// and case-insensitive duplicates.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	seen := make(map[common.Address]struct{}, len(inputs))
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addr := common.HexToAddress(input)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ParseTopic0 accepts 32-byte hex hashes or hook event names such as
// "SwapExecuted" or "liquidity_added".
func ParseTopic0(inputs []string) ([]common.Hash, error) {
	seen := make(map[common.Hash]struct{}, len(inputs))
	topics := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		var topic common.Hash
		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			data, err := hexutil.Decode(input)
			if err != nil {
				return nil, fmt.Errorf("invalid topic0: %s", input)
			}
			if len(data) != common.HashLength {
				return nil, fmt.Errorf("invalid topic0 length: %s", input)
			}
			topic = common.BytesToHash(data)
		} else {
			id, ok := hook.EventTopic(input)
			if !ok {
				return nil, fmt.Errorf("unknown hook event: %s", input)
			}
			topic = id
		}

		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics, nil
}
