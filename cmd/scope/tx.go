package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"predictionScope/internal/chain"
	"predictionScope/internal/config"
	"predictionScope/internal/wrap"
)

// sender submits calls one at a time. With dryRun set it only prints the
// call so it can be pasted into a multisig; otherwise each call is signed,
// sent once and awaited before the next one.
type sender struct {
	client *chain.Client
	cfg    config.ChainConfig
	dryRun bool
	out    io.Writer
	logger *zap.Logger
	key    *ecdsa.PrivateKey
}

func newSender(client *chain.Client, cfg config.ChainConfig, dryRun bool, out io.Writer, logger *zap.Logger) *sender {
	return &sender{client: client, cfg: cfg, dryRun: dryRun, out: out, logger: logger}
}

func (s *sender) signingKey() (*ecdsa.PrivateKey, error) {
	if s.key != nil {
		return s.key, nil
	}
	key, err := chain.LoadKey(s.cfg.EnvFile, s.cfg.KeyEnv)
	if err != nil {
		return nil, err
	}
	s.key = key
	return key, nil
}

// account returns the address calls are sent from. In dry-run mode without a
// key, fallback is used and may be the zero address.
func (s *sender) account(fallback common.Address) (common.Address, error) {
	key, err := s.signingKey()
	if err != nil {
		if s.dryRun {
			return fallback, nil
		}
		return common.Address{}, err
	}
	return addressOf(key), nil
}

func addressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func (s *sender) send(ctx context.Context, label string, to common.Address, data []byte) error {
	if s.dryRun {
		fmt.Fprintf(s.out, "%s\n  to:    %s\n  value: 0\n  data:  %s\n", label, to.Hex(), hexutil.Encode(data))
		return nil
	}

	key, err := s.signingKey()
	if err != nil {
		return err
	}
	tx, err := s.client.Transact(ctx, key, to, data)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	s.logger.Info("transaction sent",
		zap.String("call", label),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", tx.Nonce()),
	)

	receipt, err := s.client.WaitReceipt(ctx, tx)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	s.logger.Info("transaction mined",
		zap.String("call", label),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	fmt.Fprintf(s.out, "%s: %s (block %d)\n", label, tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	return nil
}

// ensureAllowance approves spender for amount of token when the current
// allowance is short. owner may be zero in dry-run mode, in which case the
// approval is always printed.
func (s *sender) ensureAllowance(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if owner != (common.Address{}) {
		current, err := wrap.Allowance(ctx, s.client, token, owner, spender)
		if err != nil {
			return fmt.Errorf("allowance %s: %w", token.Hex(), err)
		}
		if current.Cmp(amount) >= 0 {
			s.logger.Debug("allowance sufficient", zap.String("token", token.Hex()), zap.String("allowance", current.String()))
			return nil
		}
	}
	data, err := wrap.ApproveCalldata(spender, amount)
	if err != nil {
		return err
	}
	return s.send(ctx, "approve "+token.Hex(), token, data)
}
