package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/config"
	"predictionScope/internal/model"
	"predictionScope/internal/storage/postgres"
	"predictionScope/internal/wrap"
)

func newWrapCmd() *cobra.Command {
	wrapCmd := &cobra.Command{
		Use:   "wrap",
		Short: "Wrap ERC-1155 positions into ERC-20 tokens and back",
	}

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Resolve the wrapper address of each position",
		RunE:  runWrapAddress,
	}
	addChainFlags(addressCmd.Flags())
	addSideFlag(addressCmd)

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Show position and wrapper balances of an account",
		RunE:  runWrapBalances,
	}
	addChainFlags(balancesCmd.Flags())
	addSideFlag(balancesCmd)
	balancesCmd.Flags().String("account", "", "account to inspect (defaults to the signing key)")

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Wrap a position by sending it to the factory",
		RunE:  runWrapDeposit,
	}
	addChainFlags(depositCmd.Flags())
	depositCmd.Flags().String("side", "yes", "position side (yes or no)")
	depositCmd.Flags().String("amount", "", "amount to wrap")
	depositCmd.Flags().Bool("dry-run", false, "print calldata instead of sending")
	depositCmd.Flags().String("from", "", "position owner in dry-run mode")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Unwrap wrapper tokens back into the position",
		RunE:  runWrapWithdraw,
	}
	addChainFlags(withdrawCmd.Flags())
	withdrawCmd.Flags().String("side", "yes", "position side (yes or no)")
	withdrawCmd.Flags().String("amount", "", "amount to unwrap")
	withdrawCmd.Flags().String("recipient", "", "receiver of the position (defaults to the signer)")
	withdrawCmd.Flags().Bool("dry-run", false, "print calldata instead of sending")
	withdrawCmd.Flags().String("from", "", "wrapper holder in dry-run mode")

	metadataCmd := &cobra.Command{
		Use:   "metadata [hex]",
		Short: "Encode wrapper metadata, or decode it when hex is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWrapMetadata,
	}
	metadataCmd.Flags().String("name", "", "wrapper name")
	metadataCmd.Flags().String("symbol", "", "wrapper symbol")
	metadataCmd.Flags().Uint8("decimals", config.DefaultDecimals, "wrapper decimals")

	wrapCmd.AddCommand(addressCmd, balancesCmd, depositCmd, withdrawCmd, metadataCmd)
	return wrapCmd
}

func addSideFlag(cmd *cobra.Command) {
	cmd.Flags().String("side", "both", "position side (yes, no or both)")
}

func sides(side string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "", "both":
		return []string{"yes", "no"}, nil
	case "yes":
		return []string{"yes"}, nil
	case "no":
		return []string{"no"}, nil
	}
	return nil, fmt.Errorf("unknown side %q, want yes, no or both", side)
}

func runWrapAddress(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	side, _ := cmd.Flags().GetString("side")
	selected, err := sides(side)
	if err != nil {
		return err
	}
	factoryAddr, err := cfg.Market.FactoryAddress()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	factory := wrap.NewFactory(factoryAddr, client)
	records := make([]model.WrappedToken, 0, len(selected))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, s := range selected {
		position, err := cfg.Market.Position(s)
		if err != nil {
			return err
		}
		token, err := factory.Lookup(ctx, position)
		if err != nil {
			return fmt.Errorf("%s wrapper: %w", s, err)
		}
		metadata, err := position.Metadata.Encode()
		if err != nil {
			return err
		}

		status := "not deployed"
		if token.Deployed {
			status = "deployed"
			meta, err := wrap.FetchTokenMeta(ctx, client, token.Address, logger)
			if err != nil {
				logger.Warn("wrapper metadata unavailable", zap.String("wrapper", token.Address.Hex()), zap.Error(err))
			} else if !wrap.MatchesMetadata(meta, position.Metadata) {
				status = fmt.Sprintf("deployed, metadata mismatch (%s/%s/%d)", meta.Name, meta.Symbol, meta.Decimals)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", strings.ToUpper(s), token.Address.Hex(), status)

		records = append(records, model.WrappedToken{
			ChainID:    chainID.Uint64(),
			Factory:    factoryAddr.Hex(),
			MultiToken: position.MultiToken.Hex(),
			TokenID:    position.TokenID.String(),
			Metadata:   hexutil.Encode(metadata),
			Name:       position.Metadata.Name,
			Symbol:     position.Metadata.Symbol,
			Decimals:   position.Metadata.Decimals,
			Wrapper:    token.Address.Hex(),
			Deployed:   token.Deployed,
		})
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cfg.PGDSN == "" {
		return nil
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := store.UpsertWrappedTokens(ctx, records); err != nil {
		return err
	}
	logger.Info("wrappers recorded", zap.Int("count", len(records)), zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
	return nil
}

func runWrapBalances(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	side, _ := cmd.Flags().GetString("side")
	selected, err := sides(side)
	if err != nil {
		return err
	}
	factoryAddr, err := cfg.Market.FactoryAddress()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	rawAccount, _ := cmd.Flags().GetString("account")
	account, err := resolveAccount(newSender(client, cfg, true, cmd.OutOrStdout(), logger), rawAccount)
	if err != nil {
		return err
	}

	factory := wrap.NewFactory(factoryAddr, client)
	decimals := cfg.Market.YesMetadata.Decimals
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "account\t%s\n", account.Hex())
	for i, s := range selected {
		position, err := cfg.Market.Position(s)
		if err != nil {
			return err
		}
		if i == 0 {
			approved, err := wrap.IsApprovedForAll(ctx, client, position.MultiToken, account, factoryAddr)
			if err != nil {
				return fmt.Errorf("isApprovedForAll: %w", err)
			}
			fmt.Fprintf(w, "factory approved\t%t\n", approved)
		}

		held, err := wrap.Balance1155(ctx, client, position.MultiToken, account, position.TokenID)
		if err != nil {
			return fmt.Errorf("%s position balance: %w", s, err)
		}
		token, err := factory.Lookup(ctx, position)
		if err != nil {
			return fmt.Errorf("%s wrapper: %w", s, err)
		}

		wrapped, supply := new(big.Int), new(big.Int)
		if token.Deployed {
			if wrapped, err = readBalance20(ctx, client, token.Address, account); err != nil {
				return err
			}
			if supply, err = wrap.TotalSupply(ctx, client, token.Address); err != nil {
				return fmt.Errorf("%s wrapper supply: %w", s, err)
			}
		}

		label := strings.ToUpper(s)
		fmt.Fprintf(w, "%s position\t%s\n", label, formatAmount(held, decimals))
		fmt.Fprintf(w, "%s wrapped\t%s\n", label, formatAmount(wrapped, decimals))
		fmt.Fprintf(w, "%s wrapper supply\t%s\n", label, formatAmount(supply, decimals))
	}
	return w.Flush()
}

func runWrapDeposit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	side, _ := cmd.Flags().GetString("side")
	position, err := cfg.Market.Position(side)
	if err != nil {
		return err
	}
	factoryAddr, err := cfg.Market.FactoryAddress()
	if err != nil {
		return err
	}
	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := parseAmount(rawAmount, position.Metadata.Decimals)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	var from string
	if dryRun {
		from, _ = cmd.Flags().GetString("from")
	}

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	s := newSender(client, cfg, dryRun, cmd.OutOrStdout(), logger)
	owner, err := resolveAccount(s, from)
	if err != nil {
		return err
	}

	held, err := wrap.Balance1155(ctx, client, position.MultiToken, owner, position.TokenID)
	if err != nil {
		return fmt.Errorf("position balance: %w", err)
	}
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("position balance %s is below %s", formatAmount(held, position.Metadata.Decimals), rawAmount)
	}

	factory := wrap.NewFactory(factoryAddr, client)
	data, err := factory.WrapCalldata(owner, position, amount)
	if err != nil {
		return err
	}
	if err := s.send(ctx, "safeTransferFrom", position.MultiToken, data); err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	token, err := factory.Lookup(ctx, position)
	if err != nil {
		return err
	}
	return printWrapperBalance(ctx, cmd, client, token, owner)
}

func runWrapWithdraw(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	side, _ := cmd.Flags().GetString("side")
	position, err := cfg.Market.Position(side)
	if err != nil {
		return err
	}
	factoryAddr, err := cfg.Market.FactoryAddress()
	if err != nil {
		return err
	}
	rawAmount, _ := cmd.Flags().GetString("amount")
	amount, err := parseAmount(rawAmount, position.Metadata.Decimals)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	var from string
	if dryRun {
		from, _ = cmd.Flags().GetString("from")
	}
	rawRecipient, _ := cmd.Flags().GetString("recipient")

	ctx, stop := signalContext()
	defer stop()

	client, err := dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	s := newSender(client, cfg, dryRun, cmd.OutOrStdout(), logger)
	holder, err := resolveAccount(s, from)
	if err != nil {
		return err
	}
	recipient := holder
	if rawRecipient != "" {
		if !common.IsHexAddress(rawRecipient) {
			return fmt.Errorf("invalid recipient address: %s", rawRecipient)
		}
		recipient = common.HexToAddress(rawRecipient)
	}

	factory := wrap.NewFactory(factoryAddr, client)
	token, err := factory.Lookup(ctx, position)
	if err != nil {
		return err
	}
	if !token.Deployed {
		return fmt.Errorf("wrapper %s is not deployed for this position and metadata", token.Address.Hex())
	}
	wrapped, err := readBalance20(ctx, client, token.Address, holder)
	if err != nil {
		return err
	}
	if wrapped.Cmp(amount) < 0 {
		return fmt.Errorf("wrapper balance %s is below %s", formatAmount(wrapped, position.Metadata.Decimals), rawAmount)
	}

	data, err := factory.UnwrapCalldata(position, amount, recipient)
	if err != nil {
		return err
	}
	if err := s.send(ctx, "unwrap", factoryAddr, data); err != nil {
		return err
	}
	if dryRun {
		return nil
	}
	return printWrapperBalance(ctx, cmd, client, token, holder)
}

func runWrapMetadata(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		raw, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("decode hex: %w", err)
		}
		meta, err := wrap.DecodeMetadata(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "name:     %s\nsymbol:   %s\ndecimals: %d\n", meta.Name, meta.Symbol, meta.Decimals)
		return nil
	}

	name, _ := cmd.Flags().GetString("name")
	symbol, _ := cmd.Flags().GetString("symbol")
	decimals, _ := cmd.Flags().GetUint8("decimals")
	encoded, err := wrap.EncodeMetadata(name, symbol, decimals)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hexutil.Encode(encoded))
	return nil
}

// resolveAccount returns the explicit address when given, else the signer.
func resolveAccount(s *sender, raw string) (common.Address, error) {
	if raw != "" {
		if !common.IsHexAddress(raw) {
			return common.Address{}, fmt.Errorf("invalid account address: %s", raw)
		}
		return common.HexToAddress(raw), nil
	}
	key, err := s.signingKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("no account given and %w", err)
	}
	return addressOf(key), nil
}

func readBalance20(ctx context.Context, caller ethereum.ContractCaller, token, account common.Address) (*big.Int, error) {
	balance, err := wrap.Balance20(ctx, caller, token, account)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", token.Hex(), err)
	}
	return balance, nil
}

func printWrapperBalance(ctx context.Context, cmd *cobra.Command, caller ethereum.ContractCaller, token wrap.WrappedToken, account common.Address) error {
	balance, err := readBalance20(ctx, caller, token.Address, account)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrapper %s balance: %s\n", token.Address.Hex(), formatAmount(balance, token.Position.Metadata.Decimals))
	return nil
}
