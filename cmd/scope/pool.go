package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/amm"
	"predictionScope/internal/config"
	"predictionScope/internal/hook"
	"predictionScope/internal/pool"
	"predictionScope/internal/watch"
)

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Inspect, quote and fund the hook pool",
	}

	idCmd := &cobra.Command{
		Use:   "id",
		Short: "Print the canonical pool key and id",
		RunE:  runPoolID,
	}
	addChainFlags(idCmd.Flags())

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Read pool state from the hook and recompute prices",
		RunE:  runPoolInfo,
	}
	addChainFlags(infoCmd.Flags())
	infoCmd.Flags().Float64("tolerance", 1.0, "allowed price0 drift in percentage points")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a 1:1 swap against current or given reserves",
		RunE:  runPoolQuote,
	}
	addChainFlags(quoteCmd.Flags())
	quoteCmd.Flags().String("sell", "yes", "side sold into the pool (yes or no)")
	quoteCmd.Flags().String("amount", "", "amount sold")
	quoteCmd.Flags().String("reserve0", "", "offline reserve0 (skips the hook read)")
	quoteCmd.Flags().String("reserve1", "", "offline reserve1 (skips the hook read)")

	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Implied probability split of a YES/NO holding",
		RunE:  runPoolSplit,
	}
	addChainFlags(splitCmd.Flags())
	splitCmd.Flags().String("account", "", "read wrapper balances of this account")
	splitCmd.Flags().String("yes-balance", "", "offline YES balance")
	splitCmd.Flags().String("no-balance", "", "offline NO balance")

	addCmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit YES and NO wrappers into the pool",
		RunE:  runAddLiquidity,
	}
	addChainFlags(addCmd.Flags())
	addTxFlags(addCmd)
	addCmd.Flags().String("yes", "0", "YES amount")
	addCmd.Flags().String("no", "0", "NO amount")

	availableCmd := &cobra.Command{
		Use:   "add-available",
		Short: "Credit wrapper balances the hook already holds to the pool",
		RunE:  runAddAvailable,
	}
	addChainFlags(availableCmd.Flags())
	addTxFlags(availableCmd)

	initialCmd := &cobra.Command{
		Use:   "add-initial",
		Short: "Seed the pool with its initial liquidity",
		RunE:  runAddInitial,
	}
	addChainFlags(initialCmd.Flags())
	addTxFlags(initialCmd)
	initialCmd.Flags().String("total", "", "total liquidity split by the hook")
	initialCmd.Flags().Float64("price0", 80, "expected currency0 price in percent, for the preview")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Sell YES or NO into the pool through the hook",
		RunE:  runPoolSwap,
	}
	addChainFlags(swapCmd.Flags())
	addTxFlags(swapCmd)
	swapCmd.Flags().String("sell", "yes", "side sold into the pool (yes or no)")
	swapCmd.Flags().String("amount", "", "amount sold")
	swapCmd.Flags().String("reserve0", "", "offline reserve0 for the preview (skips the hook read)")
	swapCmd.Flags().String("reserve1", "", "offline reserve1 for the preview (skips the hook read)")

	poolCmd.AddCommand(idCmd, infoCmd, quoteCmd, splitCmd, addCmd, availableCmd, initialCmd, swapCmd)
	return poolCmd
}

func addTxFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "print calldata instead of sending")
	cmd.Flags().Bool("approve", false, "approve the hook for the wrappers it pulls first")
	cmd.Flags().String("from", "", "owner address for allowance checks in dry-run mode")
}

// marketPool is the resolved pool of a market with its YES/NO orientation.
type marketPool struct {
	key    pool.Key
	id     common.Hash
	hook   common.Address
	yes    common.Address
	no     common.Address
	yesIs0 bool
}

func resolvePool(m config.Market) (marketPool, error) {
	key, err := m.PoolKey()
	if err != nil {
		return marketPool{}, err
	}
	id, err := key.ID()
	if err != nil {
		return marketPool{}, err
	}
	yes, err := m.YesTokenAddress()
	if err != nil {
		return marketPool{}, err
	}
	no, err := m.NoTokenAddress()
	if err != nil {
		return marketPool{}, err
	}
	return marketPool{
		key:    key,
		id:     id,
		hook:   key.Hooks,
		yes:    yes,
		no:     no,
		yesIs0: !key.Flipped(yes),
	}, nil
}

// amounts maps YES/NO amounts onto currency0/currency1.
func (p marketPool) amounts(yes, no *big.Int) (*big.Int, *big.Int) {
	if p.yesIs0 {
		return yes, no
	}
	return no, yes
}

// yesNo maps currency0/currency1 values onto YES/NO.
func (p marketPool) yesNo(v0, v1 *big.Int) (*big.Int, *big.Int) {
	if p.yesIs0 {
		return v0, v1
	}
	return v1, v0
}

func (p marketPool) label(currency common.Address) string {
	switch currency {
	case p.yes:
		return "YES"
	case p.no:
		return "NO"
	}
	return "?"
}

// sellSide resolves "yes" or "no" to the sold token and the swap direction.
func (p marketPool) sellSide(side string) (common.Address, bool, error) {
	var token common.Address
	switch side {
	case "yes":
		token = p.yes
	case "no":
		token = p.no
	default:
		return common.Address{}, false, fmt.Errorf("unknown side %q, want yes or no", side)
	}
	return token, token == p.key.Currency0, nil
}

func runPoolID(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := resolvePool(cfg.Market)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "pool id\t%s\n", p.id.Hex())
	fmt.Fprintf(w, "currency0\t%s (%s)\n", p.key.Currency0.Hex(), p.label(p.key.Currency0))
	fmt.Fprintf(w, "currency1\t%s (%s)\n", p.key.Currency1.Hex(), p.label(p.key.Currency1))
	fmt.Fprintf(w, "fee\t%s\n", p.key.Fee)
	fmt.Fprintf(w, "tick spacing\t%s\n", p.key.TickSpacing)
	fmt.Fprintf(w, "hooks\t%s\n", p.key.Hooks.Hex())
	return w.Flush()
}

func runPoolInfo(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	p, err := resolvePool(cfg.Market)
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
	block, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}
	ts, err := client.BlockTimestamp(ctx, block)
	if err != nil {
		return fmt.Errorf("block timestamp: %w", err)
	}

	hookClient := hook.NewClient(p.hook, client)
	info, err := hookClient.PoolInfo(ctx, p.key, new(big.Int).SetUint64(block))
	if err != nil {
		logger.Warn("getPoolInfo failed, reading reserves and prices", zap.Error(err))
		var fallbackErr error
		if info, fallbackErr = hookClient.PoolInfoFromParts(ctx, p.key); fallbackErr != nil {
			return fmt.Errorf("%w (fallback: %v)", err, fallbackErr)
		}
	}

	obs, err := watch.BuildObservation(
		watch.Head{ChainID: chainID.Uint64(), BlockNumber: block, Timestamp: ts},
		p.id, p.hook, info, decimal.NewFromFloat(tolerance),
	)
	if err != nil {
		return err
	}
	if obs.Snapshot.Drift || obs.Snapshot.SumMismatch {
		logger.Warn("pool state inconsistent",
			zap.Bool("drift", obs.Snapshot.Drift),
			zap.Bool("sum_mismatch", obs.Snapshot.SumMismatch),
			zap.String("price0", obs.Snapshot.Price0),
			zap.String("hook_price0", obs.Snapshot.HookPrice0),
		)
	}

	return printPoolInfo(cmd.OutOrStdout(), p, obs, cfg.Market.YesMetadata.Decimals)
}

func printPoolInfo(out io.Writer, p marketPool, obs watch.Observation, decimals uint8) error {
	price0, price1 := amm.PriceToPercent(obs.Price0), amm.PriceToPercent(obs.Price1)
	priceYes, priceNo := price0, price1
	if !p.yesIs0 {
		priceYes, priceNo = price1, price0
	}
	reserveYes, reserveNo := p.yesNo(obs.Reserves.Reserve0, obs.Reserves.Reserve1)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "pool id\t%s\n", obs.Snapshot.PoolID)
	fmt.Fprintf(w, "block\t%d (%s)\n", obs.Snapshot.BlockNumber, time.Unix(int64(obs.Snapshot.Timestamp), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "liquidity\t%s\n", formatAmount(obs.Reserves.Total(), decimals))
	fmt.Fprintf(w, "reserve YES\t%s\n", formatAmount(reserveYes, decimals))
	fmt.Fprintf(w, "reserve NO\t%s\n", formatAmount(reserveNo, decimals))
	fmt.Fprintf(w, "price YES\t%s%%\n", priceYes.StringFixed(2))
	fmt.Fprintf(w, "price NO\t%s%%\n", priceNo.StringFixed(2))
	fmt.Fprintf(w, "hook price0/price1\t%s%% / %s%%\n", obs.Snapshot.HookPrice0, obs.Snapshot.HookPrice1)
	fmt.Fprintf(w, "drift\t%t\n", obs.Snapshot.Drift)
	fmt.Fprintf(w, "sum mismatch\t%t\n", obs.Snapshot.SumMismatch)
	return w.Flush()
}

func runPoolQuote(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	decimals := cfg.Market.YesMetadata.Decimals
	p, err := resolvePool(cfg.Market)
	if err != nil {
		return err
	}
	order, err := readSwapOrder(cmd, p, decimals)
	if err != nil {
		return err
	}

	reserves, ok, err := offlineReserves(cmd, decimals)
	if err != nil {
		return err
	}
	if !ok {
		ctx, stop := signalContext()
		defer stop()

		client, err := dial(ctx, cfg.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()

		if reserves, err = hook.NewClient(p.hook, client).Reserves(ctx, p.key); err != nil {
			return err
		}
	}

	logger.Debug("quote",
		zap.String("reserves", reserves.String()),
		zap.Bool("zero_for_one", order.zeroForOne),
		zap.String("amount_in", order.amountIn.String()),
	)
	_, err = printSwapPreview(cmd.OutOrStdout(), p, order, reserves, decimals)
	return err
}

type swapOrder struct {
	sellToken  common.Address
	zeroForOne bool
	amountIn   *big.Int
}

func readSwapOrder(cmd *cobra.Command, p marketPool, decimals uint8) (swapOrder, error) {
	sell, _ := cmd.Flags().GetString("sell")
	token, zeroForOne, err := p.sellSide(sell)
	if err != nil {
		return swapOrder{}, err
	}
	rawAmount, _ := cmd.Flags().GetString("amount")
	amountIn, err := parseAmount(rawAmount, decimals)
	if err != nil {
		return swapOrder{}, err
	}
	return swapOrder{sellToken: token, zeroForOne: zeroForOne, amountIn: amountIn}, nil
}

// offlineReserves reads --reserve0/--reserve1. ok is false when neither is set.
func offlineReserves(cmd *cobra.Command, decimals uint8) (amm.Reserves, bool, error) {
	raw0, _ := cmd.Flags().GetString("reserve0")
	raw1, _ := cmd.Flags().GetString("reserve1")
	if raw0 == "" && raw1 == "" {
		return amm.Reserves{}, false, nil
	}
	r0, err := parseAmount(raw0, decimals)
	if err != nil {
		return amm.Reserves{}, false, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := parseAmount(raw1, decimals)
	if err != nil {
		return amm.Reserves{}, false, fmt.Errorf("reserve1: %w", err)
	}
	reserves, err := amm.NewReserves(r0, r1)
	if err != nil {
		return amm.Reserves{}, false, err
	}
	return reserves, true, nil
}

func printSwapPreview(out io.Writer, p marketPool, order swapOrder, reserves amm.Reserves, decimals uint8) (amm.SwapResult, error) {
	result, err := amm.ApplySwap(reserves, order.amountIn, order.zeroForOne)
	if err != nil {
		return amm.SwapResult{}, err
	}
	before0, _, err := amm.Price(reserves.Reserve0, reserves.Reserve1)
	if err != nil {
		return amm.SwapResult{}, err
	}
	after0, _, err := amm.Price(result.Reserves.Reserve0, result.Reserves.Reserve1)
	if err != nil {
		return amm.SwapResult{}, err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "sell\t%s %s\n", formatAmount(order.amountIn, decimals), p.label(order.sellToken))
	fmt.Fprintf(w, "receive\t%s\n", formatAmount(result.AmountOut, decimals))
	fmt.Fprintf(w, "absorbed\t%s\n", formatAmount(result.AmountIn, decimals))
	fmt.Fprintf(w, "capped\t%t\n", result.Capped)
	fmt.Fprintf(w, "price0\t%s%% -> %s%%\n", amm.PriceToPercent(before0).StringFixed(2), amm.PriceToPercent(after0).StringFixed(2))
	fmt.Fprintf(w, "note\t1:1 model, hook fees not included\n")
	return result, w.Flush()
}

func runPoolSplit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	decimals := cfg.Market.YesMetadata.Decimals
	rawYes, _ := cmd.Flags().GetString("yes-balance")
	rawNo, _ := cmd.Flags().GetString("no-balance")
	account, _ := cmd.Flags().GetString("account")

	var balanceYes, balanceNo *big.Int
	switch {
	case rawYes != "" || rawNo != "":
		if balanceYes, err = parseAmount(rawYes, decimals); err != nil {
			return fmt.Errorf("yes-balance: %w", err)
		}
		if balanceNo, err = parseAmount(rawNo, decimals); err != nil {
			return fmt.Errorf("no-balance: %w", err)
		}
	case account != "":
		if !common.IsHexAddress(account) {
			return fmt.Errorf("invalid account address: %s", account)
		}
		p, err := resolvePool(cfg.Market)
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

		holder := common.HexToAddress(account)
		if balanceYes, err = readBalance20(ctx, client, p.yes, holder); err != nil {
			return err
		}
		if balanceNo, err = readBalance20(ctx, client, p.no, holder); err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --account or --yes-balance/--no-balance is required")
	}

	pctYes, pctNo, err := amm.ImpliedProbabilitySplit(balanceYes, balanceNo)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "YES\t%s\t%s%%\n", formatAmount(balanceYes, decimals), pctYes.StringFixed(2))
	fmt.Fprintf(w, "NO\t%s\t%s%%\n", formatAmount(balanceNo, decimals), pctNo.StringFixed(2))
	return w.Flush()
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	return runPoolTx(cmd, func(_ context.Context, p marketPool, hc *hook.Client, decimals uint8) (txPlan, error) {
		rawYes, _ := cmd.Flags().GetString("yes")
		rawNo, _ := cmd.Flags().GetString("no")
		yes, err := parseAmount(rawYes, decimals)
		if err != nil {
			return txPlan{}, fmt.Errorf("yes: %w", err)
		}
		no, err := parseAmount(rawNo, decimals)
		if err != nil {
			return txPlan{}, fmt.Errorf("no: %w", err)
		}
		amount0, amount1 := p.amounts(yes, no)
		data, err := hc.AddLiquidityCalldata(p.key, amount0, amount1)
		if err != nil {
			return txPlan{}, err
		}
		return txPlan{label: "addLiquidity", data: data, approveYes: yes, approveNo: no}, nil
	})
}

func runAddAvailable(cmd *cobra.Command, _ []string) error {
	return runPoolTx(cmd, func(_ context.Context, p marketPool, hc *hook.Client, _ uint8) (txPlan, error) {
		data, err := hc.AddAvailableLiquidityCalldata(p.key)
		if err != nil {
			return txPlan{}, err
		}
		return txPlan{label: "addAvailableLiquidity", data: data}, nil
	})
}

func runAddInitial(cmd *cobra.Command, _ []string) error {
	return runPoolTx(cmd, func(_ context.Context, p marketPool, hc *hook.Client, decimals uint8) (txPlan, error) {
		rawTotal, _ := cmd.Flags().GetString("total")
		total, err := parseAmount(rawTotal, decimals)
		if err != nil {
			return txPlan{}, fmt.Errorf("total: %w", err)
		}
		price0, _ := cmd.Flags().GetFloat64("price0")
		seeded, err := amm.SplitLiquidity(total, decimal.NewFromFloat(price0))
		if err != nil {
			return txPlan{}, err
		}
		if err := printSeedPreview(cmd.OutOrStdout(), p, seeded, decimals); err != nil {
			return txPlan{}, err
		}

		data, err := hc.AddInitialLiquidityCalldata(p.key, total)
		if err != nil {
			return txPlan{}, err
		}
		// The hook decides the split, so either side may need the full total.
		return txPlan{label: "addInitialLiquidity", data: data, approveYes: total, approveNo: total}, nil
	})
}

// printSeedPreview shows the reserves an initial deposit is expected to seed.
func printSeedPreview(out io.Writer, p marketPool, seeded amm.Reserves, decimals uint8) error {
	price0, price1, err := amm.Price(seeded.Reserve0, seeded.Reserve1)
	if err != nil {
		return err
	}
	reserveYes, reserveNo := p.yesNo(seeded.Reserve0, seeded.Reserve1)
	priceYes, priceNo := price0, price1
	if !p.yesIs0 {
		priceYes, priceNo = price1, price0
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "seed YES\t%s\t%s%%\n", formatAmount(reserveYes, decimals), amm.PriceToPercent(priceYes).StringFixed(2))
	fmt.Fprintf(w, "seed NO\t%s\t%s%%\n", formatAmount(reserveNo, decimals), amm.PriceToPercent(priceNo).StringFixed(2))
	return w.Flush()
}

func runPoolSwap(cmd *cobra.Command, _ []string) error {
	return runPoolTx(cmd, func(ctx context.Context, p marketPool, hc *hook.Client, decimals uint8) (txPlan, error) {
		order, err := readSwapOrder(cmd, p, decimals)
		if err != nil {
			return txPlan{}, err
		}
		reserves, ok, err := offlineReserves(cmd, decimals)
		if err != nil {
			return txPlan{}, err
		}
		if !ok {
			if reserves, err = hc.Reserves(ctx, p.key); err != nil {
				return txPlan{}, err
			}
		}
		if _, err := printSwapPreview(cmd.OutOrStdout(), p, order, reserves, decimals); err != nil {
			return txPlan{}, err
		}

		data, err := hc.SwapCalldata(p.key, order.zeroForOne, order.amountIn)
		if err != nil {
			return txPlan{}, err
		}
		plan := txPlan{label: "swap", data: data}
		if order.sellToken == p.yes {
			plan.approveYes = order.amountIn
		} else {
			plan.approveNo = order.amountIn
		}
		return plan, nil
	})
}

type txPlan struct {
	label      string
	data       []byte
	approveYes *big.Int
	approveNo  *big.Int
}

func runPoolTx(cmd *cobra.Command, build func(context.Context, marketPool, *hook.Client, uint8) (txPlan, error)) error {
	cfg, logger, err := loadChain(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	approve, _ := cmd.Flags().GetBool("approve")
	from, _ := cmd.Flags().GetString("from")
	if from != "" && !common.IsHexAddress(from) {
		return fmt.Errorf("invalid from address: %s", from)
	}

	p, err := resolvePool(cfg.Market)
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

	hookClient := hook.NewClient(p.hook, client)
	plan, err := build(ctx, p, hookClient, cfg.Market.YesMetadata.Decimals)
	if err != nil {
		return err
	}

	s := newSender(client, cfg, dryRun, cmd.OutOrStdout(), logger)
	if approve {
		owner, err := s.account(common.HexToAddress(from))
		if err != nil {
			return err
		}
		if err := s.ensureAllowance(ctx, p.yes, owner, p.hook, plan.approveYes); err != nil {
			return err
		}
		if err := s.ensureAllowance(ctx, p.no, owner, p.hook, plan.approveNo); err != nil {
			return err
		}
	}

	logger.Info("pool transaction",
		zap.String("call", plan.label),
		zap.String("pool_id", p.id.Hex()),
		zap.String("hook", p.hook.Hex()),
		zap.Bool("dry_run", dryRun),
	)
	return s.send(ctx, plan.label, p.hook, plan.data)
}
