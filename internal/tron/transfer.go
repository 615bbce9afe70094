package tron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
)

// Fee-estimation and broadcast failure codes surfaced to the collection API.
var (
	ErrEnergyEstimateFailed     = errors.New("energy.estimate.failed")
	ErrEnergyFeeNotAvailable    = errors.New("energy.fee.not.available")
	ErrBandwidthEstimateFailed  = errors.New("bandwidth.estimate.failed")
	ErrBandwidthFeeNotAvailable = errors.New("bandwidth.fee.not.available")
	ErrTopUpFailed              = errors.New("top.up.trx.failed")
)

// energySafetyMultiplier absorbs runtime variance between the simulated and
// the actual energy usage of a transfer.
const energySafetyMultiplier = 1.2

// SponsoredTransferParams describes one fee-sponsored token transfer out of
// a deposit wallet.
type SponsoredTransferParams struct {
	PrivateKey         string
	FeePayerPrivateKey string
	ToAddress          string
	Amount             string
}

// SendTrc20 moves tokens from a deposit wallet to the destination address.
// Deposit wallets are freshly generated and hold no TRX, so when the wallet
// cannot cover the estimated fee the fee payer first sends the shortfall in
// TRX. Returns the transaction id of the token transfer.
func (c *Client) SendTrc20(ctx context.Context, params SponsoredTransferParams) (string, error) {
	fromAddress, err := AddressFromPrivateKey(params.PrivateKey)
	if err != nil {
		return "", err
	}

	parameter, err := encodeTransferParameter(params.ToAddress, params.Amount)
	if err != nil {
		return "", err
	}

	requiredFee, err := c.estimateTransferFee(ctx, fromAddress, parameter)
	if err != nil {
		return "", err
	}
	log.Printf("[Tron] wallet %s requires fee %d sun", fromAddress, requiredFee)

	balance, err := c.TrxBalance(ctx, fromAddress)
	if err != nil {
		return "", err
	}

	if balance < requiredFee {
		if err := c.topUp(ctx, params.FeePayerPrivateKey, fromAddress, requiredFee-balance); err != nil {
			return "", err
		}
	}

	tx, err := c.BuildTrc20Transfer(ctx, fromAddress, parameter, requiredFee)
	if err != nil {
		return "", err
	}

	if err := SignTransaction(tx, params.PrivateKey); err != nil {
		return "", err
	}

	broadcast, err := c.Broadcast(ctx, tx)
	if err != nil {
		return "", err
	}
	if !broadcast.Result {
		return "", fmt.Errorf("trc20 transfer broadcast rejected: %s %s", broadcast.Code, broadcast.Message)
	}

	return tx.TxID, nil
}

// estimateTransferFee computes the TRX budget in sun a wallet needs to
// execute one token transfer: the simulated energy cost with safety
// headroom, plus the cost of any bandwidth the account cannot cover.
func (c *Client) estimateTransferFee(ctx context.Context, fromAddress, parameter string) (int64, error) {
	estimate, err := c.EstimateEnergy(ctx, fromAddress, parameter)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEnergyEstimateFailed, err)
	}
	if !estimate.Result.Result || estimate.EnergyRequired <= 0 {
		return 0, ErrEnergyEstimateFailed
	}

	energyFee, err := c.ChainParameter(ctx, "getEnergyFee")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEnergyFeeNotAvailable, err)
	}
	if energyFee <= 0 {
		return 0, ErrEnergyFeeNotAvailable
	}

	bandwidthCost, err := c.estimateBandwidthFee(ctx, fromAddress, parameter)
	if err != nil {
		return 0, err
	}

	energyCost := int64(math.Ceil(float64(estimate.EnergyRequired) * float64(energyFee) * energySafetyMultiplier))

	requiredFee := energyCost + bandwidthCost
	if requiredFee < 1 {
		requiredFee = 1
	}
	return requiredFee, nil
}

func (c *Client) estimateBandwidthFee(ctx context.Context, fromAddress, parameter string) (int64, error) {
	bandwidthFee, err := c.ChainParameter(ctx, "getTransactionFee")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBandwidthFeeNotAvailable, err)
	}
	if bandwidthFee <= 0 {
		return 0, ErrBandwidthFeeNotAvailable
	}

	tx, err := c.BuildTrc20Transfer(ctx, fromAddress, parameter, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBandwidthEstimateFailed, err)
	}
	if tx.RawDataHex == "" {
		return 0, ErrBandwidthEstimateFailed
	}

	usage := int64((len(tx.RawDataHex) + 1) / 2)
	if usage < 1 {
		usage = 1
	}

	resources, err := c.AccountResources(ctx, fromAddress)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBandwidthEstimateFailed, err)
	}

	free := resources.FreeNetLimit - resources.FreeNetUsed
	if free < 0 {
		free = 0
	}
	staked := resources.NetLimit - resources.NetUsed
	if staked < 0 {
		staked = 0
	}

	missing := usage - (free + staked)
	if missing < 0 {
		missing = 0
	}
	return missing * bandwidthFee, nil
}

// topUp sends the fee shortfall in TRX from the fee payer to the wallet.
func (c *Client) topUp(ctx context.Context, feePayerPrivateKey, toAddress string, amount int64) error {
	payerAddress, err := AddressFromPrivateKey(feePayerPrivateKey)
	if err != nil {
		return err
	}

	tx, err := c.CreateTrxTransfer(ctx, payerAddress, toAddress, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTopUpFailed, err)
	}

	if err := SignTransaction(tx, feePayerPrivateKey); err != nil {
		return err
	}

	broadcast, err := c.Broadcast(ctx, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTopUpFailed, err)
	}
	if !broadcast.Result {
		return ErrTopUpFailed
	}

	log.Printf("[Tron] topped up wallet %s with %d sun", toAddress, amount)
	return nil
}
