package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jerryshell/eptrc/internal/tron"
)

// ChainClient is the slice of the TRON client the services consume.
// *tron.Client satisfies it.
type ChainClient interface {
	Trc20TransferList(ctx context.Context, walletAddress string) ([]tron.Trc20Transfer, error)
	Trc20Balance(ctx context.Context, walletAddress string) (decimal.Decimal, error)
	SendTrc20(ctx context.Context, params tron.SponsoredTransferParams) (string, error)
}
