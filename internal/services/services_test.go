package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jerryshell/eptrc/internal/models"
	"github.com/jerryshell/eptrc/internal/tron"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Wallet{}, &models.PaymentSession{}, &models.Notify{}))
	return db
}

// fakeChain implements ChainClient with overridable behavior per test.
type fakeChain struct {
	transferList func(walletAddress string) ([]tron.Trc20Transfer, error)
	balance      func(walletAddress string) (decimal.Decimal, error)
	sendTrc20    func(params tron.SponsoredTransferParams) (string, error)
}

func (f *fakeChain) Trc20TransferList(_ context.Context, walletAddress string) ([]tron.Trc20Transfer, error) {
	return f.transferList(walletAddress)
}

func (f *fakeChain) Trc20Balance(_ context.Context, walletAddress string) (decimal.Decimal, error) {
	return f.balance(walletAddress)
}

func (f *fakeChain) SendTrc20(_ context.Context, params tron.SponsoredTransferParams) (string, error) {
	return f.sendTrc20(params)
}

func createTestSession(t *testing.T, db *gorm.DB, mutate func(*models.PaymentSession)) *models.PaymentSession {
	t.Helper()

	account, err := tron.NewAccount()
	require.NoError(t, err)

	wallet := models.Wallet{
		PublicKey:  account.PublicKey,
		PrivateKey: account.PrivateKey,
		Address:    account.Address,
	}
	require.NoError(t, db.Create(&wallet).Error)

	session := models.PaymentSession{
		NotifyURL: "https://example.com/hook",
		Address:   wallet.Address,
		Status:    models.PaymentSessionStatusPending,
	}
	if mutate != nil {
		mutate(&session)
	}
	require.NoError(t, db.Create(&session).Error)
	return &session
}
