package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

func TestAccountRecordStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountRecordStore(pool)
	ctx := context.Background()

	sym := "USDC"
	typ := "system_account"
	rec := &domain.AccountRecord{
		Address: "So11111111111111111111111111111111111111112",
		Profile: domain.AccountProfile{
			Lamports:   5000000,
			OwnerProg:  "11111111111111111111111111111111",
			AccountTyp: &typ,
		},
		Holdings: []domain.TokenHolding{
			{TokenAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", TokenSymbol: &sym, Amount: 12.5, Decimals: 6},
		},
		Activity: []domain.TransactionSummary{
			{Signature: "sig1", Slot: 100, BlockTime: 1700000000, Status: "Success", Fee: 5000},
		},
		CapturedAt: 1700000000000,
	}

	require.NoError(t, store.Insert(ctx, rec))

	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByAddress(ctx, rec.Address)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Profile.Lamports, got[0].Profile.Lamports)
	require.NotNil(t, got[0].Profile.AccountTyp)
	assert.Equal(t, typ, *got[0].Profile.AccountTyp)
	require.Len(t, got[0].Holdings, 1)
	assert.Equal(t, 12.5, got[0].Holdings[0].Amount)
	require.Len(t, got[0].Activity, 1)
	assert.Equal(t, "sig1", got[0].Activity[0].Signature)
}

func TestAccountRecordStore_NewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountRecordStore(pool)
	ctx := context.Background()

	addr := domain.Address("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	for _, ts := range []int64{1700000000000, 1700000100000, 1700000050000} {
		require.NoError(t, store.Insert(ctx, &domain.AccountRecord{
			Address:    addr,
			Holdings:   []domain.TokenHolding{},
			Activity:   []domain.TransactionSummary{},
			CapturedAt: ts,
		}))
	}

	got, err := store.GetByAddress(ctx, addr)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1700000100000), got[0].CapturedAt)
	assert.Equal(t, int64(1700000050000), got[1].CapturedAt)
	assert.Equal(t, int64(1700000000000), got[2].CapturedAt)
}

func TestAccountRecordStore_LamportsAboveInt64(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountRecordStore(pool)
	ctx := context.Background()

	// Lamports is a uint64; balances above 2^63-1 must survive the
	// round trip through the NUMERIC column.
	rec := &domain.AccountRecord{
		Address:    "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Profile:    domain.AccountProfile{Lamports: math.MaxUint64},
		Holdings:   []domain.TokenHolding{},
		Activity:   []domain.TransactionSummary{},
		CapturedAt: 1700000000000,
	}

	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByAddress(ctx, rec.Address)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(math.MaxUint64), got[0].Profile.Lamports)
}

func TestAccountRecordStore_EmptySubDocuments(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAccountRecordStore(pool)
	ctx := context.Background()

	// Zero holdings and zero activity are valid states, not failures.
	rec := &domain.AccountRecord{
		Address:    "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		Profile:    domain.AccountProfile{Lamports: 0},
		Holdings:   []domain.TokenHolding{},
		Activity:   []domain.TransactionSummary{},
		CapturedAt: 1700000000000,
	}

	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByAddress(ctx, rec.Address)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Holdings)
	assert.Empty(t, got[0].Activity)
	assert.Nil(t, got[0].Profile.AccountTyp)
}
