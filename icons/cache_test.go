package icons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/securenotes/ledger"
)

const (
	addrAlice = ledger.Address("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	addrBob   = ledger.Address("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

func seededChain(t *testing.T) *ledger.MemoryLedger {
	t.Helper()
	chain := ledger.NewMemoryLedger()
	require.NoError(t, Seed(context.Background(), chain.Connect(addrAlice)))
	return chain
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	chain := seededChain(t)
	handle := chain.Connect(addrAlice)

	count, err := handle.IconCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	listing, err := handle.Icon(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ledger.IconCongratulations, listing.Type)
	assert.Zero(t, listing.Price.Cmp(ether(5)))

	// Re-seeding an already stocked catalog changes nothing.
	require.NoError(t, Seed(ctx, handle))
	count, err = handle.IconCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestRefreshCatalog(t *testing.T) {
	ctx := context.Background()
	chain := seededChain(t)
	cache := NewCache(chain.Connect(addrBob))

	catalog, err := cache.RefreshCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 4)
	assert.Equal(t, uint64(0), catalog[0].ID)
	assert.Equal(t, ledger.IconHappyBirthday, catalog[0].Type)

	cached := cache.Catalog()
	assert.Equal(t, catalog, cached)

	listing, ok := cache.Listing(3)
	require.True(t, ok)
	assert.Equal(t, ledger.IconGraduation, listing.Type)
}

func TestRefreshCatalogUnavailableLedger(t *testing.T) {
	ctx := context.Background()
	chain := seededChain(t)
	cache := NewCache(chain.Connect(addrBob))

	chain.FailNext("IconCount", ledger.ErrUnavailable)
	_, err := cache.RefreshCatalog(ctx)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()
	chain := seededChain(t)
	cache := NewCache(chain.Connect(addrBob))

	_, err := cache.RefreshCatalog(ctx)
	require.NoError(t, err)

	t.Run("invalid recipient fails locally", func(t *testing.T) {
		err := cache.Purchase(ctx, 0, ledger.Address("not-an-address"))
		assert.ErrorIs(t, err, ledger.ErrInvalidAddress)
	})

	t.Run("unknown listing", func(t *testing.T) {
		err := cache.Purchase(ctx, 99, addrAlice)
		assert.ErrorIs(t, err, ErrPurchaseFailed)
	})

	t.Run("ledger rejection surfaces with reason", func(t *testing.T) {
		chain.FailNext("BuyAndSendIcon", ledger.ErrUnavailable)
		err := cache.Purchase(ctx, 2, addrAlice)
		assert.ErrorIs(t, err, ErrPurchaseFailed)
		assert.ErrorIs(t, err, ledger.ErrUnavailable)

		listing, err2 := chain.Connect(addrBob).Icon(ctx, 2)
		require.NoError(t, err2)
		assert.True(t, listing.Available, "failed purchase must not change the listing")
	})

	t.Run("confirmed purchase records the gift", func(t *testing.T) {
		require.NoError(t, cache.Purchase(ctx, 2, addrAlice))

		recipient := NewCache(chain.Connect(addrAlice))
		received, err := recipient.RefreshReceived(ctx)
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, uint64(2), received[0].Gift.IconID)
		assert.Equal(t, addrBob, received[0].Gift.Sender)
		assert.Equal(t, ledger.IconMerryChristmas, received[0].Listing.Type)
	})
}
