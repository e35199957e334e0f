// Package icons implements the icon ledger cache: catalog entries and
// received-gift records mirrored from the ledger, feeding the purchase
// flow.
//
// It follows the same synchronization pattern as the note store, with
// simpler state: the cache is invalidated and rebuilt on every full
// reload, with no incremental diffing.
package icons

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/ledger"
)

// ErrPurchaseFailed indicates a purchase the ledger did not confirm.
// Nothing retries automatically; the catalog is unchanged.
var ErrPurchaseFailed = errors.New("purchase failed")

// ReceivedIcon pairs a gift record with the listing it points at, ready
// for display.
type ReceivedIcon struct {
	Gift    ledger.ReceivedGift
	Listing ledger.IconListing
}

// Cache mirrors the icon catalog and the bound account's received gifts.
type Cache struct {
	mu       sync.RWMutex
	ledger   ledger.Ledger
	listings map[uint64]ledger.IconListing
}

// NewCache creates an empty cache over the given ledger handle.
func NewCache(l ledger.Ledger) *Cache {
	return &Cache{
		ledger:   l,
		listings: make(map[uint64]ledger.IconListing),
	}
}

// RefreshCatalog rebuilds the listing cache from the ledger, retaining
// only available listings, ordered by ascending id.
func (c *Cache) RefreshCatalog(ctx context.Context) ([]ledger.IconListing, error) {
	count, err := c.ledger.IconCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate catalog: %w", err)
	}

	rebuilt := make(map[uint64]ledger.IconListing)
	catalog := make([]ledger.IconListing, 0)

	for id := uint64(0); id < count; id++ {
		listing, err := c.ledger.Icon(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch listing %d: %w", id, err)
		}
		if !listing.Available {
			continue
		}
		rebuilt[listing.ID] = listing
		catalog = append(catalog, listing)
	}

	c.mu.Lock()
	c.listings = rebuilt
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "RefreshCatalog",
		"package":  "icons",
		"listings": len(catalog),
	}).Debug("Rebuilt icon catalog")

	return catalog, nil
}

// Listing returns the cached listing at id.
func (c *Cache) Listing(id uint64) (ledger.IconListing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	listing, ok := c.listings[id]
	return listing, ok
}

// Catalog returns the cached available listings, ascending by id,
// without touching the ledger.
func (c *Cache) Catalog() []ledger.IconListing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	catalog := make([]ledger.IconListing, 0, len(c.listings))
	for _, listing := range c.listings {
		catalog = append(catalog, listing)
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })
	return catalog
}

// RefreshReceived loads the gifts addressed to the bound account and
// resolves each to its listing for display.
func (c *Cache) RefreshReceived(ctx context.Context) ([]ReceivedIcon, error) {
	gifts, err := c.ledger.ReceivedIcons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load received icons: %w", err)
	}

	received := make([]ReceivedIcon, 0, len(gifts))
	for _, gift := range gifts {
		listing, err := c.ledger.Icon(ctx, gift.IconID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve icon %d: %w", gift.IconID, err)
		}
		received = append(received, ReceivedIcon{Gift: gift, Listing: listing})
	}
	return received, nil
}

// Purchase buys the cached listing at listingID as a gift for recipient,
// attaching the cached price as payment, and blocks until confirmation.
func (c *Cache) Purchase(ctx context.Context, listingID uint64, recipient ledger.Address) error {
	if _, err := ledger.ParseAddress(string(recipient)); err != nil {
		return err
	}

	listing, ok := c.Listing(listingID)
	if !ok {
		return fmt.Errorf("%w: listing %d is not in the catalog", ErrPurchaseFailed, listingID)
	}

	tx, err := c.ledger.BuyAndSendIcon(ctx, listingID, recipient, listing.Price)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPurchaseFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Purchase",
		"package":   "icons",
		"listing":   listingID,
		"icon_type": listing.Type.String(),
		"recipient": recipient,
		"tx":        tx.Hash(),
	}).Info("Submitted icon purchase")

	if err := tx.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPurchaseFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Purchase",
		"package":  "icons",
		"listing":  listingID,
	}).Info("Icon purchase confirmed")

	return nil
}
