package icons

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/securenotes/ledger"
)

// launchListing is one catalog entry added at first deployment.
type launchListing struct {
	iconType ledger.IconType
	price    *big.Int
}

// ether converts whole ether to wei.
func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// launchCatalog is the shop's initial stock.
var launchCatalog = []launchListing{
	{iconType: ledger.IconHappyBirthday, price: ether(2)},
	{iconType: ledger.IconCongratulations, price: ether(5)},
	{iconType: ledger.IconMerryChristmas, price: ether(2)},
	{iconType: ledger.IconGraduation, price: ether(1)},
}

// Seed lists the launch catalog on an empty ledger. A ledger that
// already has listings is left untouched, so Seed is safe to run on
// every startup of a development environment.
func Seed(ctx context.Context, l ledger.Ledger) error {
	count, err := l.IconCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if count > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Seed",
			"package":  "icons",
			"listings": count,
		}).Debug("Catalog already seeded, skipping")
		return nil
	}

	for _, entry := range launchCatalog {
		tx, err := l.AddIcon(ctx, entry.iconType, entry.price)
		if err != nil {
			return fmt.Errorf("failed to add %s listing: %w", entry.iconType, err)
		}
		if err := tx.Wait(ctx); err != nil {
			return fmt.Errorf("failed to confirm %s listing: %w", entry.iconType, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Seed",
		"package":  "icons",
		"listings": len(launchCatalog),
	}).Info("Seeded launch catalog")

	return nil
}
