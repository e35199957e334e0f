package securenotes

// Options contains configuration options for creating a session.
type Options struct {
	// RefreshOnConnect loads notes, the catalog, and received gifts
	// immediately after connecting.
	RefreshOnConnect bool

	// SeedCatalog lists the launch catalog on an empty ledger at
	// connect time. Development convenience; production ledgers are
	// seeded at deployment.
	SeedCatalog bool
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		RefreshOnConnect: true,
		SeedCatalog:      false,
	}
}
