// Package securenotes implements a client for a ledger-backed gift and
// encrypted-note service: wallet-holding users buy gift icons for other
// addresses and exchange asymmetrically encrypted text notes, with all
// durable state held by an external ledger contract the client treats as
// a trusted, append-mostly data store.
//
// The ledger contract and the signing wallet are external collaborators
// reached through the ledger and wallet packages; this package
// orchestrates them into a session.
//
// # Getting Started
//
// Create a session over a ledger connector and a wallet, then connect:
//
//	chain := ledger.NewMemoryLedger()
//	w := wallet.NewLocalWallet()
//	if _, err := w.CreateAccount(); err != nil {
//	    log.Fatal(err)
//	}
//
//	session := securenotes.NewSession(chain, w, securenotes.NewOptions())
//	if err := session.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Disconnect()
//
// A fresh account must register its encryption key before it can send or
// receive encrypted notes:
//
//	if session.State() == securenotes.StateUnregistered {
//	    if err := session.RegisterKey(ctx); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	err := session.SendNote(ctx, recipient, "Happy Birthday!")
package securenotes
