// Package ledger defines the client's view of the external ledger
// contract: the read/write surface it consumes, the domain types mirrored
// from contract storage, and pending-transaction confirmation handles.
//
// The ledger is a trusted, append-mostly data store. The client never
// claims write authority over it; every mutation is proposed as a
// transaction and only becomes true after the ledger confirms it.
//
// A Ledger handle is bound to one caller account, the way a contract
// instance connected to a signer is: methods that the contract scopes to
// msg.sender (received icons, note authorization, key registration) act
// as the bound account.
//
// MemoryLedger is an in-process implementation with the same semantics as
// the deployed contract, used by tests and local development.
package ledger
