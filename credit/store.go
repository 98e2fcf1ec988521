/*
store.go - Persistence interface for credit aggregates

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  works on whole aggregates: a mutation is load, pure transform, save.
  The store's per-record save is the only serialization point; concurrent
  writers to the same credit are last-write-wins by design.

AGGREGATE CONTRACT:
  - GetCredit/GetClient return (nil, nil) when no record exists; callers
    map that to a NotFound error at their boundary.
  - SaveCredit is an upsert of the FULL aggregate, products and payment
    history included. Partial updates do not exist: a failed operation is
    simply never saved.
  - Stores hand out independent copies; mutating a returned aggregate
    never changes persisted state until it is saved back.

IMPLEMENTATIONS:
  - store/sqlite:      Production store, one row per aggregate
  - credit/store:      In-memory store for tests

SEE ALSO:
  - engine.go: The transforms that run between load and save
*/
package credit

import "context"

// Store persists clients and credit aggregates.
type Store interface {
	// SaveClient inserts or replaces a client record.
	SaveClient(ctx context.Context, c *Client) error

	// GetClient returns a client by id, or (nil, nil) if absent.
	GetClient(ctx context.Context, id string) (*Client, error)

	// ListClients returns all clients, oldest first.
	ListClients(ctx context.Context) ([]*Client, error)

	// SaveCredit inserts or replaces a full credit aggregate.
	SaveCredit(ctx context.Context, c *Credit) error

	// GetCredit returns a credit by id, or (nil, nil) if absent.
	GetCredit(ctx context.Context, id string) (*Credit, error)

	// ListCredits returns credits with the given status, oldest first.
	ListCredits(ctx context.Context, status Status) ([]*Credit, error)

	// ListAllCredits returns every credit regardless of status.
	ListAllCredits(ctx context.Context) ([]*Credit, error)

	// ListCreditsByClient returns every credit issued to a client.
	ListCreditsByClient(ctx context.Context, clientID string) ([]*Credit, error)

	// DeleteCredit removes a credit. Returns ErrCreditNotFound when the
	// id has no record.
	DeleteCredit(ctx context.Context, id string) error
}

// UserStore persists operator accounts for the credential check.
type UserStore interface {
	// SaveUser inserts or replaces an operator account.
	SaveUser(ctx context.Context, u *User) error

	// GetUserByUsername returns an account, or (nil, nil) if absent.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}
