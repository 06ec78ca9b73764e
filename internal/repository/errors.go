package repository

import "errors"

var (
	// ErrStatusChanged reports a conditional update whose guard no longer
	// held: a lost status compare-and-swap, a payment that already settled,
	// or a wallet decrement past the held amount.
	ErrStatusChanged = errors.New("row state changed")

	// ErrOrderCodeTaken reports an order_code unique-constraint collision.
	ErrOrderCodeTaken = errors.New("order code already taken")

	// ErrDuplicateMint reports a duplicate (user, mint address) wallet entry.
	ErrDuplicateMint = errors.New("mint address already in wallet")

	// ErrEmailTaken reports a users.email unique-constraint collision.
	ErrEmailTaken = errors.New("email already registered")
)
