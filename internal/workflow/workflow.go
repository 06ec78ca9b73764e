// Package workflow owns the document status state machine. The legal moves
// are expressed as one explicit table from (status, role, action) to the next
// status, so the policy can be read and checked in one place instead of being
// scattered through handler conditionals.
package workflow

import (
	"fmt"

	"notaryapi/internal/apperr"
	"notaryapi/internal/model"
)

// Actions a role-bearing actor can take on a document.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Key identifies one cell of the transition table.
type Key struct {
	Status string
	Role   string
	Action string
}

// nonTerminal lists every status a document can still leave.
var nonTerminal = []string{
	model.StatusPending,
	model.StatusProcessing,
	model.StatusReadyToSign,
	model.StatusPendingSignature,
}

// table maps each legal (status, role, action) triple to exactly one next
// status. Reject rows are filled in by init for every non-terminal status:
// both the secretary and the notary may reject at any point before a
// terminal status is reached.
var table = map[Key]string{
	{model.StatusPending, model.RoleSecretary, ActionAccept}:       model.StatusProcessing,
	{model.StatusProcessing, model.RoleNotary, ActionAccept}:       model.StatusReadyToSign,
	{model.StatusReadyToSign, model.RoleUser, ActionAccept}:        model.StatusPendingSignature,
	{model.StatusPendingSignature, model.RoleNotary, ActionAccept}: model.StatusAccepted,
}

func init() {
	for _, st := range nonTerminal {
		table[Key{st, model.RoleSecretary, ActionReject}] = model.StatusRejected
		table[Key{st, model.RoleNotary, ActionReject}] = model.StatusRejected
	}
	if err := Validate(); err != nil {
		panic(err)
	}
}

// Next resolves the transition for the given triple. It returns
// apperr.ErrInvalidTransition when the table has no entry, before any
// mutation is attempted by the caller.
func Next(status, role, action string) (string, error) {
	next, ok := table[Key{status, role, action}]
	if !ok {
		return "", fmt.Errorf("%w: no transition for status %q, role %q, action %q",
			apperr.ErrInvalidTransition, status, role, action)
	}
	return next, nil
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(status string) bool {
	return status == model.StatusAccepted || status == model.StatusRejected
}

// Validate checks the table invariants: every non-terminal status has at
// least one outbound transition, no terminal status has any, and every
// target is a known status. Run at startup.
func Validate() error {
	known := map[string]bool{
		model.StatusPending:          true,
		model.StatusProcessing:       true,
		model.StatusReadyToSign:      true,
		model.StatusPendingSignature: true,
		model.StatusAccepted:         true,
		model.StatusRejected:         true,
	}

	outbound := map[string]int{}
	for k, next := range table {
		if !known[k.Status] || !known[next] {
			return fmt.Errorf("workflow table references unknown status: %q -> %q", k.Status, next)
		}
		if IsTerminal(k.Status) {
			return fmt.Errorf("workflow table has outbound transition from terminal status %q", k.Status)
		}
		outbound[k.Status]++
	}
	for _, st := range nonTerminal {
		if outbound[st] == 0 {
			return fmt.Errorf("non-terminal status %q has no outbound transition", st)
		}
	}
	return nil
}
