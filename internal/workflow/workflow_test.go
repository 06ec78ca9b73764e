package workflow

import (
	"errors"
	"testing"

	"notaryapi/internal/apperr"
	"notaryapi/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		role     string
		action   string
		want     string
		wantErr  bool
	}{
		{"secretary accepts pending", model.StatusPending, model.RoleSecretary, ActionAccept, model.StatusProcessing, false},
		{"notary accepts processing", model.StatusProcessing, model.RoleNotary, ActionAccept, model.StatusReadyToSign, false},
		{"user accepts readyToSign", model.StatusReadyToSign, model.RoleUser, ActionAccept, model.StatusPendingSignature, false},
		{"notary accepts pendingSignature", model.StatusPendingSignature, model.RoleNotary, ActionAccept, model.StatusAccepted, false},
		{"notary rejects pending", model.StatusPending, model.RoleNotary, ActionReject, model.StatusRejected, false},
		{"secretary rejects readyToSign", model.StatusReadyToSign, model.RoleSecretary, ActionReject, model.StatusRejected, false},
		{"notary rejects pendingSignature", model.StatusPendingSignature, model.RoleNotary, ActionReject, model.StatusRejected, false},
		{"user cannot accept pending", model.StatusPending, model.RoleUser, ActionAccept, "", true},
		{"notary cannot accept pending", model.StatusPending, model.RoleNotary, ActionAccept, "", true},
		{"secretary cannot accept processing", model.StatusProcessing, model.RoleSecretary, ActionAccept, "", true},
		{"user cannot reject", model.StatusProcessing, model.RoleUser, ActionReject, "", true},
		{"no transition from accepted", model.StatusAccepted, model.RoleNotary, ActionAccept, "", true},
		{"no reject from rejected", model.StatusRejected, model.RoleNotary, ActionReject, "", true},
		{"unknown action", model.StatusPending, model.RoleSecretary, "escalate", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Next(tt.status, tt.role, tt.action)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestRejectReachableFromEveryNonTerminal(t *testing.T) {
	for _, st := range nonTerminal {
		next, err := Next(st, model.RoleNotary, ActionReject)
		assert.NoError(t, err, st)
		assert.Equal(t, model.StatusRejected, next)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StatusAccepted))
	assert.True(t, IsTerminal(model.StatusRejected))
	assert.False(t, IsTerminal(model.StatusPending))
	assert.False(t, IsTerminal(model.StatusPendingSignature))
}
