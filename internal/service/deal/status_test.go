package deal

import (
	"errors"
	"testing"

	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

func TestAuthorizeTransition(t *testing.T) {
	admin := Actor{ID: 1, Username: "admin", IsAdmin: true}
	buyer := Actor{ID: 2, Username: "buyer"}
	stranger := Actor{ID: 3, Username: "stranger"}

	tests := []struct {
		name    string
		actor   Actor
		status  model.DealStatus
		target  model.DealStatus
		wantErr error
	}{
		{"admin accepts pending", admin, model.DealStatusPending, model.DealStatusAccepted, nil},
		{"admin rejects pending", admin, model.DealStatusPending, model.DealStatusRejected, nil},
		{"admin completes payment_sent", admin, model.DealStatusPaymentSent, model.DealStatusCompleted, nil},
		{"buyer sends payment on accepted", buyer, model.DealStatusAccepted, model.DealStatusPaymentSent, nil},
		{"buyer cancels pending", buyer, model.DealStatusPending, model.DealStatusCancelled, nil},
		{"buyer cancels payment_sent", buyer, model.DealStatusPaymentSent, model.DealStatusCancelled, nil},

		{"stranger denied before anything else", stranger, model.DealStatusPending, model.DealStatusAccepted, utils.ErrAccessDenied},
		{"buyer cannot accept", buyer, model.DealStatusPending, model.DealStatusAccepted, utils.ErrInvalidTransition},
		{"buyer cannot complete", buyer, model.DealStatusPaymentSent, model.DealStatusCompleted, utils.ErrInvalidTransition},
		{"admin cannot send payment", admin, model.DealStatusAccepted, model.DealStatusPaymentSent, utils.ErrInvalidTransition},
		{"admin cannot cancel via status update", admin, model.DealStatusPending, model.DealStatusCancelled, utils.ErrInvalidTransition},
		{"nobody sets disputed", admin, model.DealStatusPending, model.DealStatusDisputed, utils.ErrInvalidTransition},

		// Only the role and terminality constrain a transition; the current
		// active status never does.
		{"admin completes straight from pending", admin, model.DealStatusPending, model.DealStatusCompleted, nil},
		{"admin re-accepts accepted", admin, model.DealStatusAccepted, model.DealStatusAccepted, nil},
		{"admin rejects accepted", admin, model.DealStatusAccepted, model.DealStatusRejected, nil},
		{"admin rejects payment_sent", admin, model.DealStatusPaymentSent, model.DealStatusRejected, nil},
		{"buyer pays on pending", buyer, model.DealStatusPending, model.DealStatusPaymentSent, nil},

		{"completed is terminal", admin, model.DealStatusCompleted, model.DealStatusRejected, utils.ErrInvalidTransition},
		{"rejected is terminal", buyer, model.DealStatusRejected, model.DealStatusCancelled, utils.ErrInvalidTransition},
		{"cancelled is terminal", admin, model.DealStatusCancelled, model.DealStatusAccepted, utils.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := &model.Deal{ID: 10, BuyerID: buyer.ID, Status: tt.status}
			err := authorizeTransition(tt.actor, deal, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("authorizeTransition() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckEdge_CancelFromEveryActiveStatus(t *testing.T) {
	for _, status := range model.ActiveDealStatuses {
		if err := checkEdge(status, model.DealStatusCancelled); err != nil {
			t.Errorf("checkEdge(%s, cancelled) = %v, want nil", status, err)
		}
	}
}

func TestApplyTransition(t *testing.T) {
	t.Run("completed stamps the deal", func(t *testing.T) {
		deal := &model.Deal{Status: model.DealStatusPaymentSent}
		applyTransition(deal, model.DealStatusCompleted, nil)

		if deal.Status != model.DealStatusCompleted {
			t.Errorf("status = %s, want completed", deal.Status)
		}
		if deal.CompletedAt == nil {
			t.Error("CompletedAt should be set on completion")
		}
	})

	t.Run("payment code rides with the status write", func(t *testing.T) {
		code := "XXXX-YYYY-ZZZZ"
		deal := &model.Deal{Status: model.DealStatusAccepted}
		applyTransition(deal, model.DealStatusPaymentSent, &code)

		if deal.SteamCardCode == nil || *deal.SteamCardCode != code {
			t.Errorf("SteamCardCode = %v, want %s", deal.SteamCardCode, code)
		}
		if deal.CompletedAt != nil {
			t.Error("CompletedAt must stay empty before completion")
		}
	})

	t.Run("empty code is ignored", func(t *testing.T) {
		empty := ""
		deal := &model.Deal{Status: model.DealStatusAccepted}
		applyTransition(deal, model.DealStatusPaymentSent, &empty)

		if deal.SteamCardCode != nil {
			t.Errorf("SteamCardCode = %v, want nil", deal.SteamCardCode)
		}
	})
}
