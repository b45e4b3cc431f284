package deal

import (
	"time"

	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// Actor is the authenticated user performing a deal operation
type Actor struct {
	ID       uint64
	Username string
	IsAdmin  bool
}

// Targets each role may request. The admin acts as the seller; disputed is
// set by support tooling only and is reachable through neither role.
var (
	adminTargets = map[model.DealStatus]bool{
		model.DealStatusAccepted:  true,
		model.DealStatusRejected:  true,
		model.DealStatusCompleted: true,
	}
	buyerTargets = map[model.DealStatus]bool{
		model.DealStatusPaymentSent: true,
		model.DealStatusCancelled:   true,
	}
)

// authorizeTransition decides whether actor may move the deal to target.
// Non-participants are rejected before the target is even looked at, so the
// error does not leak which transitions exist.
func authorizeTransition(actor Actor, deal *model.Deal, target model.DealStatus) error {
	var targets map[model.DealStatus]bool
	switch {
	case actor.IsAdmin:
		targets = adminTargets
	case deal.BuyerID == actor.ID:
		targets = buyerTargets
	default:
		return utils.ErrAccessDenied
	}

	if !targets[target] {
		return utils.ErrInvalidTransition
	}

	return checkEdge(deal.Status, target)
}

// checkEdge rejects transitions out of a terminal status. The current status
// imposes no other constraint: the role target sets are the whole policy, so
// an admin may, say, complete a deal straight from pending.
func checkEdge(from, to model.DealStatus) error {
	if from.IsTerminal() {
		return utils.ErrInvalidTransition
	}
	return nil
}

// applyTransition writes the new status onto the locked deal. The payment
// code, when supplied, rides in the same write; completion stamps the deal.
func applyTransition(deal *model.Deal, target model.DealStatus, steamCardCode *string) {
	deal.Status = target

	if steamCardCode != nil && *steamCardCode != "" {
		deal.SteamCardCode = steamCardCode
	}

	if target == model.DealStatusCompleted {
		now := time.Now()
		deal.CompletedAt = &now
	}
}
