package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// MutateDeal validates and applies a status change to a row-locked deal.
// Returning an error aborts the surrounding transaction; the returned system
// message, if any, is appended within the same transaction.
type MutateDeal func(deal *model.Deal) (*model.DealMessage, error)

// DealRepository deal repository interface
type DealRepository interface {
	// Create deal together with its initial system message, atomically
	Create(ctx context.Context, deal *model.Deal, firstMessage *model.DealMessage) error

	// Get deal by ID
	GetByID(ctx context.Context, id uint64) (*model.Deal, error)

	// List all deals
	ListAll(ctx context.Context) ([]*model.Deal, error)

	// List deals of one buyer
	ListByBuyer(ctx context.Context, buyerID uint64) ([]*model.Deal, error)

	// Transition applies mutate to the deal under a row lock; the status
	// write and system-message append commit together or not at all
	Transition(ctx context.Context, dealID uint64, mutate MutateDeal) (*model.Deal, error)

	// TransitionActiveByBuyer applies mutate to every active deal of the
	// buyer inside one transaction (used by admin ban)
	TransitionActiveByBuyer(ctx context.Context, buyerID uint64, mutate MutateDeal) ([]*model.Deal, error)

	// CountByStatus counts deals grouped by status
	CountByStatus(ctx context.Context) (map[model.DealStatus]int64, error)

	// CompletedRevenue sums product prices over completed deals
	CompletedRevenue(ctx context.Context) (int64, error)
}

type dealRepository struct {
	db *gorm.DB
}

// NewDealRepository creates a deal repository
func NewDealRepository(db *gorm.DB) DealRepository {
	return &dealRepository{db: db}
}

// Create creates a deal and its initial system message in one transaction
func (r *dealRepository) Create(ctx context.Context, deal *model.Deal, firstMessage *model.DealMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(deal).Error; err != nil {
			return err
		}

		if firstMessage != nil {
			firstMessage.DealID = deal.ID
			if err := tx.Create(firstMessage).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID gets a deal by ID
func (r *dealRepository) GetByID(ctx context.Context, id uint64) (*model.Deal, error) {
	var deal model.Deal
	err := r.db.WithContext(ctx).
		Preload("Buyer").
		Preload("Product").
		Where("id = ?", id).
		First(&deal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrDealNotFound
		}
		return nil, err
	}
	return &deal, nil
}

// ListAll lists all deals
func (r *dealRepository) ListAll(ctx context.Context) ([]*model.Deal, error) {
	var deals []*model.Deal
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

// ListByBuyer lists deals of one buyer
func (r *dealRepository) ListByBuyer(ctx context.Context, buyerID uint64) ([]*model.Deal, error) {
	var deals []*model.Deal
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&deals).Error
	return deals, err
}

// Transition applies mutate to the deal under FOR UPDATE. Concurrent
// transitions on the same deal serialize on the row lock, so mutate always
// sees the committed status and a stale read can never win.
func (r *dealRepository) Transition(ctx context.Context, dealID uint64, mutate MutateDeal) (*model.Deal, error) {
	var deal model.Deal

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", dealID).
			First(&deal).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrDealNotFound
			}
			return err
		}

		msg, err := mutate(&deal)
		if err != nil {
			return err
		}

		if err := tx.Save(&deal).Error; err != nil {
			return err
		}

		if msg != nil {
			msg.DealID = deal.ID
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &deal, nil
}

// TransitionActiveByBuyer applies mutate to each active deal of the buyer in
// a single transaction. Used by the admin ban flow; it is the same mutate
// contract as Transition, just applied in bulk.
func (r *dealRepository) TransitionActiveByBuyer(ctx context.Context, buyerID uint64, mutate MutateDeal) ([]*model.Deal, error) {
	var updated []*model.Deal

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deals []*model.Deal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("buyer_id = ? AND status IN ?", buyerID, model.ActiveDealStatuses).
			Find(&deals).Error
		if err != nil {
			return err
		}

		for _, deal := range deals {
			msg, err := mutate(deal)
			if err != nil {
				return err
			}

			if err := tx.Save(deal).Error; err != nil {
				return err
			}

			if msg != nil {
				msg.DealID = deal.ID
				if err := tx.Create(msg).Error; err != nil {
					return err
				}
			}

			updated = append(updated, deal)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CountByStatus counts deals grouped by status
func (r *dealRepository) CountByStatus(ctx context.Context) (map[model.DealStatus]int64, error) {
	var rows []struct {
		Status model.DealStatus
		Count  int64
	}

	err := r.db.WithContext(ctx).
		Model(&model.Deal{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.DealStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CompletedRevenue sums product prices over completed deals
func (r *dealRepository) CompletedRevenue(ctx context.Context) (int64, error) {
	var revenue int64
	err := r.db.WithContext(ctx).
		Model(&model.Deal{}).
		Select("COALESCE(SUM(products.price), 0)").
		Joins("JOIN products ON products.id = deals.product_id").
		Where("deals.status = ?", model.DealStatusCompleted).
		Scan(&revenue).Error
	return revenue, err
}
