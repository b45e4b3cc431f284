package database

import (
	"fmt"

	"gorm.io/gorm"

	"modmarket/internal/model"
	"modmarket/pkg/log"
)

// AutoMigrate auto migrate database table schema
func AutoMigrate(db *gorm.DB) error {
	log.Info("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Deal{},
		&model.DealMessage{},
		&model.Notification{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
		log.Infof("Migrated model: %T", m)
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes create additional indexes
func CreateIndexes(db *gorm.DB) error {
	log.Info("Creating additional indexes...")

	indexes := []struct {
		table string
		name  string
		sql   string
	}{
		{
			table: "deals",
			name:  "idx_deals_buyer_status",
			sql:   "CREATE INDEX IF NOT EXISTS idx_deals_buyer_status ON deals (buyer_id, status)",
		},
		{
			table: "deal_messages",
			name:  "idx_deal_messages_deal_created",
			sql:   "CREATE INDEX IF NOT EXISTS idx_deal_messages_deal_created ON deal_messages (deal_id, created_at, id)",
		},
		{
			table: "notifications",
			name:  "idx_notifications_user_read",
			sql:   "CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications (user_id, is_read, created_at)",
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			log.Warnf("Failed to create index %s on table %s: %v", idx.name, idx.table, err)
		} else {
			log.Infof("Created index: %s on table %s", idx.name, idx.table)
		}
	}

	log.Info("Index creation completed")
	return nil
}
