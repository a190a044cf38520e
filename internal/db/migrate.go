package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shariastocks-in/backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// autoMigrateModels lists every persisted model in migration order.
func autoMigrateModels() []any {
	return []any{
		&models.Plan{},
		&models.User{},
		&models.Transaction{},
		&models.SubscriptionChangeLog{},
		&models.WatchlistEntry{},
		&models.Stock{},
		&models.Notification{},
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(autoMigrateModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_plans_is_enabled_sort_order",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_plans_is_enabled_sort_order
				ON plans (is_enabled, sort_order ASC)
			`,
		},
		{
			name: "idx_transactions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_transactions_user_id_created_at
				ON transactions (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_transactions_user_id_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_transactions_user_id_status
				ON transactions (user_id, status)
			`,
		},
		{
			name: "idx_users_subscription_end_date_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_subscription_end_date_status
				ON users (subscription_end_date, subscription_status)
			`,
		},
		{
			name: "idx_stocks_trending_rank",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_stocks_trending_rank
				ON stocks (trending_rank)
				WHERE trending_rank > 0
			`,
		},
		{
			name: "idx_notifications_user_id_read_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_notifications_user_id_read_created_at
				ON notifications (user_id, read, created_at DESC)
			`,
		},
		{
			name: "idx_subscription_change_logs_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_change_logs_user_id_created_at
				ON subscription_change_logs (user_id, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(autoMigrateModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_transactions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_transactions_user_id_created_at
				ON transactions (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_transactions_user_id_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_transactions_user_id_status
				ON transactions (user_id, status)
			`,
		},
		{
			name: "idx_users_subscription_end_date_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_subscription_end_date_status
				ON users (subscription_end_date, subscription_status)
			`,
		},
		{
			name: "idx_stocks_trending_rank",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_stocks_trending_rank
				ON stocks (trending_rank)
				WHERE trending_rank > 0
			`,
		},
		{
			name: "idx_notifications_user_id_read_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_notifications_user_id_read_created_at
				ON notifications (user_id, read, created_at DESC)
			`,
		},
		{
			name: "idx_subscription_change_logs_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_change_logs_user_id_created_at
				ON subscription_change_logs (user_id, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// defaultPlan describes a seeded plan row.
type defaultPlan struct {
	planID             models.PlanID
	name               string
	description        string
	monthPrice         float64
	annualPrice        float64
	features           []string
	watchlistLimit     int
	monthlySearchLimit int
	historyMonths      int
	sortOrder          int
}

// defaultPlans returns the plan catalogue seeded on first start.
func defaultPlans() []defaultPlan {
	return []defaultPlan{
		{
			planID:      models.PlanFree,
			name:        "Free",
			description: "Explore compliance screening with limited visibility",
			monthPrice:  0,
			annualPrice: 0,
			features: []string{
				"Top 2 trending stocks",
				"Top 2 halal stocks",
				"Basic compliance status",
			},
			watchlistLimit:     0,
			monthlySearchLimit: 10,
			historyMonths:      1,
			sortOrder:          1,
		},
		{
			planID:      models.PlanBasic,
			name:        "Basic",
			description: "Full screening access for individual investors",
			monthPrice:  299,
			annualPrice: 3048,
			features: []string{
				"Full trending and halal lists",
				"Watchlist with up to 10 stocks",
				"Detailed compliance reports",
				"Email support",
			},
			watchlistLimit:     10,
			monthlySearchLimit: 100,
			historyMonths:      12,
			sortOrder:          2,
		},
		{
			planID:      models.PlanPremium,
			name:        "Premium",
			description: "Everything in Basic plus unlimited research tools",
			monthPrice:  599,
			annualPrice: 6110,
			features: []string{
				"Everything in Basic",
				"Unlimited watchlist",
				"Unlimited searches",
				"Full price history",
				"Priority support",
			},
			watchlistLimit:     1000,
			monthlySearchLimit: 0,
			historyMonths:      60,
			sortOrder:          3,
		},
	}
}

// ensureDefaultPlans seeds the plan catalogue when rows are missing.
func ensureDefaultPlans(conn *gorm.DB) error {
	for _, seed := range defaultPlans() {
		var existing models.Plan
		errFind := conn.Where("plan_id = ?", seed.planID).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: query plan %s: %w", seed.planID, errFind)
		}

		features, errMarshal := json.Marshal(seed.features)
		if errMarshal != nil {
			return fmt.Errorf("db: marshal plan features %s: %w", seed.planID, errMarshal)
		}

		now := time.Now().UTC()
		plan := models.Plan{
			PlanID:             seed.planID,
			Name:               seed.name,
			Description:        seed.description,
			MonthPrice:         seed.monthPrice,
			AnnualPrice:        seed.annualPrice,
			Features:           datatypes.JSON(features),
			WatchlistLimit:     seed.watchlistLimit,
			MonthlySearchLimit: seed.monthlySearchLimit,
			HistoryMonths:      seed.historyMonths,
			SortOrder:          seed.sortOrder,
			IsEnabled:          true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if errCreate := conn.Create(&plan).Error; errCreate != nil {
			return fmt.Errorf("db: create plan %s: %w", seed.planID, errCreate)
		}
	}
	return nil
}
