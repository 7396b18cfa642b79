package migration

import (
	auditdomain "github.com/kirapay/kirapay/internal/audit/domain"
	distributiondomain "github.com/kirapay/kirapay/internal/distribution/domain"
	configdomain "github.com/kirapay/kirapay/internal/distributionconfig/domain"
	leasedomain "github.com/kirapay/kirapay/internal/lease/domain"
	notificationdomain "github.com/kirapay/kirapay/internal/notification/domain"
	paymentdomain "github.com/kirapay/kirapay/internal/payment/domain"
	propertydomain "github.com/kirapay/kirapay/internal/property/domain"
	reminderdomain "github.com/kirapay/kirapay/internal/reminder/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies the schema on startup. Postgres runs the embedded SQL
// migrations; other dialects (sqlite in local dev) fall back to gorm's
// AutoMigrate since the SQL files use postgres types.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&propertydomain.Property{},
			&leasedomain.Lease{},
			&paymentdomain.Payment{},
			&configdomain.Config{},
			&distributiondomain.PaymentDistribution{},
			&distributiondomain.Recipient{},
			&reminderdomain.Record{},
			&notificationdomain.Notification{},
			&auditdomain.AuditLog{},
		)
	}),
)
