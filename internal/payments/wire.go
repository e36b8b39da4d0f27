package payments

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookify-backend/internal/bookings"
	"github.com/angelmondragon/bookify-backend/internal/catalog"
	"github.com/angelmondragon/bookify-backend/internal/inventory"
	"github.com/angelmondragon/bookify-backend/internal/ledger"
	"github.com/angelmondragon/bookify-backend/internal/subscriptions"
	"github.com/angelmondragon/bookify-backend/pkg/config"
	"github.com/angelmondragon/bookify-backend/pkg/db"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
	"github.com/angelmondragon/bookify-backend/pkg/outbox"
)

// Wire assembles the engine and its collaborators over one database handle.
// cmd/api and cmd/cron-worker share it so both run the same unit of work.
func Wire(conn *gorm.DB, gateway Gateway, cfg config.PaymentsConfig, m *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	bookingSvc, err := bookings.NewService(bookings.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("booking service: %w", err)
	}
	subSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn), cfg.SubscriptionDefaultDays)
	if err != nil {
		return nil, fmt.Errorf("subscription service: %w", err)
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	pricer, err := NewPricer(catalogSvc, bookingSvc)
	if err != nil {
		return nil, fmt.Errorf("pricer: %w", err)
	}
	effects, err := NewEffects(subSvc, bookingSvc, inventory.NewService())
	if err != nil {
		return nil, fmt.Errorf("side effects: %w", err)
	}

	return NewService(ServiceParams{
		Repo:                    NewRepository(conn),
		Ledger:                  ledgerSvc,
		Pricer:                  pricer,
		Gateway:                 gateway,
		Subscriptions:           subSvc,
		Effects:                 effects,
		Tx:                      db.Wrap(conn),
		Outbox:                  outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:                 m,
		Logger:                  logg,
		AllowCancelAfterCapture: cfg.AllowCancelAfterCapture,
	})
}
