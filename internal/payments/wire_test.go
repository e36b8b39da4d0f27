package payments

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookify-backend/pkg/config"
	"github.com/angelmondragon/bookify-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookify-backend/pkg/enums"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
)

func TestWireBuildsWorkingEngine(t *testing.T) {
	conn := dbtest.Open(t, "payments_wire")
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})

	gateway := newFakeGateway()
	svc, err := Wire(conn, gateway, config.PaymentsConfig{SubscriptionDefaultDays: 30}, nil, logg)
	require.NoError(t, err)

	f := &fixture{conn: conn, svc: svc, gateway: gateway, userID: uuid.New()}
	planID := f.plan(t, 250)

	_, err = svc.CreateOrder(context.Background(), f.userID, CreateOrderInput{
		PaymentFor:         enums.PaymentPurposeSubscription,
		SubscriptionPlanID: &planID,
	})
	assert.NoError(t, err)
}

func TestWireRejectsMissingDependencies(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	_, err := Wire(nil, newFakeGateway(), config.PaymentsConfig{SubscriptionDefaultDays: 30}, nil, logg)
	assert.Error(t, err)

	conn := dbtest.Open(t, "payments_wire_missing")
	_, err = Wire(conn, newFakeGateway(), config.PaymentsConfig{}, nil, logg)
	assert.Error(t, err, "subscription period must be positive")
}
