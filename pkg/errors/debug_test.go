package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpCapturesChainAndPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "payment_orders_gateway_order_id_key", TableName: "payment_orders"}
	err := Wrap(CodeDependency, fmt.Errorf("insert: %w", pgErr), "persist order")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected code %s got %s", CodeDependency, d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PGCode != "23505" || d.PGTable != "payment_orders" || d.PGConstraint != "payment_orders_gateway_order_id_key" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
}

type loopErr struct{}

func (loopErr) Error() string { return "loop" }
func (e loopErr) Unwrap() error { return e }

func dumpWithin(t *testing.T, err error) ErrorDump {
	t.Helper()
	done := make(chan ErrorDump, 1)
	go func() { done <- Dump(err) }()
	select {
	case d := <-done:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("Dump did not return on a cyclic chain")
		return ErrorDump{}
	}
}

func TestDumpBoundsCyclicChains(t *testing.T) {
	d := dumpWithin(t, loopErr{})
	if len(d.Chain) != maxChainDepth {
		t.Fatalf("expected chain capped at %d got %d", maxChainDepth, len(d.Chain))
	}
}

func TestDumpReadsTypedCodeAboveCycle(t *testing.T) {
	d := dumpWithin(t, Wrap(CodeGatewayUnavailable, loopErr{}, "fetch payment"))
	if d.Code != CodeGatewayUnavailable {
		t.Fatalf("expected code %s got %s", CodeGatewayUnavailable, d.Code)
	}
	if len(d.Chain) != maxChainDepth {
		t.Fatalf("expected chain capped at %d got %d", maxChainDepth, len(d.Chain))
	}
}

func TestDumpFindsPostgresErrorInJoinedChain(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", TableName: "products"}
	d := dumpWithin(t, stdErrors.Join(fmt.Errorf("decrement: %w", pgErr), stdErrors.New("second")))
	if d.PGCode != "23514" || d.PGTable != "products" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
}
