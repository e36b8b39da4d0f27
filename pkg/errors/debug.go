package errors

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// maxChainDepth bounds the unwrap walk so a cyclic Unwrap cannot hang logging.
const maxChainDepth = 16

// ErrorDump is a log-friendly snapshot of an error chain, including the
// Postgres error fields when a driver error sits somewhere in the chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump walks at most maxChainDepth links of err, recording each link and the
// first typed error and Postgres driver error it meets. It never calls
// errors.As, which would follow a cyclic chain forever.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	codeSet, pgSet := false, false
	e := err
	for depth := 0; e != nil && depth < maxChainDepth; depth++ {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		if te, ok := e.(*Error); ok && !codeSet && te != nil {
			d.Code, codeSet = te.Code(), true
		}
		if !pgSet {
			pgSet = d.fillPostgres(e)
		}
		e = next(e)
	}
	return d
}

// next follows a single link; for joined errors only the first branch is walked.
func next(err error) error {
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return u.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := u.Unwrap(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}

func (d *ErrorDump) fillPostgres(err error) bool {
	switch pgErr := err.(type) {
	case *pgconn.PgError:
		if pgErr == nil {
			return false
		}
		d.PGCode, d.PGMessage, d.PGDetail = pgErr.Code, pgErr.Message, pgErr.Detail
		d.PGConstraint, d.PGTable, d.PGColumn = pgErr.ConstraintName, pgErr.TableName, pgErr.ColumnName
		return true
	case *pq.Error:
		if pgErr == nil {
			return false
		}
		d.PGCode, d.PGMessage, d.PGDetail = string(pgErr.Code), pgErr.Message, pgErr.Detail
		d.PGConstraint, d.PGTable, d.PGColumn = pgErr.Constraint, pgErr.Table, pgErr.Column
		return true
	}
	return false
}
