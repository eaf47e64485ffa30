package repository

import (
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// mapPQError translates constraint failures reported by Postgres into
// domain errors. unique and missingRef are returned for unique and
// foreign key violations respectively.
func mapPQError(err error, unique, missingRef error) error {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		if unique != nil {
			return unique
		}
	case pqForeignKeyViolation:
		if missingRef != nil {
			return missingRef
		}
	case pqCheckViolation:
		return fmt.Errorf("%w: %s", pkgerrors.ErrConstraintViolation, pqErr.Constraint)
	}
	return err
}

// nullableJSON keeps empty payloads NULL; non-empty ones are sent as text
// so Postgres casts them to JSONB.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
