package services

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors shared across services. Handlers translate these to HTTP
// status codes at the boundary.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrArtifactsMissing   = errors.New("teal artifacts not found")
	ErrInvitesUnavailable = errors.New("invite store unavailable")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation and returns the violated constraint name. All uniqueness
// invariants (wallet_address, app_id, tx_id) are enforced in the schema, so
// this is the single place duplicate submissions are detected.
func isUniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}
