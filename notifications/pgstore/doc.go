// Package pgstore persists notifications, settings, and push devices in
// PostgreSQL via pgx/v5. The schema is applied with goose from the
// migrations directory; see pkg/pg.
package pgstore
