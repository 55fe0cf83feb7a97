// Package pg wires up the PostgreSQL layer: a pgx/v5 connection pool with
// retrying startup, goose schema migrations, a health check closure, and a
// few error classification helpers.
//
// Typical bootstrap:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
// The helpers are independent so callers can use the pool without running
// migrations, or run migrations from a separate job.
package pg
