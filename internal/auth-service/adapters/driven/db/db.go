package db

import (
	"context"
	"fmt"

	"github.com/finere-dem/MaliTrans/internal/config"
	"github.com/finere-dem/MaliTrans/internal/mylogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB owns the pgx connection pool for the auth service.
type DB struct {
	ctx   context.Context
	cfg   *config.DBconfig
	mylog mylogger.Logger
	pool  *pgxpool.Pool
}

func New(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DB, error) {
	d := &DB{
		cfg:   dbCfg,
		ctx:   ctx,
		mylog: mylog,
	}

	pool, err := pgxpool.New(ctx, fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Database,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d.pool = pool
	return d, nil
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

func (d *DB) IsAlive() error {
	if d.pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	return d.pool.Ping(d.ctx)
}
