package app

import (
	config "github.com/DRSN-tech/commerce-backend/internal/cfg"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/DRSN-tech/commerce-backend/pkg/postgres"
	"github.com/jimlawless/whereami"
)

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
