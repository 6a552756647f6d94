package migrate

import (
	"context"
	"fmt"

	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/db"
	"github.com/shyammm53/wardrobe-backend/pkg/db/models"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
)

// MaybeRunDev migrates the schema automatically when the app runs in dev
// mode with the feature flag enabled. SQLite setups use GORM's
// auto-migration because the goose SQL files target Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.FeatureFlags.UseSQLite || cfg.DB.Driver == "sqlite" {
		logg.Info(ctx, "running gorm auto-migration (sqlite dev)")
		return client.DB().WithContext(ctx).AutoMigrate(
			&models.User{},
			&models.ClothingItem{},
			&models.WearLog{},
		)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, "postgres", DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
