package database

import (
	"context"
	"fmt"

	"bhreads/internal/models"

	"gorm.io/gorm"
)

// PersistentModels lists every model with its own table.
func PersistentModels() []any {
	return []any{&models.User{}, &models.Post{}}
}

// ApplySchema brings tables up to date and then runs pending data migrations.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return RunMigrations(ctx, db)
}

// SchemaStatus describes which data migrations have run.
type SchemaStatus struct {
	Driver            string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// GetSchemaStatus reports applied and pending migrations without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB) (*SchemaStatus, error) {
	status := &SchemaStatus{Driver: db.Dialector.Name()}
	if !db.Migrator().HasTable(&MigrationLog{}) {
		status.PendingMigrations = Migrations()
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pendingMigrations(applied, migrations)
	return status, nil
}
