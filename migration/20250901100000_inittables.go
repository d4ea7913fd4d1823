package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTables, downInitTables)
}

func upInitTables(ctx context.Context, tx *sql.Tx) error {
	// Create usuarios table (denormalized profile records)
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE usuarios (
			id UUID PRIMARY KEY,
			uid VARCHAR(128) NOT NULL UNIQUE,
			nome_completo VARCHAR(255) NOT NULL,
			celular VARCHAR(32) NOT NULL,
			email VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// Create viagens table
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE viagens (
			id UUID PRIMARY KEY,
			uid VARCHAR(128) NOT NULL,
			local VARCHAR(255) NOT NULL,
			orcamento NUMERIC(12,2) NOT NULL,
			periodo_inicio TIMESTAMPTZ NOT NULL,
			periodo_fim TIMESTAMPTZ NOT NULL,
			criada_em TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			dias JSONB
		);
	`)
	if err != nil {
		return err
	}

	// Trips are always read through an owner filter
	_, err = tx.ExecContext(ctx, `
		CREATE INDEX idx_viagens_uid ON viagens (uid);
	`)
	return err
}

func downInitTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS viagens;`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS usuarios;`)
	return err
}
