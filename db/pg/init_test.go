package pg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateDSNFromConfiguredURL(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")

	dsn := CreateDSN("host=db.internal user=app dbname=app password=secret port=5432 sslmode=require")
	assert.Equal(t, "host=db.internal user=app dbname=app password=secret port=5432 sslmode=require search_path=traveleasy", dsn)
}

func TestCreateDSNDefault(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")
	t.Setenv("DATABASE_USER", "")
	t.Setenv("DATABASE_HOST", "")

	dsn := CreateDSN("")
	assert.Equal(t, "host=localhost user=postgres dbname=postgres port=5432 sslmode=disable search_path=traveleasy", dsn)
}

func TestCreateDSNPiecewiseFallback(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "pw")
	t.Setenv("DATABASE_USER", "app")
	t.Setenv("DATABASE_HOST", "10.0.0.7")

	dsn := CreateDSN("")
	assert.Equal(t, "host=10.0.0.7 user=app dbname=postgres password=pw port=5432 sslmode=disable search_path=traveleasy", dsn)
}
