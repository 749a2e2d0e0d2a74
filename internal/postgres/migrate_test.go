package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://app:secret@db:5432/orders?sslmode=disable":   "pgx5://app:secret@db:5432/orders?sslmode=disable",
		"postgresql://app:secret@db:5432/orders?sslmode=disable": "pgx5://app:secret@db:5432/orders?sslmode=disable",
		"pgx5://db/orders": "pgx5://db/orders",
	}
	for in, want := range cases {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 4)
}
