package database

import (
	"context"
	"testing"
	"time"

	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name, url, token string
		driver, dsn      string
	}{
		{"libsql without token", "libsql://erp.turso.io", "", DriverLibSQL, "libsql://erp.turso.io"},
		{"libsql with token", "libsql://erp.turso.io", "abc", DriverLibSQL, "libsql://erp.turso.io?authToken=abc"},
		{"https with query", "https://erp.turso.io?tls=1", "abc", DriverLibSQL, "https://erp.turso.io?tls=1&authToken=abc"},
		{"local file", "file:erp.db", "", DriverSQLite, "file:erp.db?_busy_timeout=5000"},
		{"local file with options", "file:erp.db?mode=ro", "", DriverSQLite, "file:erp.db?mode=ro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn := resolve(tt.url, tt.token)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestLikeHelpers(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, EscapeLike(`50%_off\`))
	assert.Equal(t, `%ravi%`, Contains("ravi"))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
	assert.Empty(t, Placeholders(0))
	assert.Equal(t, []any{"a", "b"}, Args([]string{"a", "b"}))
}

func TestTimeHelpers(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 123000000, time.FixedZone("IST", 19800))
	parsed, err := ParseTime(FormatTime(now))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))

	got, err := ScanNullTime(NullTime(nil))
	require.NoError(t, err)
	assert.Nil(t, got)

	s := "x"
	assert.Equal(t, &s, StringPtr(NullString(&s)))
	assert.Nil(t, StringPtr(NullString(nil)))
}

func TestSchemaAndSeedAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := NewInMemory("schema_" + security.GenerateULID())
	require.NoError(t, err)
	defer db.Close()

	tc := NewTableCreator()
	require.NoError(t, tc.CreateSchema(ctx, db.DB))
	require.NoError(t, tc.CreateSchema(ctx, db.DB))

	first, err := tc.SeedDefaults(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, 4, first.RolePermissions)
	assert.Len(t, first.Settings, 5)

	second, err := tc.SeedDefaults(ctx, db.DB)
	require.NoError(t, err)
	assert.Zero(t, second.RolePermissions)
	assert.Empty(t, second.Settings)
}

func TestUniqueViolationDetection(t *testing.T) {
	ctx := context.Background()
	db, err := NewInMemory("unique_" + security.GenerateULID())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE things (id TEXT PRIMARY KEY, slug TEXT UNIQUE)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO things (id, slug) VALUES ('1', 'a')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO things (id, slug) VALUES ('2', 'a')`)

	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "things.slug", UniqueViolationColumn(err))
	assert.False(t, IsUniqueViolation(nil))
}
