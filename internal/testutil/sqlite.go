package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/adminauth-server/internal/repository/sqlite"
)

// SQLiteStores holds repositories over a private in-memory database.
type SQLiteStores struct {
	Conn  *sqlite.Connection
	Users *sqlite.UserRepository
	Codes *sqlite.EmailCodeRepository
}

// OpenSQLiteStores migrates a fresh in-memory database that lives until
// the test finishes.
func OpenSQLiteStores(t testing.TB) SQLiteStores {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := sqlite.NewConnection(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return SQLiteStores{
		Conn:  conn,
		Users: sqlite.NewUserRepository(conn.DB),
		Codes: sqlite.NewEmailCodeRepository(conn.DB),
	}
}
