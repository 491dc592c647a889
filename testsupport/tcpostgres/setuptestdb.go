//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/track-dominance/pkg/db/migrate"
	database "github.com/mpapenbr/track-dominance/pkg/db/postgres"
	"github.com/mpapenbr/track-dominance/testsupport/tccontainer"
)

const (
	postgresImage = "postgres:17"
	containerName = "track-dominance-test"
)

// withInitialDatabase sets the superuser and database created on first start
func withInitialDatabase(user, password, dbName string) []tccontainer.Option {
	return []tccontainer.Option{
		tccontainer.WithEnv("POSTGRES_USER", user),
		tccontainer.WithEnv("POSTGRES_PASSWORD", password),
		tccontainer.WithEnv("POSTGRES_DB", dbName),
	}
}

// SetupTestDB starts (or reuses) a postgres container and returns a pool on
// the migrated database
func SetupTestDB() *pgxpool.Pool {
	opts := append(withInitialDatabase("postgres", "password", "postgres"),
		tccontainer.WithCmd("postgres", "-c", "fsync=off"),
		tccontainer.WithName(containerName),
		tccontainer.WithWait(time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	container, err := tccontainer.Start(context.Background(), postgresImage, "5432/tcp", opts...)
	if err != nil {
		log.Fatal(err)
	}
	return setup(fmt.Sprintf("postgresql://postgres:password@%s/postgres", container.Addr))
}

// SetupExternalTestDB uses the database referenced by TESTDB_URL
func SetupExternalTestDB() *pgxpool.Pool {
	return setup(os.Getenv("TESTDB_URL"))
}

func setup(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

func ClearDominanceRunTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from dominance_run")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearDominanceRunTable(pool)
}
