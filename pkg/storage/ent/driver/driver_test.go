package entdriver_test

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/storage"
	entdriver "github.com/papercomputeco/chameleon/pkg/storage/ent/driver"
	"github.com/papercomputeco/chameleon/pkg/storage/storagetest"
)

func openSQLite() *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	Expect(err).NotTo(HaveOccurred())
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	Expect(err).NotTo(HaveOccurred())
	return db
}

func columnNames(db *sql.DB) []string {
	rows, err := db.Query("SELECT name FROM pragma_table_info('attack_logs')")
	Expect(err).NotTo(HaveOccurred())
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		Expect(rows.Scan(&name)).To(Succeed())
		names = append(names, name)
	}
	Expect(rows.Err()).NotTo(HaveOccurred())
	return names
}

var _ = Describe("EntDriver", func() {
	storagetest.DescribeDriver(func() storage.Driver {
		d, err := entdriver.New(context.Background(), entsql.OpenDB(dialect.SQLite, openSQLite()))
		Expect(err).NotTo(HaveOccurred())
		return d
	})

	Describe("New", func() {
		var (
			ctx context.Context
			db  *sql.DB
		)

		BeforeEach(func() {
			ctx = context.Background()
			db = openSQLite()
			DeferCleanup(db.Close)
		})

		It("creates the attack_logs table with its indexes", func() {
			_, err := entdriver.New(ctx, entsql.OpenDB(dialect.SQLite, db))
			Expect(err).NotTo(HaveOccurred())

			Expect(columnNames(db)).To(Equal([]string{
				"id", "timestamp", "ip_address", "request_method", "endpoint",
				"payload_data", "ai_response_sent", "user_agent", "outcome",
			}))

			var indexes int
			Expect(db.QueryRow(
				"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN ('attacklog_timestamp', 'attacklog_endpoint')",
			).Scan(&indexes)).To(Succeed())
			Expect(indexes).To(Equal(2))
		})

		It("is safe to run against an already migrated database", func() {
			first, err := entdriver.New(ctx, entsql.OpenDB(dialect.SQLite, db))
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Put(ctx, storagetest.NewLog("kept", "/wp-login.php", 0))).To(Succeed())

			second, err := entdriver.New(ctx, entsql.OpenDB(dialect.SQLite, db))
			Expect(err).NotTo(HaveOccurred())

			got, err := second.Get(ctx, "kept")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Endpoint).To(Equal("/wp-login.php"))
		})
	})
})
