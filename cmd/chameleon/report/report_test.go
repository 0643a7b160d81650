package reportcmder

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/storage/sqlite"
)

func attack(id, endpoint, outcome string, at time.Time, payload *string) *storage.AttackLog {
	return &storage.AttackLog{
		ID:             id,
		Timestamp:      at,
		IPAddress:      "203.0.113.5",
		RequestMethod:  "POST",
		Endpoint:       endpoint,
		PayloadData:    payload,
		AIResponseSent: `{"ok":true}`,
		UserAgent:      "python-requests/2.31",
		Outcome:        outcome,
	}
}

var _ = Describe("BuildReport", func() {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	It("reports an empty store", func() {
		md := BuildReport(&storage.Stats{}, nil, now)
		Expect(md).To(ContainSubstring("**Total attacks:** 0"))
		Expect(md).To(ContainSubstring("`N/A` (0)"))
		Expect(md).To(ContainSubstring("No attacks recorded yet."))
		Expect(md).NotTo(ContainSubstring("## Recent attacks"))
	})

	It("lists top endpoints and recent attacks", func() {
		payload := "user=admin|pass=x\nline2"
		stats := &storage.Stats{
			TotalAttacks: 3,
			TopEndpoints: []storage.EndpointCount{{Endpoint: "/login", Count: 2}, {Endpoint: "/.env", Count: 1}},
		}
		logs := []*storage.AttackLog{
			attack("c", "/login", "provider_error", now, &payload),
			attack("b", "/.env", "success", now.Add(-time.Minute), nil),
		}

		md := BuildReport(stats, logs, now)
		Expect(md).To(ContainSubstring("`/login` (2)"))
		Expect(md).To(ContainSubstring("| `/.env` | 1 |"))
		Expect(md).To(ContainSubstring("**Fallback responses in view:** 1 of 2"))
		Expect(md).To(ContainSubstring(`user=admin\|pass=x line2`))
		Expect(md).To(ContainSubstring("| 2024-03-01 12:00:00 |"))
	})

	It("truncates long cells", func() {
		long := strings.Repeat("A", 200)
		md := BuildReport(&storage.Stats{TotalAttacks: 1}, []*storage.AttackLog{attack("a", "/x", "success", now, &long)}, now)
		Expect(md).To(ContainSubstring(strings.Repeat("A", cellWidth) + "..."))
		Expect(md).NotTo(ContainSubstring(strings.Repeat("A", cellWidth+1)))
	})
})

var _ = Describe("report run", func() {
	It("reads attacks from SQLite and prints plain markdown", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "honeypot.db")

		driver, err := sqlite.NewSQLiteDriver(ctx, dbPath)
		Expect(err).NotTo(HaveOccurred())
		base := time.Now().UTC().Add(-time.Hour)
		Expect(driver.Put(ctx, attack("a", "/wp-login.php", "success", base, nil))).To(Succeed())
		Expect(driver.Put(ctx, attack("b", "/wp-login.php", "success", base.Add(time.Second), nil))).To(Succeed())
		Expect(driver.Close()).To(Succeed())

		v := viper.New()
		v.Set("storage.sqlite_path", dbPath)

		var out bytes.Buffer
		cmder := &reportCommander{limit: 10, top: 5, plain: true, logger: logger.Nop()}
		Expect(cmder.run(ctx, v, &out)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("**Total attacks:** 2"))
		Expect(out.String()).To(ContainSubstring("`/wp-login.php` (2)"))
	})

	It("rejects non-positive limits", func() {
		cmder := &reportCommander{limit: 0, top: 5, logger: logger.Nop()}
		Expect(cmder.run(context.Background(), viper.New(), &bytes.Buffer{})).To(HaveOccurred())
	})
})
