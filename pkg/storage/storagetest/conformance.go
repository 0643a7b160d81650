// Package storagetest holds the behavior every storage.Driver must share,
// run by each driver's test suite.
package storagetest

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/storage"
)

var base = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

// NewLog returns a log for endpoint offset seconds after a fixed instant.
func NewLog(id, endpoint string, offset int) *storage.AttackLog {
	payload := fmt.Sprintf(`{"probe":%q}`, id)
	return &storage.AttackLog{
		ID:             id,
		Timestamp:      base.Add(time.Duration(offset) * time.Second),
		IPAddress:      "203.0.113.7",
		RequestMethod:  "POST",
		Endpoint:       endpoint,
		PayloadData:    &payload,
		AIResponseSent: `{"status":"ok"}`,
		UserAgent:      "sqlmap/1.7",
		Outcome:        "success",
	}
}

// DescribeDriver registers the shared driver specs. newDriver is called
// before each spec and must return an empty store.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
		DeferCleanup(driver.Close)
	})

	Describe("Put and Get", func() {
		It("round-trips every field", func() {
			log := NewLog("a1", "/admin/login", 0)
			Expect(driver.Put(ctx, log)).To(Succeed())

			got, err := driver.Get(ctx, "a1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Timestamp.Equal(log.Timestamp)).To(BeTrue())
			got.Timestamp = log.Timestamp
			Expect(got).To(Equal(log))
		})

		It("keeps an absent payload absent", func() {
			log := NewLog("a2", "/", 0)
			log.PayloadData = nil
			Expect(driver.Put(ctx, log)).To(Succeed())

			got, err := driver.Get(ctx, "a2")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PayloadData).To(BeNil())
		})

		It("keeps an empty payload empty", func() {
			log := NewLog("a3", "/", 0)
			empty := ""
			log.PayloadData = &empty
			Expect(driver.Put(ctx, log)).To(Succeed())

			got, err := driver.Get(ctx, "a3")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PayloadData).NotTo(BeNil())
			Expect(*got.PayloadData).To(BeEmpty())
		})

		It("ignores a duplicate ID", func() {
			Expect(driver.Put(ctx, NewLog("dup", "/first", 0))).To(Succeed())
			Expect(driver.Put(ctx, NewLog("dup", "/second", 1))).To(Succeed())

			got, err := driver.Get(ctx, "dup")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Endpoint).To(Equal("/first"))
		})

		It("rejects a log without an ID", func() {
			Expect(driver.Put(ctx, NewLog("", "/", 0))).To(MatchError(storage.ErrMissingID))
		})

		It("returns NotFoundError for a missing ID", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(err).To(MatchError(storage.NotFoundError{ID: "missing"}))
		})
	})

	Describe("Recent", func() {
		It("returns logs newest first up to the limit", func() {
			for i := range 5 {
				Expect(driver.Put(ctx, NewLog(fmt.Sprintf("r%d", i), "/x", i))).To(Succeed())
			}

			logs, err := driver.Recent(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(3))
			Expect(logs[0].ID).To(Equal("r4"))
			Expect(logs[1].ID).To(Equal("r3"))
			Expect(logs[2].ID).To(Equal("r2"))
		})

		It("returns nothing for an empty store", func() {
			logs, err := driver.Recent(ctx, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(BeEmpty())
		})
	})

	Describe("Stats", func() {
		It("reports N/A for an empty store", func() {
			stats, err := driver.Stats(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAttacks).To(BeZero())

			endpoint, count := stats.MostAttacked()
			Expect(endpoint).To(Equal(storage.NoEndpoint))
			Expect(count).To(BeZero())
		})

		It("counts totals and ranks endpoints", func() {
			endpoints := []string{"/wp-login.php", "/.env", "/wp-login.php", "/admin", "/.env", "/wp-login.php"}
			for i, e := range endpoints {
				Expect(driver.Put(ctx, NewLog(fmt.Sprintf("s%d", i), e, i))).To(Succeed())
			}

			stats, err := driver.Stats(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAttacks).To(Equal(6))
			Expect(stats.TopEndpoints).To(Equal([]storage.EndpointCount{
				{Endpoint: "/wp-login.php", Count: 3},
				{Endpoint: "/.env", Count: 2},
			}))

			endpoint, count := stats.MostAttacked()
			Expect(endpoint).To(Equal("/wp-login.php"))
			Expect(count).To(Equal(3))
		})

		It("breaks count ties by endpoint name", func() {
			Expect(driver.Put(ctx, NewLog("t1", "/b", 0))).To(Succeed())
			Expect(driver.Put(ctx, NewLog("t2", "/a", 1))).To(Succeed())

			stats, err := driver.Stats(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TopEndpoints[0].Endpoint).To(Equal("/a"))
		})
	})
}
