package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chameleon/pkg/eventstream"
	"github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/storage/inmemory"
)

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.AttackRecordedEvent
	err    error
}

func (r *recordingPublisher) PublishAttack(_ context.Context, event *eventstream.AttackRecordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.AttackRecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.AttackRecordedEvent(nil), r.events...)
}

// blockingDriver holds every Put until release is closed.
type blockingDriver struct {
	*inmemory.Driver
	release chan struct{}
}

func (b *blockingDriver) Put(ctx context.Context, log *storage.AttackLog) error {
	<-b.release
	return b.Driver.Put(ctx, log)
}

// failingDriver rejects every Put.
type failingDriver struct {
	*inmemory.Driver
}

func (f *failingDriver) Put(context.Context, *storage.AttackLog) error {
	return errors.New("disk full")
}

func newJob(id, endpoint string) Job {
	return Job{
		Log: storage.AttackLog{
			ID:             id,
			Timestamp:      time.Now().UTC(),
			IPAddress:      "203.0.113.9",
			RequestMethod:  "GET",
			Endpoint:       endpoint,
			AIResponseSent: `{"status":"ok"}`,
			UserAgent:      "curl/8.0",
			Outcome:        "success",
		},
		Meta: eventstream.SynthMeta{Provider: "mock", Outcome: "success", DurationMs: 12},
	}
}

var _ = Describe("Worker Pool", func() {
	var (
		driver    *inmemory.Driver
		publisher *recordingPublisher
		ctx       context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		publisher = &recordingPublisher{}
		ctx = context.Background()
	})

	It("requires a storage driver", func() {
		_, err := NewPool(&Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("applies default sizing", func() {
		cfg := &Config{Driver: driver}
		wp, err := NewPool(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer wp.Close()

		Expect(cfg.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(cfg.QueueSize).To(Equal(defaultJobQueueSize))
		Expect(cfg.JobTimeout).To(Equal(defaultJobTimeout))
	})

	Describe("Enqueue", func() {
		It("stores then publishes each job", func() {
			wp, err := NewPool(&Config{
				Driver:    driver,
				Publisher: publisher,
				Source:    eventstream.EventSource{Service: "chameleon", Listener: ":5000"},
				Logger:    logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(newJob("a", "/admin"))).To(BeTrue())
			Expect(wp.Enqueue(newJob("b", "/.env"))).To(BeTrue())
			wp.Close()

			stored, err := driver.Get(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Endpoint).To(Equal("/admin"))

			stats, err := driver.Stats(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAttacks).To(Equal(2))

			events := publisher.Events()
			Expect(events).To(HaveLen(2))
			for _, e := range events {
				Expect(e.EventType).To(Equal(eventstream.EventTypeAttackRecorded))
				Expect(e.Source.Listener).To(Equal(":5000"))
				Expect(e.SynthMeta.Provider).To(Equal("mock"))
			}
		})

		It("works without a publisher", func() {
			wp, err := NewPool(&Config{Driver: driver, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			Expect(wp.Enqueue(newJob("a", "/login"))).To(BeTrue())
			wp.Close()

			_, err = driver.Get(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
		})

		It("drops jobs when the queue is full", func() {
			blocking := &blockingDriver{Driver: driver, release: make(chan struct{})}
			var dropped []string
			wp, err := NewPool(&Config{
				Driver:     blocking,
				NumWorkers: 1,
				QueueSize:  1,
				OnDrop:     func(j Job) { dropped = append(dropped, j.Log.ID) },
				Logger:     logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			// The single worker takes the first job and blocks in Put.
			Expect(wp.Enqueue(newJob("a", "/a"))).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(Equal(0))

			Expect(wp.Enqueue(newJob("b", "/b"))).To(BeTrue())
			Expect(wp.Enqueue(newJob("c", "/c"))).To(BeFalse())
			Expect(dropped).To(Equal([]string{"c"}))

			close(blocking.release)
			wp.Close()

			stats, err := driver.Stats(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalAttacks).To(Equal(2))
		})
	})

	It("does not publish logs that failed to store", func() {
		wp, err := NewPool(&Config{
			Driver:    &failingDriver{Driver: driver},
			Publisher: publisher,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(newJob("a", "/a"))).To(BeTrue())
		wp.Close()

		Expect(publisher.Events()).To(BeEmpty())
	})

	It("keeps stored logs when publishing fails", func() {
		publisher.err = errors.New("broker down")
		wp, err := NewPool(&Config{Driver: driver, Publisher: publisher, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(newJob("a", "/a"))).To(BeTrue())
		wp.Close()

		_, err = driver.Get(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
	})

	It("tolerates repeated Close", func() {
		wp, err := NewPool(&Config{Driver: driver, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		wp.Close()
		Expect(wp.Close).NotTo(Panic())
	})
})
