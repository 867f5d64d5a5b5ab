package locktech_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-xlan/dlm-go-suo/clockid"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/locktech"
	"github.com/go-xlan/dlm-go-suo/storeadapter/memstore"
)

var _ = Describe("Acquire/Refresh/Release", func() {
	var (
		ctx    context.Context
		store  *memstore.Store
		clock  clockid.Clock
		hostA  clockid.HostIdentity
		hostB  clockid.HostIdentity
		params locktech.Params
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memstore.New()
		clock = clockid.NewSystemClock()
		hostA = clockid.NewStaticHostIdentity("host-a")
		hostB = clockid.NewStaticHostIdentity("host-b")
		params = locktech.Params{
			Lease:         100 * time.Millisecond,
			RefreshPeriod: 20 * time.Millisecond,
			RetryInterval: 30 * time.Millisecond,
		}
	})

	It("acquires and releases uncontended, leaving no trace behind", func() {
		version, err := locktech.Acquire(ctx, store, clock, hostA, "alpha", params)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).NotTo(BeEmpty())

		record, err := store.Get(ctx, "alpha")
		Expect(err).NotTo(HaveOccurred())
		Expect(record).NotTo(BeNil())
		Expect(record.HostIdentifier).To(Equal("host-a"))

		Expect(locktech.Release(ctx, store, "alpha", version)).To(Succeed())

		record, err = store.Get(ctx, "alpha")
		Expect(err).NotTo(HaveOccurred())
		Expect(record).To(BeNil())
	})

	It("hands the lock to the second contender as soon as the first releases", func() {
		v1, err := locktech.Acquire(ctx, store, clock, hostA, "beta", params)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		wg.Add(1)
		var v2 string
		var acquireErr error
		go func() {
			defer wg.Done()
			v2, acquireErr = locktech.Acquire(ctx, store, clock, hostB, "beta", params)
		}()

		time.Sleep(10 * time.Millisecond)
		Expect(locktech.Release(ctx, store, "beta", v1)).To(Succeed())

		wg.Wait()
		Expect(acquireErr).NotTo(HaveOccurred())
		Expect(v2).NotTo(Equal(v1))
	})

	It("lets a second holder steal once the first holder's lease goes stale", func() {
		v1, err := locktech.Acquire(ctx, store, clock, hostA, "gamma", params)
		Expect(err).NotTo(HaveOccurred())

		v2, err := locktech.Acquire(ctx, store, clock, hostB, "gamma", params)
		Expect(err).NotTo(HaveOccurred())
		Expect(v2).NotTo(Equal(v1))

		outcome, _, err := locktech.Refresh(ctx, store, hostA, "gamma", v1, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(locktech.RefreshStolen))
	})

	It("rotates the version on a healthy refresh", func() {
		v1, err := locktech.Acquire(ctx, store, clock, hostA, "delta", params)
		Expect(err).NotTo(HaveOccurred())

		outcome, v2, err := locktech.Refresh(ctx, store, hostA, "delta", v1, params)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(locktech.RefreshOK))
		Expect(v2).NotTo(Equal(v1))

		record, err := store.Get(ctx, "delta")
		Expect(err).NotTo(HaveOccurred())
		Expect(record.VersionNumber).To(Equal(v2))
	})

	It("makes a second release a silent no-op", func() {
		version, err := locktech.Acquire(ctx, store, clock, hostA, "epsilon", params)
		Expect(err).NotTo(HaveOccurred())

		Expect(locktech.Release(ctx, store, "epsilon", version)).To(Succeed())
		Expect(locktech.Release(ctx, store, "epsilon", version)).To(Succeed())
	})

	It("fails with AcquireTimeout when the lock stays continuously live", func() {
		_, err := locktech.Acquire(ctx, store, clock, hostA, "zeta", params)
		Expect(err).NotTo(HaveOccurred())

		stop := make(chan struct{})
		defer close(stop)
		go func() {
			version := ""
			for {
				select {
				case <-stop:
					return
				default:
				}
				record, _ := store.Get(ctx, "zeta")
				if record != nil {
					version = record.VersionNumber
				}
				_, v, err := locktech.Refresh(ctx, store, hostA, "zeta", version, params)
				if err == nil {
					version = v
				}
				time.Sleep(15 * time.Millisecond)
			}
		}()

		contenderParams := params
		contenderParams.AcquireTimeout = 80 * time.Millisecond

		start := time.Now()
		_, err = locktech.Acquire(ctx, store, clock, hostB, "zeta", contenderParams)
		Expect(time.Since(start)).To(BeNumerically(">=", contenderParams.AcquireTimeout))

		var timeoutErr *dlmerrors.AcquireTimeoutError
		Expect(err).To(BeAssignableToTypeOf(timeoutErr))
	})
})
