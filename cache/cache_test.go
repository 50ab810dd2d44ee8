package cache

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/abkumar/batchmemcache/log"
	. "github.com/abkumar/batchmemcache/testutil"
)

var _ = Describe("Cache", func() {
	var (
		p testPool
		c Cache
	)
	BeforeEach(func() {
		resetTestKeys()
		p = newTestPool()
	})
	AfterEach(func() {
		c.Close()
	})

	NewCache := func(capacity int64, batchSize int) {
		c = New(log.NewLogger(log.DebugLevel, GinkgoWriter), p.Pool, Config{
			Capacity:  capacity,
			BatchSize: batchSize,
		})
	}

	Context("basic operations", func() {
		BeforeEach(func() { NewCache(100, 1) })

		It("misses an absent key", func() {
			Expect(c.Get([]byte("nope"))).To(BeEmpty())
		})

		It("gets what was put", func() {
			it := p.testItem()
			Expect(c.Put(it)).To(Succeed())
			views := c.Get([]byte(it.Key))
			Expect(views).To(HaveLen(1))
			ExpectViewOfItem(views[0], it)
		})

		It("overwrites", func() {
			it := p.testItem()
			overwrite := p.testItem()
			overwrite.Key = it.Key
			Expect(c.Put(it)).To(Succeed())
			Expect(c.Put(overwrite)).To(Succeed())
			views := c.Get([]byte(it.Key))
			Expect(views).To(HaveLen(1))
			ExpectViewOfItem(views[0], overwrite)
		})

		It("rejects an empty key", func() {
			var it Item
			it.Key = ""
			it.Data, _ = p.ReadData(Rand, 0)
			Expect(c.Put(it)).To(Equal(ErrInvalidKey))
		})

		It("fetches several keys at once, skipping misses", func() {
			a := p.testItem()
			b := p.testItem()
			Expect(c.Put(a)).To(Succeed())
			Expect(c.Put(b)).To(Succeed())
			views := c.Get([]byte(a.Key), []byte("absent"), []byte(b.Key))
			Expect(views).To(HaveLen(2))
		})

		Describe("delete", func() {
			It("reports not found for an absent key", func() {
				deleted, err := c.Delete([]byte("nope"))
				Expect(err).NotTo(HaveOccurred())
				Expect(deleted).To(BeFalse())
			})

			It("removes a present key", func() {
				it := p.testItem()
				Expect(c.Put(it)).To(Succeed())
				deleted, err := c.Delete([]byte(it.Key))
				Expect(err).NotTo(HaveOccurred())
				Expect(deleted).To(BeTrue())
				Expect(c.Get([]byte(it.Key))).To(BeEmpty())
			})

			It("rejects an empty key", func() {
				_, err := c.Delete(nil)
				Expect(err).To(Equal(ErrInvalidKey))
			})
		})

		It("tracks size as puts and deletes land", func() {
			Expect(c.Size()).To(Equal(0))
			it := p.testItem()
			Expect(c.Put(it)).To(Succeed())
			Expect(c.Size()).To(Equal(1))
			c.Delete([]byte(it.Key))
			Expect(c.Size()).To(Equal(0))
		})
	})

	Context("capacity enforcement", func() {
		const capacity = 4
		BeforeEach(func() { NewCache(capacity, 1) })

		It("settles to capacity once the background workers catch up", func() {
			for i := 0; i < 3*capacity; i++ {
				Expect(c.Put(p.testItem())).To(Succeed())
			}
			Eventually(c.Size, "2s", "10ms").Should(BeNumerically("<=", capacity))
		})

		It("keeps a key that is repeatedly accessed over one that is not", func() {
			hot := p.testItem()
			Expect(c.Put(hot)).To(Succeed())
			for i := 0; i < 10*capacity; i++ {
				c.Get([]byte(hot.Key))
				Expect(c.Put(p.testItem())).To(Succeed())
			}
			Eventually(c.Size, "2s", "10ms").Should(BeNumerically("<=", capacity))
			Expect(c.Get([]byte(hot.Key))).To(HaveLen(1))
		})
	})
})
