package engine

import (
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("keyedMutex", func() {
	It("serializes work on the same key", func() {
		k := newKeyedMutex()
		var active, peak int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock("/p/1.20")
				defer unlock()
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				atomic.AddInt32(&active, -1)
			}()
		}
		wg.Wait()
		Expect(peak).To(Equal(int32(1)))
	})

	It("does not block distinct keys", func() {
		k := newKeyedMutex()
		unlock := k.Lock("a")
		defer unlock()
		done := make(chan struct{})
		go func() {
			k.Lock("b")()
			close(done)
		}()
		Eventually(done).Should(BeClosed())
	})

	It("drops entries once released", func() {
		k := newKeyedMutex()
		k.Lock("a")()
		Expect(k.locks).To(BeEmpty())
	})
})
