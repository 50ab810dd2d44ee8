// +build debug

// Gomega should not be a dependency in non-debug builds.

package cache

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(GomegaFailHandler)
	return
}()

func GomegaFailHandler(message string, callerSkip ...int) {
	skip := callerSkip[0] + 1
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

// checkInvariants verifies pos and order agree: every list element has
// a pos entry pointing back at it, and vice versa. Only run in debug
// builds, since it walks the whole index.
func (r *recencyIndex) checkInvariants() {
	ExpectWithOffset(1, len(r.pos)).To(Equal(r.order.Len()))
	for k, e := range r.pos {
		ExpectWithOffset(1, e.Value.(string)).To(Equal(k))
	}
}

func (e *evictSet) checkInvariants() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.keys {
		ExpectWithOffset(1, k).NotTo(BeEmpty())
	}
}
