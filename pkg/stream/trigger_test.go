package stream_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

var _ = Describe("Trigger", func() {
	It("runs the task once no matter how often it is fired", func() {
		var runs atomic.Int32
		t := stream.NewTrigger(time.Millisecond, func(context.Context) { runs.Add(1) })

		Expect(t.Fire()).To(BeTrue())
		Expect(t.Fire()).To(BeFalse())
		Expect(t.Fire()).To(BeFalse())

		Eventually(t.Done()).Should(BeClosed())
		Expect(runs.Load()).To(Equal(int32(1)))
		Expect(t.Fired()).To(BeTrue())
	})

	It("defers the task by the configured delay", func() {
		ran := make(chan time.Time, 1)
		start := time.Now()
		t := stream.NewTrigger(40*time.Millisecond, func(context.Context) { ran <- time.Now() })
		t.Fire()

		var at time.Time
		Eventually(ran).Should(Receive(&at))
		Expect(at.Sub(start)).To(BeNumerically(">=", 40*time.Millisecond))
	})

	It("never runs once canceled before the delay elapses", func() {
		var runs atomic.Int32
		t := stream.NewTrigger(50*time.Millisecond, func(context.Context) { runs.Add(1) })
		t.Fire()
		t.Cancel()

		Expect(t.Done()).To(BeClosed())
		Consistently(runs.Load, 100*time.Millisecond).Should(BeZero())
	})

	It("cannot be armed after Cancel", func() {
		t := stream.NewTrigger(time.Millisecond, func(context.Context) {})
		t.Cancel()
		Expect(t.Fire()).To(BeFalse())
		Expect(t.Done()).To(BeClosed())
	})

	It("cancels the context of a running task", func() {
		started := make(chan struct{})
		stopped := make(chan error, 1)
		t := stream.NewTrigger(time.Millisecond, func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			stopped <- ctx.Err()
		})
		t.Fire()
		Eventually(started).Should(BeClosed())

		t.Cancel()
		Eventually(stopped).Should(Receive(MatchError(context.Canceled)))
		Eventually(t.Done()).Should(BeClosed())
	})
})
