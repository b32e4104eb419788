package stream_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx       context.Context
		sink      *recordingSink
		session   *tracker
		refreshes atomic.Int32
		upgrades  []string
		signIns   []string
		trigger   *stream.Trigger
		d         *stream.Dispatcher
	)

	feed := func(raw string) {
		err := stream.ReadFrames(ctx, strings.NewReader(raw), stream.NewDecoder(0), func(f stream.Frame) bool {
			return d.Dispatch(ctx, f)
		})
		Expect(err).NotTo(HaveOccurred())
		d.EndOfStream(ctx)
	}

	BeforeEach(func() {
		ctx = context.Background()
		sink = &recordingSink{}
		session = &tracker{}
		refreshes.Store(0)
		upgrades, signIns = nil, nil
		trigger = stream.NewTrigger(5*time.Millisecond, func(context.Context) { refreshes.Add(1) })
		prompter := stream.PrompterFuncs{
			UpgradeFunc: func(m string) { upgrades = append(upgrades, m) },
			SignInFunc:  func(m string) { signIns = append(signIns, m) },
		}
		d = stream.NewDispatcher(sink, session, prompter, trigger)
	})

	AfterEach(func() {
		trigger.Cancel()
	})

	It("starts awaiting the first frame", func() {
		Expect(d.State()).To(Equal(stream.StateAwaitingFirstFrame))
		Expect(d.ID()).NotTo(BeEmpty())
	})

	It("accumulates content and re-renders the whole buffer on every delta", func() {
		feed(lines(
			`{"type":"metadata","conversation_id":"abc"}`,
			`{"type":"content","text":"Hi"}`,
			`{"type":"content","text":" there"}`,
			`{"type":"done"}`,
		))
		Expect(sink.renders).To(Equal([]string{"Hi", "Hi there"}))
		Expect(sink.completed).To(BeTrue())
		Expect(session.ConversationID()).To(Equal("abc"))
		Expect(d.State()).To(Equal(stream.StateTerminated))
	})

	It("lets the last metadata frame win", func() {
		feed(lines(
			`{"type":"metadata","conversation_id":"first"}`,
			`{"type":"metadata","conversation_id":"second"}`,
			`{"type":"done"}`,
		))
		Expect(session.ConversationID()).To(Equal("second"))
	})

	It("deduplicates sources by URL across reasoning frames in first-seen order", func() {
		feed(lines(
			`{"type":"reasoning","content":"search 1","sources":["https://a.example",{"url":"https://b.example","title":"B"}]}`,
			`{"type":"reasoning","content":"search 2","sources":[{"url":"https://a.example","title":"A again"},"https://c.example"]}`,
			`{"type":"reasoning","content":"thinking"}`,
			`{"type":"done"}`,
		))
		Expect(sink.steps).To(HaveLen(3))
		urls := []string{}
		for _, s := range d.Sources() {
			urls = append(urls, s.URL)
		}
		Expect(urls).To(Equal([]string{"https://a.example", "https://b.example", "https://c.example"}))
		Expect(d.Sources()[0].Title).To(BeEmpty())
		Expect(sink.sources).To(Equal(d.Sources()))
	})

	Describe("conversation list refresh", func() {
		It("fires once on done when no reasoning frame arrived", func() {
			feed(lines(
				`{"type":"metadata","conversation_id":"abc"}`,
				`{"type":"content","text":"answer"}`,
				`{"type":"done"}`,
			))
			Eventually(trigger.Done()).Should(BeClosed())
			Expect(refreshes.Load()).To(Equal(int32(1)))
		})

		It("fires once across many reasoning frames", func() {
			session.id = "existing"
			feed(lines(
				`{"type":"reasoning","content":"one"}`,
				`{"type":"reasoning","content":"two"}`,
				`{"type":"reasoning","content":"three"}`,
				`{"type":"content","text":"answer"}`,
				`{"type":"done"}`,
			))
			Eventually(trigger.Done()).Should(BeClosed())
			Consistently(refreshes.Load, 30*time.Millisecond).Should(Equal(int32(1)))
		})

		It("arms on the first reasoning frame when an id is already known", func() {
			session.id = "existing"
			d.Dispatch(ctx, stream.Frame{Type: stream.FrameReasoning, Content: "searching"})
			Expect(trigger.Fired()).To(BeTrue())
		})

		It("waits for the id when reasoning precedes metadata", func() {
			d.Dispatch(ctx, stream.Frame{Type: stream.FrameReasoning, Content: "File Processing"})
			Expect(trigger.Fired()).To(BeFalse())
			d.Dispatch(ctx, stream.Frame{Type: stream.FrameMetadata, ConversationID: "abc"})
			d.Dispatch(ctx, stream.Frame{Type: stream.FrameDone})
			Expect(trigger.Fired()).To(BeTrue())
		})

		It("falls back to end of stream when done never arrives", func() {
			feed(lines(
				`{"type":"metadata","conversation_id":"abc"}`,
				`{"type":"content","text":"cut short"}`,
			))
			Expect(sink.completed).To(BeTrue())
			Eventually(trigger.Done()).Should(BeClosed())
			Expect(refreshes.Load()).To(Equal(int32(1)))
		})

		It("fires once from end of stream after an error frame", func() {
			feed(lines(
				`{"type":"metadata","conversation_id":"abc"}`,
				`{"type":"error","message":"boom"}`,
			))
			Expect(sink.failed).To(Equal("boom"))
			Eventually(trigger.Done()).Should(BeClosed())
			Consistently(refreshes.Load, 30*time.Millisecond).Should(Equal(int32(1)))
		})

		It("never fires without a conversation id", func() {
			feed(lines(`{"type":"content","text":"anon"}`, `{"type":"done"}`))
			Expect(trigger.Fired()).To(BeFalse())
		})
	})

	Describe("error frames", func() {
		It("opens the upgrade prompt for a signed-in user over quota", func() {
			feed(lines(`{"type":"error","message":"Out of credits","limit_reached":true,"user_limit":true}`, `{"type":"done"}`))
			Expect(upgrades).To(Equal([]string{"Out of credits"}))
			Expect(signIns).To(BeEmpty())
			Expect(sink.abandoned).To(BeTrue())
			Expect(sink.failed).To(BeEmpty())
		})

		It("opens the sign-in prompt for an anonymous user over quota", func() {
			feed(lines(`{"type":"error","message":"Daily message limit reached for anonymous users","limit_reached":true,"remaining":0}`, `{"type":"done"}`))
			Expect(signIns).To(HaveLen(1))
			Expect(upgrades).To(BeEmpty())
			Expect(sink.abandoned).To(BeTrue())
		})

		It("shows other errors inline and ignores the trailing done", func() {
			feed(lines(`{"type":"content","text":"partial"}`, `{"type":"error","message":"model overloaded"}`, `{"type":"done"}`))
			Expect(sink.failed).To(Equal("model overloaded"))
			Expect(sink.completed).To(BeFalse())
			Expect(upgrades).To(BeEmpty())
			Expect(signIns).To(BeEmpty())
			Expect(d.ErrorMessage()).To(Equal("model overloaded"))
		})
	})

	It("ignores frames after termination", func() {
		Expect(d.Dispatch(ctx, stream.Frame{Type: stream.FrameDone})).To(BeFalse())
		Expect(d.Dispatch(ctx, stream.Frame{Type: stream.FrameContent, Text: "late"})).To(BeFalse())
		Expect(sink.renders).To(BeEmpty())
	})

	It("ignores unknown frame types", func() {
		Expect(d.Dispatch(ctx, stream.Frame{Type: "transformed_query"})).To(BeTrue())
		Expect(d.State()).To(Equal(stream.StateAwaitingFirstFrame))
	})

	Describe("transport failure", func() {
		It("shows a connection error", func() {
			d.TransportFailed(errors.New("dial tcp: connection refused"))
			Expect(sink.failed).To(ContainSubstring("Connection error"))
			Expect(d.State()).To(Equal(stream.StateTerminated))
		})

		It("reports a user cancel as stopped", func() {
			d.TransportFailed(context.Canceled)
			Expect(sink.failed).To(Equal("Response stopped."))
		})

		It("shows the backend detail for rejected requests", func() {
			d.TransportFailed(&api.APIError{StatusCode: 422, Detail: "content is required"})
			Expect(sink.failed).To(Equal("content is required"))
		})

		It("does nothing once terminated", func() {
			d.Dispatch(ctx, stream.Frame{Type: stream.FrameDone})
			d.TransportFailed(errors.New("late"))
			Expect(sink.failed).To(BeEmpty())
		})
	})
})
