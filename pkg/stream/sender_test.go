package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/session"
	"github.com/umeshrajanna/deepship-api/pkg/store"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

var _ = Describe("Sender", func() {
	var (
		ctx       context.Context
		sess      *session.Context
		list      *fakeList
		opener    *fakeOpener
		queue     *stream.AttachmentQueue
		warnings  []string
		refreshed chan string
		sender    *stream.Sender
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		sess, err = session.Load(ctx, store.NewMemory())
		Expect(err).NotTo(HaveOccurred())

		list = &fakeList{}
		opener = &fakeOpener{list: list}
		queue = stream.NewAttachmentQueue(5)
		warnings = nil
		refreshed = make(chan string, 4)

		sender = stream.NewSender(stream.SenderOptions{
			Opener:      opener,
			Session:     sess,
			Notifier:    stream.NotifierFunc(func(m string) { warnings = append(warnings, m) }),
			Attachments: queue,
			Refresh: func(_ context.Context, id string) {
				refreshed <- id
			},
			RefreshDelay: 5 * time.Millisecond,
		})
	})

	AfterEach(func() {
		sender.Close()
	})

	It("streams Hello into a placeholder and records the conversation id", func() {
		opener.body = strings.NewReader(lines(
			`{"type":"metadata","conversation_id":"abc"}`,
			`{"type":"content","text":"Hi"}`,
			`{"type":"content","text":" there"}`,
			`{"type":"done"}`,
		))

		d, err := sender.Send(ctx, list, "Hello", chat.ModeNormal)
		Expect(err).NotTo(HaveOccurred())

		Expect(opener.placeholdersAtOpen).To(Equal(1))
		Expect(opener.last.Content).To(Equal("Hello"))
		Expect(opener.last.Mode).To(Equal(chat.ModeNormal))
		Expect(opener.last.ConversationID).To(BeEmpty())
		Expect(opener.last.Attachments).To(BeEmpty())

		Expect(list.users).To(Equal([]string{"Hello"}))
		Expect(list.sinks).To(HaveLen(1))
		Expect(list.sinks[0].content()).To(Equal("Hi there"))
		Expect(list.sinks[0].completed).To(BeTrue())
		Expect(d.Text()).To(Equal("Hi there"))
		Expect(sess.ConversationID()).To(Equal("abc"))

		Eventually(refreshed).Should(Receive(Equal("abc")))
		Consistently(refreshed, 30*time.Millisecond).ShouldNot(Receive())
	})

	It("sends the known conversation id with the next message", func() {
		Expect(sess.SetConversationID(ctx, "abc")).To(Succeed())
		opener.body = strings.NewReader(lines(`{"type":"done"}`))

		_, err := sender.Send(ctx, list, "again", chat.ModeDeep)
		Expect(err).NotTo(HaveOccurred())
		Expect(opener.last.ConversationID).To(Equal("abc"))
		Expect(opener.last.Mode.DeepSearch()).To(BeTrue())
	})

	It("applies valid frames around a malformed line without an error", func() {
		opener.body = strings.NewReader(lines(
			`{"type":"content","text":"A"}`,
			`not-json`,
			`{"type":"content","text":"B"}`,
			`{"type":"done"}`,
		))

		_, err := sender.Send(ctx, list, "x", chat.ModeNormal)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.sinks[0].content()).To(Equal("AB"))
		Expect(list.sinks[0].failed).To(BeEmpty())
		Expect(warnings).To(BeEmpty())
	})

	It("rejects a second send while a stream is open", func() {
		inFlight := list.AppendAssistant()
		inFlight.SetContent("still going")

		d, err := sender.Send(ctx, list, "Hello again", chat.ModeNormal)
		Expect(errors.Is(err, stream.ErrStreamActive)).To(BeTrue())
		Expect(d).To(BeNil())
		Expect(opener.calls).To(BeZero())
		Expect(warnings).To(HaveLen(1))
		Expect(list.users).To(BeEmpty())
		Expect(list.sinks).To(HaveLen(1))
		Expect(list.sinks[0].content()).To(Equal("still going"))
		Expect(list.sinks[0].finished()).To(BeFalse())
	})

	It("refuses an empty message", func() {
		_, err := sender.Send(ctx, list, "   ", chat.ModeNormal)
		Expect(errors.Is(err, stream.ErrEmptyMessage)).To(BeTrue())
		Expect(opener.calls).To(BeZero())
	})

	Describe("attachments", func() {
		BeforeEach(func() {
			a, err := stream.NewAttachment("data.csv", []byte("a,b\n1,2\n"), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(queue.Add(a)).To(Succeed())
		})

		It("clears the queue when the send starts", func() {
			opener.body = strings.NewReader(lines(`{"type":"done"}`))
			_, err := sender.Send(ctx, list, "summarize", chat.ModeNormal)
			Expect(err).NotTo(HaveOccurred())
			Expect(opener.last.Attachments).To(HaveLen(1))
			Expect(list.files[0]).To(Equal([]string{"data.csv"}))
			Expect(queue.Len()).To(BeZero())
		})

		It("restores them when the request cannot be made", func() {
			opener.err = errors.New("dial tcp: connection refused")
			_, err := sender.Send(ctx, list, "summarize", chat.ModeNormal)
			Expect(err).To(HaveOccurred())
			Expect(list.sinks[0].failed).To(ContainSubstring("Connection error"))
			Expect(queue.Names()).To(Equal([]string{"data.csv"}))
		})

		It("restores them when the read fails mid-stream", func() {
			opener.body = io.MultiReader(
				strings.NewReader(lines(`{"type":"content","text":"half"}`)),
				iotest.ErrReader(errors.New("connection reset")),
			)
			_, err := sender.Send(ctx, list, "summarize", chat.ModeNormal)
			Expect(err).To(HaveOccurred())
			Expect(list.sinks[0].failed).To(ContainSubstring("Connection error"))
			Expect(queue.Len()).To(Equal(1))
		})
	})

	It("cancels the previous stream's pending refresh on a new send", func() {
		var runs atomic.Int32
		slow := stream.NewSender(stream.SenderOptions{
			Opener:       opener,
			Session:      sess,
			Refresh:      func(context.Context, string) { runs.Add(1) },
			RefreshDelay: 200 * time.Millisecond,
		})
		defer slow.Close()

		opener.body = strings.NewReader(lines(`{"type":"metadata","conversation_id":"abc"}`, `{"type":"done"}`))
		_, err := slow.Send(ctx, list, "one", chat.ModeNormal)
		Expect(err).NotTo(HaveOccurred())

		opener.body = strings.NewReader(lines(`{"type":"content","text":"two"}`))
		_, err = slow.Send(ctx, list, "two", chat.ModeNormal)
		Expect(err).NotTo(HaveOccurred())

		slow.Close()
		Consistently(runs.Load, 300*time.Millisecond).Should(BeZero())
	})
})
