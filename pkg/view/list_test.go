package view_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/view"
)

var _ = Describe("MessageList", func() {
	var (
		renderer *render.Renderer
		list     *view.MessageList
	)

	BeforeEach(func() {
		renderer = render.New(render.Options{Width: 80, Plain: true})
		list = view.NewMessageList(renderer)
	})

	It("reports an in-progress entry until its sink is finalized", func() {
		Expect(list.HasInProgress()).To(BeFalse())

		list.AppendUser("Hello", nil)
		sink := list.AppendAssistant()
		Expect(list.HasInProgress()).To(BeTrue())

		sink.SetContent("Hi")
		sink.Complete()
		Expect(list.HasInProgress()).To(BeFalse())
		Expect(list.Len()).To(Equal(2))
	})

	It("renders the accumulated text exactly like a one-shot render", func() {
		sink := list.AppendAssistant()
		full := "Some **bold** text\n\n```go\nx := 1\n```\n"
		for i := 1; i <= len(full); i++ {
			sink.SetContent(full[:i])
		}
		sink.Complete()

		msg, ok := list.LastAssistant()
		Expect(ok).To(BeTrue())
		Expect(msg.Text()).To(Equal(full))
		Expect(msg.Rendered()).To(Equal(renderer.Render(full)))
	})

	It("ignores writes after the message is finalized", func() {
		sink := list.AppendAssistant()
		sink.SetContent("final")
		sink.Fail("Connection error")
		sink.SetContent("late")
		sink.AddReasoning(chat.ReasoningStep{Content: "late"})

		msg, _ := list.LastAssistant()
		Expect(msg.Status()).To(Equal(view.StatusFailed))
		Expect(msg.Text()).To(Equal("final"))
		Expect(msg.Steps()).To(BeEmpty())
		Expect(msg.View(80)).To(ContainSubstring("Connection error"))
	})

	It("removes an abandoned placeholder", func() {
		list.AppendUser("Hello", nil)
		sink := list.AppendAssistant()
		sink.Abandon()

		Expect(list.Len()).To(Equal(1))
		Expect(list.HasInProgress()).To(BeFalse())
		_, ok := list.LastAssistant()
		Expect(ok).To(BeFalse())
	})

	It("shows reasoning steps and numbered sources", func() {
		sink := list.AppendAssistant()
		sink.AddReasoning(chat.ReasoningStep{Step: "Sources Found", Content: "go release", FoundSources: 2})
		sink.SetSources([]chat.SourceRef{{URL: "https://go.dev", Title: "Go"}, {URL: "https://pkg.go.dev"}})
		sink.SetContent("Go 1.25 is out.")

		out := list.View(80)
		Expect(out).To(ContainSubstring("Reasoning"))
		Expect(out).To(ContainSubstring("Sources Found"))
		Expect(out).To(ContainSubstring("[1]"))
		Expect(out).To(ContainSubstring("https://pkg.go.dev"))
		Expect(out).To(ContainSubstring("Go 1.25 is out."))
	})

	It("shows a thinking placeholder before any content", func() {
		list.AppendAssistant()
		Expect(list.View(80)).To(ContainSubstring("Thinking"))
	})

	It("loads stored history with normalized fields", func() {
		var messages []api.StoredMessage
		raw := `[
			{"id":"m1","role":"user","content":"What is Go?","has_file":true},
			{"id":"m2","role":"assistant","content":"A language.",
			 "sources":"[[\"https://go.dev\"],[\"https://go.dev\",\"https://tour.golang.org\"]]",
			 "reasoning_steps":[{"step":"Search","content":"go language"}]}
		]`
		Expect(json.Unmarshal([]byte(raw), &messages)).To(Succeed())

		list.Load(messages)
		Expect(list.Len()).To(Equal(2))
		Expect(list.HasInProgress()).To(BeFalse())

		msg, ok := list.LastAssistant()
		Expect(ok).To(BeTrue())
		Expect(msg.ID()).To(Equal("m2"))
		Expect(msg.Sources()).To(HaveLen(2))
		Expect(msg.Steps()).To(HaveLen(1))
		Expect(list.View(80)).To(ContainSubstring("attachment"))
	})

	It("tracks follow and offset", func() {
		Expect(list.Follow()).To(BeTrue())
		list.SetOffset(12)
		Expect(list.Follow()).To(BeFalse())
		Expect(list.Offset()).To(Equal(12))
		list.SetFollow(true)
		Expect(list.Follow()).To(BeTrue())
		list.Clear()
		Expect(list.Len()).To(BeZero())
		Expect(list.Offset()).To(BeZero())
	})
})

var _ = Describe("Prompts", func() {
	It("opens one prompt at a time", func() {
		p := view.NewPrompts()
		p.ShowUpgrade("Out of credits")
		kind, msg := p.Active()
		Expect(kind).To(Equal(view.PromptUpgrade))
		Expect(msg).To(Equal("Out of credits"))
		Expect(p.View(60)).To(ContainSubstring("credits buy"))

		p.ShowSignIn("Daily limit")
		kind, _ = p.Active()
		Expect(kind).To(Equal(view.PromptSignIn))

		p.Dismiss()
		kind, _ = p.Active()
		Expect(kind).To(Equal(view.PromptNone))
		Expect(p.View(60)).To(BeEmpty())
	})
})
