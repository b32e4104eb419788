package stream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

var _ = Describe("Initiator", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts the multipart form and returns the NDJSON body", func() {
		var (
			auth, content, deep, lab, convID, fileName, fileType, fileBody string
		)
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/chat/send/stream"))
			Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())

			auth = r.Header.Get("Authorization")
			content = r.FormValue("content")
			deep = r.FormValue("deep_search")
			lab = r.FormValue("lab_mode")
			convID = r.FormValue("conversation_id")

			files := r.MultipartForm.File["files"]
			Expect(files).To(HaveLen(1))
			fileName = files[0].Filename
			fileType = files[0].Header.Get("Content-Type")
			f, err := files[0].Open()
			Expect(err).NotTo(HaveOccurred())
			b, _ := io.ReadAll(f)
			fileBody = string(b)

			w.Write([]byte(`{"type":"content","text":"ok"}` + "\n" + `{"type":"done"}` + "\n"))
		}

		att, err := stream.NewAttachment("notes.txt", []byte("hello file"), 0)
		Expect(err).NotTo(HaveOccurred())

		initiator := stream.NewInitiator(server.URL+"/", api.StaticToken("tok-1"))
		body, err := initiator.Open(ctx, stream.Request{
			Content:        "Hello",
			Mode:           chat.ModeLab,
			ConversationID: "abc",
			Attachments:    []stream.Attachment{att},
		})
		Expect(err).NotTo(HaveOccurred())
		defer body.Close()

		raw, err := io.ReadAll(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`"done"`))

		Expect(auth).To(Equal("Bearer tok-1"))
		Expect(content).To(Equal("Hello"))
		Expect(deep).To(Equal("false"))
		Expect(lab).To(Equal("true"))
		Expect(convID).To(Equal("abc"))
		Expect(fileName).To(Equal("notes.txt"))
		Expect(fileType).To(Equal("text/plain"))
		Expect(fileBody).To(Equal("hello file"))
	})

	It("omits the conversation id and auth header for a fresh anonymous chat", func() {
		var hasAuth, hasConv bool
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())
			_, hasConv = r.MultipartForm.Value["conversation_id"]
			hasAuth = r.Header.Get("Authorization") != ""
			w.Write([]byte(`{"type":"done"}` + "\n"))
		}

		body, err := stream.NewInitiator(server.URL, nil).Open(ctx, stream.Request{Content: "hi"})
		Expect(err).NotTo(HaveOccurred())
		body.Close()
		Expect(hasAuth).To(BeFalse())
		Expect(hasConv).To(BeFalse())
	})

	It("returns an APIError for a rejected request", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"detail":"content is required"}`))
		}

		_, err := stream.NewInitiator(server.URL, nil).Open(ctx, stream.Request{})
		var apiErr *api.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Detail).To(Equal("content is required"))
	})

	It("feeds a live response through a Sender end to end", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			for _, part := range []string{`{"type":"metadata","conv`, `ersation_id":"xyz"}` + "\n", `{"type":"content","text":"streamed"}` + "\n{\"type\":\"done\"}\n"} {
				w.Write([]byte(part))
				flusher.Flush()
			}
		}

		sess := &tracker{}
		list := &fakeList{}
		sender := stream.NewSender(stream.SenderOptions{
			Opener:  stream.NewInitiator(server.URL, nil),
			Session: sess,
		})
		_, err := sender.Send(ctx, list, "go", chat.ModeNormal)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.ConversationID()).To(Equal("xyz"))
		Expect(list.sinks[0].content()).To(Equal("streamed"))
	})
})
