package stream_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

var _ = Describe("Decoder", func() {
	input := lines(
		`{"type":"metadata","conversation_id":"abc","deep_search":true}`,
		`{"type":"reasoning","step":"Sources Found","content":"go news","sources":["https://a.example","https://b.example"]}`,
		`{"type":"content","text":"Hi"}`,
		`{"type":"content","text":" there"}`,
		`{"type":"done"}`,
	)

	decodeAll := func(chunks ...string) []stream.Frame {
		dec := stream.NewDecoder(0)
		var out []stream.Frame
		for _, c := range chunks {
			out = append(out, dec.Feed([]byte(c))...)
		}
		return append(out, dec.Flush()...)
	}

	It("decodes each line into a typed frame", func() {
		frames := decodeAll(input)
		Expect(frames).To(HaveLen(5))
		Expect(frames[0].Type).To(Equal(stream.FrameMetadata))
		Expect(frames[0].ConversationID).To(Equal("abc"))
		Expect(frames[0].DeepSearch).To(BeTrue())
		Expect(frames[1].Sources).To(HaveLen(2))
		Expect(frames[1].Sources[1].URL).To(Equal("https://b.example"))
		Expect(frames[2].Text).To(Equal("Hi"))
		Expect(frames[4].Terminal()).To(BeTrue())
	})

	It("decodes identically at every chunk split point", func() {
		want := decodeAll(input)
		for i := 1; i < len(input); i++ {
			Expect(decodeAll(input[:i], input[i:])).To(Equal(want), "split at %d", i)
		}
	})

	It("decodes identically when fed one byte at a time", func() {
		want := decodeAll(input)
		chunks := make([]string, 0, len(input))
		for _, b := range []byte(input) {
			chunks = append(chunks, string(b))
		}
		Expect(decodeAll(chunks...)).To(Equal(want))
	})

	It("skips empty lines and tolerates CRLF", func() {
		frames := decodeAll("\n\r\n" + `{"type":"content","text":"a"}` + "\r\n\n" + `{"type":"done"}` + "\r\n")
		Expect(frames).To(HaveLen(2))
		Expect(frames[0].Text).To(Equal("a"))
	})

	It("skips malformed lines and keeps going", func() {
		dec := stream.NewDecoder(0)
		frames := dec.Feed([]byte(lines(
			`{"type":"content","text":"A"}`,
			`not-json`,
			`{"no_type":true}`,
			`{"type":"content","text":"B"}`,
		)))
		Expect(frames).To(HaveLen(2))
		Expect(frames[0].Text + frames[1].Text).To(Equal("AB"))
		Expect(dec.Malformed()).To(Equal(2))
	})

	It("decodes a final line that has no newline at EOF", func() {
		dec := stream.NewDecoder(0)
		Expect(dec.Feed([]byte(`{"type":"done"}`))).To(BeEmpty())
		frames := dec.Flush()
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Type).To(Equal(stream.FrameDone))
	})

	It("drops an overlong line without losing the next one", func() {
		dec := stream.NewDecoder(64)
		long := `{"type":"content","text":"` + strings.Repeat("x", 200) + `"}`
		frames := dec.Feed([]byte(long[:40]))
		frames = append(frames, dec.Feed([]byte(long[40:]+"\n"+`{"type":"done"}`+"\n"))...)
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Type).To(Equal(stream.FrameDone))
		Expect(dec.Overlong()).To(Equal(1))
	})

	It("keeps unknown frame types for the dispatcher to ignore", func() {
		frames := decodeAll(`{"type":"transformed_query","query":"q"}` + "\n")
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Known()).To(BeFalse())
	})
})

var _ = Describe("ReadFrames", func() {
	ctx := context.Background()
	body := lines(`{"type":"content","text":"Hi"}`, `{"type":"content","text":" there"}`, `{"type":"done"}`)

	It("delivers frames in order from a fragmented reader", func() {
		var texts []string
		err := stream.ReadFrames(ctx, iotest.OneByteReader(strings.NewReader(body)), stream.NewDecoder(0), func(f stream.Frame) bool {
			texts = append(texts, string(f.Type)+":"+f.Text)
			return true
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(texts).To(Equal([]string{"content:Hi", "content: there", "done:"}))
	})

	It("stops when the callback returns false", func() {
		count := 0
		err := stream.ReadFrames(ctx, strings.NewReader(body), stream.NewDecoder(0), func(f stream.Frame) bool {
			count++
			return false
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("wraps read failures", func() {
		boom := errors.New("connection reset")
		r := io.MultiReader(strings.NewReader(`{"type":"content","text":"partial"}`+"\n"), iotest.ErrReader(boom))
		err := stream.ReadFrames(ctx, r, stream.NewDecoder(0), func(stream.Frame) bool { return true })
		Expect(err).To(MatchError(ContainSubstring("stream read failed")))
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("returns the context error once canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := stream.ReadFrames(canceled, strings.NewReader(body), stream.NewDecoder(0), func(stream.Frame) bool { return true })
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
