package render_test

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/umeshrajanna/deepship-api/pkg/render"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func strip(s string) string { return ansi.ReplaceAllString(s, "") }

const answer = "# Install Go\n\n" +
	"Go ships as a **single archive**. See [the docs](https://go.dev/doc/install) or https://go.dev.\n\n" +
	"1. Download the archive\n2. Extract it to `/usr/local`\n3. Add it to `PATH`\n\n" +
	"```go\npackage main\n\nfunc main() { println(\"hi\") }\n```\n\n" +
	"| OS | Archive |\n|----|---------|\n| linux | tar.gz |\n| darwin | pkg |\n\n" +
	"> Verify with `go version`.\n\n" +
	"- [x] installed\n- [ ] configured\n"

var _ = Describe("Renderer", func() {
	var r *render.Renderer

	BeforeEach(func() {
		r = render.New(render.Options{Width: 100, CodeStyle: "monokai"})
	})

	It("renders nothing for blank input", func() {
		Expect(r.Render("")).To(BeEmpty())
		Expect(r.Render(" \n\n ")).To(BeEmpty())
	})

	It("gives the same output for incremental and one-shot renders", func() {
		oneShot := r.Render(answer)

		var buf strings.Builder
		var last string
		for _, delta := range strings.SplitAfter(answer, " ") {
			buf.WriteString(delta)
			last = r.Render(buf.String())
		}
		Expect(last).To(Equal(oneShot))
		Expect(r.Render(answer)).To(Equal(oneShot))
	})

	It("keeps the structure of the document", func() {
		out := strip(r.Render(answer))
		Expect(out).To(ContainSubstring("Install Go"))
		Expect(out).To(ContainSubstring("single archive"))
		Expect(out).To(ContainSubstring("the docs (https://go.dev/doc/install)"))
		Expect(out).To(ContainSubstring("1. Download the archive"))
		Expect(out).To(ContainSubstring("3. Add it to PATH"))
		Expect(out).To(ContainSubstring("go\n"))
		Expect(out).To(ContainSubstring("linux"))
		Expect(out).To(ContainSubstring("darwin"))
		Expect(out).To(ContainSubstring("│ Verify with go version."))
		Expect(out).To(ContainSubstring("• [x] installed"))
		Expect(out).To(ContainSubstring("• [ ] configured"))
	})

	It("highlights fenced code on every pass", func() {
		out := r.Render("```go\nfunc main() {}\n```")
		Expect(out).To(ContainSubstring("\x1b["))
		Expect(strip(out)).To(ContainSubstring("func main() {}"))
	})

	It("leaves code unhighlighted in plain mode", func() {
		plain := render.New(render.Options{Width: 60, Plain: true})
		out := plain.Render("```\nx := 1\n```")
		Expect(out).To(ContainSubstring("x := 1"))
	})

	It("wraps paragraphs to the configured width", func() {
		narrow := r.WithWidth(60)
		long := strings.Repeat("streaming responses render well ", 10)
		for _, line := range strings.Split(narrow.Render(long), "\n") {
			Expect(lipgloss.Width(line)).To(BeNumerically("<=", 60))
		}
	})

	It("clamps tiny widths", func() {
		Expect(render.New(render.Options{Width: 3}).Width()).To(Equal(20))
		Expect(r.WithWidth(80).Width()).To(Equal(80))
		Expect(r.Width()).To(Equal(100))
	})

	It("tolerates unterminated markdown mid-stream", func() {
		Expect(func() { r.Render("```python\nprint(") }).NotTo(Panic())
		Expect(func() { r.Render("| a | b |\n|---") }).NotTo(Panic())
		Expect(strip(r.Render("**bold"))).To(ContainSubstring("bold"))
	})
})
