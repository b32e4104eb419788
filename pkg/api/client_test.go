package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/umeshrajanna/deepship-api/pkg/api"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		mux      *http.ServeMux
		client   *api.Client
		lastAuth string
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		lastAuth = ""
		mux = http.NewServeMux()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastAuth = r.Header.Get("Authorization")
			mux.ServeHTTP(w, r)
		}))
		client = api.NewClient(server.URL+"/", api.StaticToken("tok-123"))
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("error handling", func() {
		It("surfaces the FastAPI detail message", func() {
			mux.HandleFunc("/conversations", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Invalid token"}`))
			})

			_, err := client.ListConversations(ctx)
			Expect(err).To(HaveOccurred())

			var apiErr *api.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(apiErr.Detail).To(Equal("Invalid token"))
			Expect(api.IsStatus(err, http.StatusUnauthorized)).To(BeTrue())
		})

		It("refuses authenticated calls without a token", func() {
			anon := api.NewClient(server.URL, nil)
			_, err := anon.Credits(ctx)
			Expect(errors.Is(err, api.ErrUnauthenticated)).To(BeTrue())
		})
	})

	Describe("conversations", func() {
		It("lists conversations with a bearer token", func() {
			mux.HandleFunc("/conversations", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodGet))
				w.Write([]byte(`[
					{"id":"c1","title":"Rust vs Go","created_at":"2025-01-02T10:00:00.123456","updated_at":"2025-01-03T09:30:00+00:00","message_count":4}
				]`))
			})

			convs, err := client.ListConversations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(lastAuth).To(Equal("Bearer tok-123"))
			Expect(convs).To(HaveLen(1))
			Expect(convs[0].Title).To(Equal("Rust vs Go"))
			Expect(convs[0].UpdatedAt.Day()).To(Equal(3))
			Expect(convs[0].CreatedAt.Nanosecond()).To(Equal(123456000))
		})

		It("normalizes string-encoded and native message fields alike", func() {
			mux.HandleFunc("/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[
					{"id":"m1","role":"user","content":"hi","created_at":"2025-01-02T10:00:00","sources":null,"reasoning_steps":null,"assets":null,"app":null},
					{"id":"m2","role":"assistant","content":"hello","created_at":"2025-01-02T10:00:01",
					 "sources":"[[\"https://a.example\",\"https://b.example\"]]",
					 "reasoning_steps":[{"step":"Sources Found","content":"q","step_number":1,"sources":["https://a.example","https://c.example"]}],
					 "assets":"[{\"type\":\"chart\",\"title\":\"Sales\"}]",
					 "app":"<div>app</div>"}
				]`))
			})

			msgs, err := client.Messages(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))

			Expect(msgs[0].Sources.Valid).To(BeFalse())
			Expect(msgs[0].ReasoningSteps.Valid).To(BeFalse())

			m := msgs[1]
			Expect(m.Sources.Valid).To(BeTrue())
			Expect(m.Sources.Value).To(HaveLen(2))
			Expect(m.ReasoningSteps.Value).To(HaveLen(1))
			Expect(m.ReasoningSteps.Value[0].Title()).To(Equal("Sources Found"))
			Expect(m.Assets.Value[0].Kind()).To(Equal("chart"))
			Expect(string(m.App)).To(Equal("<div>app</div>"))

			urls := []string{}
			for _, s := range m.AllSources() {
				urls = append(urls, s.URL)
			}
			Expect(urls).To(Equal([]string{"https://a.example", "https://b.example", "https://c.example"}))
		})

		It("deletes a conversation", func() {
			deleted := false
			mux.HandleFunc("/conversations/c9", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodDelete))
				deleted = true
				w.Write([]byte(`{"message":"Conversation deleted"}`))
			})

			Expect(client.DeleteConversation(ctx, "c9")).To(Succeed())
			Expect(deleted).To(BeTrue())
		})
	})

	Describe("auth", func() {
		It("logs in with email and password", func() {
			mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body).To(HaveKeyWithValue("email", "ada@example.com"))
				w.Write([]byte(`{"access_token":"jwt","token_type":"bearer","user_id":"u1","username":"ada"}`))
			})

			resp, err := client.Login(ctx, "ada@example.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.AccessToken).To(Equal("jwt"))
			Expect(resp.Username).To(Equal("ada"))
		})

		It("reads credentials from the verify redirect without following it", func() {
			mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("token")).To(Equal("magic"))
				http.Redirect(w, r, "https://app.example/?oauth_success=true&token=jwt&user_id=u1&username=ada&email=ada%40example.com", http.StatusTemporaryRedirect)
			})

			creds, err := client.Verify(ctx, "magic")
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Token).To(Equal("jwt"))
			Expect(creds.Email).To(Equal("ada@example.com"))
		})

		It("maps an invalid link redirect to ErrInvalidLink", func() {
			mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "https://app.example/?error=invalid_link", http.StatusTemporaryRedirect)
			})

			_, err := client.Verify(ctx, "stale")
			Expect(errors.Is(err, api.ErrInvalidLink)).To(BeTrue())
		})

		It("requests a magic link", func() {
			mux.HandleFunc("/magic-link", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"message":"Magic link sent! Check your email.","email":"ada@example.com","expires_in_minutes":15}`))
			})

			resp, err := client.RequestMagicLink(ctx, "ada@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ExpiresInMinutes).To(Equal(15))
		})

		It("resolves the oauth url", func() {
			mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "https://accounts.example/auth?client_id=x", http.StatusTemporaryRedirect)
			})

			u, err := client.OAuthURL(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(HavePrefix("https://accounts.example/auth"))
		})
	})

	Describe("exports", func() {
		It("downloads with the server-provided filename", func() {
			mux.HandleFunc("/messages/abcdef123456/export/md", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/markdown")
				w.Header().Set("Content-Disposition", "attachment; filename=noir-ai-response-abcdef12.md")
				w.Write([]byte("# Answer"))
			})

			d, err := client.ExportMessage(ctx, "abcdef123456", api.ExportMarkdown)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Filename).To(Equal("noir-ai-response-abcdef12.md"))
			Expect(string(d.Body)).To(Equal("# Answer"))
		})

		It("falls back to a generated filename", func() {
			mux.HandleFunc("/messages/abcdef123456/pdf", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("%PDF-1.4"))
			})

			d, err := client.MessagePDF(ctx, "abcdef123456")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Filename).To(Equal("deepship-response-abcdef12.pdf"))
		})
	})

	Describe("use cases", func() {
		It("passes filters and decodes the list", func() {
			mux.HandleFunc("/use_cases", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("category")).To(Equal("coding"))
				Expect(r.URL.Query().Get("featured")).To(Equal("true"))
				Expect(r.Header.Get("Authorization")).To(BeEmpty())
				w.Write([]byte(`{"status":"success","count":1,"use_cases":[{"id":"uc1","title":"Refactor","category":"coding","tags":["go"],"featured":true,"view_count":7}]}`))
			})

			featured := true
			ucs, err := client.ListUseCases(ctx, api.UseCaseFilter{Category: "coding", Featured: &featured})
			Expect(err).NotTo(HaveOccurred())
			Expect(ucs).To(HaveLen(1))
			Expect(ucs[0].ViewCount).To(Equal(7))
		})

		It("loads a use case thread with string-encoded fields", func() {
			mux.HandleFunc("/use_cases/uc1/messages", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"success","use_case":{"id":"uc1","title":"Refactor"},"messages":[
					{"id":"p1","role":"assistant","content":"done","order":1,"sources":"[\"https://a.example\"]","reasoning_steps":"[{\"step\":\"Plan\",\"content\":\"think\"}]"}
				]}`))
			})

			thread, err := client.UseCaseMessages(ctx, "uc1")
			Expect(err).NotTo(HaveOccurred())
			Expect(thread.UseCase.Title).To(Equal("Refactor"))
			Expect(thread.Messages[0].Order).To(Equal(1))
			Expect(thread.Messages[0].Sources.Value[0].URL).To(Equal("https://a.example"))
			Expect(thread.Messages[0].ReasoningSteps.Value[0].Step).To(Equal("Plan"))
		})

		It("increments views", func() {
			mux.HandleFunc("/use_cases/uc1/increment-views", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				w.Write([]byte(`{"status":"success","use_case_id":"uc1","new_view_count":8}`))
			})

			n, err := client.IncrementUseCaseViews(ctx, "uc1")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(8))
		})
	})

	Describe("payments", func() {
		It("orders packages by price", func() {
			mux.HandleFunc("/payment/packages", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"currency":"USD","packages":{
					"pro":{"name":"Pro Pack","credits":1200,"price":19.99,"currency":"USD","badge":"Best Deal"},
					"starter":{"name":"Starter Pack","credits":200,"price":4.99,"currency":"USD"},
					"popular":{"name":"Popular Pack","credits":500,"price":9.99,"currency":"USD","badge":"Most Popular"}}}`))
			})

			pkgs, err := client.Packages(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pkgs).To(HaveLen(3))
			Expect(pkgs[0].Key).To(Equal("starter"))
			Expect(pkgs[2].Badge).To(Equal("Best Deal"))
		})

		It("creates and verifies an order", func() {
			mux.HandleFunc("/payment/create-order", func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				Expect(string(body)).To(ContainSubstring(`"package":"popular"`))
				w.Write([]byte(`{"order_id":"order_1","amount":999,"currency":"USD","key_id":"rzp","package":"popular","credits":500}`))
			})
			mux.HandleFunc("/payment/verify", func(w http.ResponseWriter, r *http.Request) {
				var proof map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&proof)).To(Succeed())
				Expect(proof).To(HaveKeyWithValue("razorpay_order_id", "order_1"))
				w.Write([]byte(`{"success":true,"message":"Payment successful!","credits_added":500,"total_credits":520}`))
			})

			order, err := client.CreateOrder(ctx, "popular")
			Expect(err).NotTo(HaveOccurred())
			Expect(order.Amount).To(Equal(999))

			res, err := client.VerifyPayment(ctx, api.PaymentProof{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "sig"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TotalCredits).To(Equal(520))
		})

		It("reads credits and purchase history", func() {
			mux.HandleFunc("/user/credits", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"is_premium":true,"message_credits":42,"total_purchased":500,"total_spent":9.99,"last_purchase":null}`))
			})
			mux.HandleFunc("/user/purchase-history", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"purchases":[{"id":17,"package":"popular","credits":500,"amount":9.99,"currency":"USD","date":"2025-02-01T08:00:00","payment_id":"pay_1"}]}`))
			})

			credits, err := client.Credits(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(credits.MessageCredits).To(Equal(42))
			Expect(credits.LastPurchase.IsZero()).To(BeTrue())

			history, err := client.PurchaseHistory(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(history[0].ID)).To(Equal("17"))
		})
	})

	Describe("news", func() {
		It("defaults the category and upper-cases the country", func() {
			mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("category")).To(Equal("general"))
				Expect(r.URL.Query().Get("country")).To(Equal("IN"))
				w.Write([]byte(`{"status":"ok","category":"general","country":"IN","articles":[{"title":"Headline","link":"https://n.example/1","pubDate":"2025-03-01 10:00:00","source":"wire"}],"cached_at":"2025-03-01T10:00:00","next_update":"2025-03-01T10:05:00","total_results":1}`))
			})

			feed, err := client.News(ctx, api.NewsQuery{Country: "in"})
			Expect(err).NotTo(HaveOccurred())
			Expect(feed.Articles).To(HaveLen(1))
			Expect(feed.NextUpdate.Sub(feed.CachedAt.Time).Minutes()).To(BeNumerically("==", 5))
		})
	})
})
