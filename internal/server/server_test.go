package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kimmigration/internal/app"
	"kimmigration/pkg/ai"
	"kimmigration/pkg/auth"
	"kimmigration/pkg/domain"
	"kimmigration/pkg/store"
)

type stubGenerator struct{ reply string }

func (s stubGenerator) GenerateText(context.Context, string, []ai.Turn, string) (string, error) {
	return s.reply, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hash, err := auth.HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	core, err := app.New(app.Config{
		Store: store.NewMemoryStore(store.Bootstrap{
			AdminEmail:        "admin@example.com",
			AdminPasswordHash: hash,
		}),
		Sessions:  store.NewMemorySessionStore(time.Minute),
		Generator: stubGenerator{reply: "네, 도와드리겠습니다."},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: core}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func adminLogin(t *testing.T, base string) string {
	t.Helper()
	var result struct {
		Token string `json:"token"`
	}
	status := doJSON(t, http.MethodPost, base+"/api/admin/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "super-secret",
	}, &result)
	if status != http.StatusOK || result.Token == "" {
		t.Fatalf("login status = %d, token = %q", status, result.Token)
	}
	return result.Token
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSubmitConsultationValidation(t *testing.T) {
	srv := newTestServer(t)
	status := doJSON(t, http.MethodPost, srv.URL+"/api/consultations", "", map[string]string{
		"name": "Ivan",
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

// Submit, quote, pay and complete a consultation through the API.
func TestConsultationWorkflow(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var created domain.ConsultationRequest
	status := doJSON(t, http.MethodPost, srv.URL+"/api/consultations", "", map[string]string{
		"serviceType": "Visa",
		"name":        "Ivan",
		"email":       "a@x.com",
		"content":     "D-8 visa inquiry",
	}, &created)
	if status != http.StatusCreated || created.ProcessStatus != domain.StatusRequested {
		t.Fatalf("submit: status=%d record=%+v", status, created)
	}

	base := srv.URL + "/api/admin/consultations/" + created.ID
	var updated domain.ConsultationRequest
	if s := doJSON(t, http.MethodPatch, base+"/payment-amount", token, map[string]int64{"amount": 50000}, &updated); s != http.StatusOK {
		t.Fatalf("payment-amount status = %d", s)
	}
	if s := doJSON(t, http.MethodPatch, base+"/status", token, map[string]string{"processStatus": "FEE_NOTICE"}, &updated); s != http.StatusOK {
		t.Fatalf("status patch = %d", s)
	}

	var paid domain.ConsultationRequest
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/consultations/"+created.ID+"/pay", "", map[string]string{"method": "CreditCard"}, &paid); s != http.StatusOK {
		t.Fatalf("pay status = %d", s)
	}
	if paid.ProcessStatus != domain.StatusDocPrep || !paid.IsPaid {
		t.Fatalf("after pay: %+v", paid)
	}

	if s := doJSON(t, http.MethodPatch, base+"/status", token, map[string]string{"processStatus": "COMPLETED"}, &updated); s != http.StatusOK {
		t.Fatalf("complete status = %d", s)
	}
	if updated.ProcessStatus != domain.StatusCompleted || updated.PaymentAmount != 50000 {
		t.Fatalf("final: %+v", updated)
	}

	var mine struct {
		Items []domain.ConsultationRequest `json:"items"`
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/consultations?email=A@X.COM", "", nil, &mine); s != http.StatusOK {
		t.Fatalf("list by email = %d", s)
	}
	if len(mine.Items) != 1 || mine.Items[0].ProcessStatus != domain.StatusCompleted {
		t.Fatalf("items = %+v", mine.Items)
	}
}

func TestInvalidStatusRejected(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var created domain.ConsultationRequest
	doJSON(t, http.MethodPost, srv.URL+"/api/consultations", "", map[string]string{
		"name": "n", "email": "e@x.com", "content": "c",
	}, &created)

	s := doJSON(t, http.MethodPatch, srv.URL+"/api/admin/consultations/"+created.ID+"/status", token,
		map[string]string{"processStatus": "SHIPPED"}, nil)
	if s != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", s)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/admin/consultations"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/chats"},
		{http.MethodPut, "/api/admin/pages/privacy"},
	} {
		if s := doJSON(t, tc.method, srv.URL+tc.path, "", nil, nil); s != http.StatusUnauthorized {
			t.Fatalf("%s %s = %d, want 401", tc.method, tc.path, s)
		}
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/admin/consultations", "bogus-token", nil, nil); s != http.StatusUnauthorized {
		t.Fatalf("bogus token = %d, want 401", s)
	}
}

func TestAdminLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	}, nil); s != http.StatusUnauthorized {
		t.Fatalf("wrong password = %d, want 401", s)
	}

	// Registered but unapproved accounts are rejected with 403.
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/register", "", map[string]string{
		"email": "new@example.com", "password": "pass-1",
	}, nil); s != http.StatusCreated {
		t.Fatalf("register = %d, want 201", s)
	}
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/login", "", map[string]string{
		"email": "new@example.com", "password": "pass-1",
	}, nil); s != http.StatusForbidden {
		t.Fatalf("pending login = %d, want 403", s)
	}
}

func TestAdminApprovalFlow(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	doJSON(t, http.MethodPost, srv.URL+"/api/admin/register", "", map[string]string{
		"email": "new@example.com", "password": "pass-1",
	}, nil)
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/admins/new@example.com/approve", token, nil, nil); s != http.StatusOK {
		t.Fatalf("approve = %d", s)
	}
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/login", "", map[string]string{
		"email": "new@example.com", "password": "pass-1",
	}, nil); s != http.StatusOK {
		t.Fatalf("login after approve = %d", s)
	}

	// The bootstrap super-admin cannot be removed.
	if s := doJSON(t, http.MethodDelete, srv.URL+"/api/admin/admins/admin@example.com", token, nil, nil); s != http.StatusForbidden {
		t.Fatalf("delete super admin = %d, want 403", s)
	}
}

func TestServiceContentResolution(t *testing.T) {
	srv := newTestServer(t)

	var root struct {
		SubMenuID string `json:"subMenuId"`
		Documents string `json:"documents"`
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/services/visa", "", nil, &root); s != http.StatusOK {
		t.Fatalf("root = %d", s)
	}
	if root.SubMenuID != "" || root.Documents == "" {
		t.Fatalf("root scope: %+v", root)
	}

	var withOption struct {
		Documents string `json:"documents"`
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/services/visa?docOption=A-2", "", nil, &withOption); s != http.StatusOK {
		t.Fatalf("docOption = %d", s)
	}
	if withOption.Documents == root.Documents {
		t.Fatal("A-2 option must yield its own documents text")
	}

	if s := doJSON(t, http.MethodGet, srv.URL+"/api/services/visa?subMenu=no-such-id", "", nil, nil); s != http.StatusNotFound {
		t.Fatalf("unknown sub-menu = %d, want 404", s)
	}
}

func TestScopeEditIsLocal(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var svc domain.ServiceContent
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/admin/consultations", token, nil, nil); s != http.StatusOK {
		t.Fatalf("warmup = %d", s)
	}
	if s := doJSON(t, http.MethodPut, srv.URL+"/api/admin/services/visa/scope", token, map[string]any{
		"target": "edited root target",
	}, &svc); s != http.StatusOK {
		t.Fatalf("scope save = %d", s)
	}
	if svc.Target != "edited root target" {
		t.Fatalf("target = %q", svc.Target)
	}
	if len(svc.SubMenus) == 0 || svc.SubMenus[0].Target == "edited root target" {
		t.Fatal("root edit must not leak into sub-menus")
	}
}

func TestNewsLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var item domain.NewsItem
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/admin/news", token, map[string]string{
		"title": "새 공지", "content": "본문",
	}, &item); s != http.StatusCreated {
		t.Fatalf("add news = %d", s)
	}
	if item.ID != 4 {
		t.Fatalf("id = %d, want 4 (seed has 1..3)", item.ID)
	}
	if item.Date == "" {
		t.Fatal("date must default to today")
	}

	if s := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/admin/news/%d", srv.URL, item.ID), token, nil, nil); s != http.StatusOK {
		t.Fatalf("delete news = %d", s)
	}

	var list struct {
		Count int `json:"count"`
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/news", "", nil, &list); s != http.StatusOK {
		t.Fatalf("list news = %d", s)
	}
	if list.Count != 3 {
		t.Fatalf("count = %d, want 3", list.Count)
	}
}

func TestFAQReplace(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var result struct {
		Items []domain.FAQItem `json:"items"`
	}
	if s := doJSON(t, http.MethodPut, srv.URL+"/api/admin/faqs", token, map[string]any{
		"items": []map[string]string{
			{"question": "비자 연장은 어떻게 하나요?", "answer": "온라인 신청이 가능합니다."},
		},
	}, &result); s != http.StatusOK {
		t.Fatalf("replace = %d", s)
	}
	if len(result.Items) != 1 || result.Items[0].ID == "" {
		t.Fatalf("items = %+v", result.Items)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var session domain.ChatSession
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/chat", "", map[string]string{
		"message": "비자 문의",
	}, &session); s != http.StatusOK {
		t.Fatalf("chat = %d", s)
	}
	if session.ID == "" || len(session.Messages) != 2 {
		t.Fatalf("session = %+v", session)
	}
	if session.Messages[1].Text != "네, 도와드리겠습니다." {
		t.Fatalf("reply = %q", session.Messages[1].Text)
	}

	if s := doJSON(t, http.MethodPost, srv.URL+"/api/chat", "", map[string]string{
		"sessionId": session.ID, "message": "추가 질문",
	}, &session); s != http.StatusOK {
		t.Fatalf("chat follow-up = %d", s)
	}
	if len(session.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(session.Messages))
	}
}

func TestTranslateWithoutTranslatorEchoes(t *testing.T) {
	srv := newTestServer(t)
	var result struct {
		Text string `json:"text"`
	}
	if s := doJSON(t, http.MethodPost, srv.URL+"/api/translate", "", map[string]string{
		"text": "안내문", "targetLang": "EN",
	}, &result); s != http.StatusOK {
		t.Fatalf("translate = %d", s)
	}
	if result.Text != "안내문" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestPageDefaultsAndSave(t *testing.T) {
	srv := newTestServer(t)
	token := adminLogin(t, srv.URL)

	var page domain.PageContent
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/pages/privacy", "", nil, &page); s != http.StatusOK {
		t.Fatalf("get page = %d", s)
	}
	if page.Content == "" {
		t.Fatal("empty page must return placeholder content")
	}

	if s := doJSON(t, http.MethodPut, srv.URL+"/api/admin/pages/privacy", token, map[string]string{
		"title":   "개인정보 처리방침",
		"content": "<p>개인정보 처리방침</p>",
	}, nil); s != http.StatusOK {
		t.Fatalf("save page = %d", s)
	}
	if s := doJSON(t, http.MethodGet, srv.URL+"/api/pages/privacy", "", nil, &page); s != http.StatusOK {
		t.Fatalf("reload page = %d", s)
	}
	if page.Title != "개인정보 처리방침" || page.Content != "<p>개인정보 처리방침</p>" {
		t.Fatalf("page = %+v", page)
	}
}
