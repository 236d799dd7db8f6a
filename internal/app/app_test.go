package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"kimmigration/pkg/ai"
	"kimmigration/pkg/auth"
	"kimmigration/pkg/domain"
	"kimmigration/pkg/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	hash, err := auth.HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := New(Config{
		Store: store.NewMemoryStore(store.Bootstrap{
			AdminEmail:        "admin@example.com",
			AdminPasswordHash: hash,
		}),
		Sessions: store.NewMemorySessionStore(time.Minute),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestSubmitConsultationDefaults(t *testing.T) {
	a := newTestApp(t)
	c, err := a.SubmitConsultation(context.Background(), SubmitConsultationInput{
		ServiceType: "Visa",
		Name:        "Ivan",
		Email:       "a@x.com",
		Content:     "D-8 visa question",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected assigned id")
	}
	if c.ProcessStatus != domain.StatusRequested {
		t.Fatalf("status = %q, want REQUESTED", c.ProcessStatus)
	}
	if c.Attachments == nil || len(c.Attachments) != 0 {
		t.Fatalf("attachments = %#v, want empty", c.Attachments)
	}
	if c.IsPaid {
		t.Fatal("new consultation must be unpaid")
	}
}

func TestSubmitConsultationValidation(t *testing.T) {
	a := newTestApp(t)
	_, err := a.SubmitConsultation(context.Background(), SubmitConsultationInput{Name: "Ivan"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if all, _ := a.Consultations(); len(all) != 0 {
		t.Fatal("failed validation must not persist anything")
	}
}

func TestSetStatusAnyToAny(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	c, _ := a.SubmitConsultation(ctx, SubmitConsultationInput{Name: "n", Email: "e@x.com", Content: "c"})

	// Forward, backward, and terminal-escape moves are all allowed.
	for _, status := range []domain.ProcessStatus{
		domain.StatusCompleted,
		domain.StatusRequested,
		domain.StatusUnderReview,
		domain.StatusConsulting,
	} {
		updated, err := a.SetStatus(ctx, c.ID, status)
		if err != nil {
			t.Fatalf("set %s: %v", status, err)
		}
		if updated.ProcessStatus != status {
			t.Fatalf("status = %q, want %q", updated.ProcessStatus, status)
		}
	}

	if _, err := a.SetStatus(ctx, c.ID, "SHIPPED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPayAdvancesOnlyFromFeeStages(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	for _, tc := range []struct {
		from domain.ProcessStatus
		want domain.ProcessStatus
	}{
		{domain.StatusRequested, domain.StatusRequested},
		{domain.StatusConsulting, domain.StatusConsulting},
		{domain.StatusFeeNotice, domain.StatusDocPrep},
		{domain.StatusPayment, domain.StatusDocPrep},
		{domain.StatusSubmitted, domain.StatusSubmitted},
		{domain.StatusCompleted, domain.StatusCompleted},
	} {
		c, _ := a.SubmitConsultation(ctx, SubmitConsultationInput{Name: "n", Email: "pay@x.com", Content: "c"})
		if _, err := a.SetStatus(ctx, c.ID, tc.from); err != nil {
			t.Fatalf("set %s: %v", tc.from, err)
		}
		paid, err := a.Pay(ctx, c.ID, domain.PayCreditCard)
		if err != nil {
			t.Fatalf("pay from %s: %v", tc.from, err)
		}
		if paid.ProcessStatus != tc.want {
			t.Fatalf("pay from %s: status = %q, want %q", tc.from, paid.ProcessStatus, tc.want)
		}
		if !paid.IsPaid || paid.PaymentMethod != domain.PayCreditCard {
			t.Fatalf("pay from %s: isPaid=%v method=%q", tc.from, paid.IsPaid, paid.PaymentMethod)
		}
	}
}

func TestPayIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	c, _ := a.SubmitConsultation(ctx, SubmitConsultationInput{Name: "n", Email: "e@x.com", Content: "c"})
	if _, err := a.SetStatus(ctx, c.ID, domain.StatusFeeNotice); err != nil {
		t.Fatalf("set status: %v", err)
	}
	first, err := a.Pay(ctx, c.ID, domain.PayPayPal)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	second, err := a.Pay(ctx, c.ID, domain.PayBankTransfer)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if first.ProcessStatus != domain.StatusDocPrep || second.ProcessStatus != domain.StatusDocPrep {
		t.Fatalf("statuses = %q, %q", first.ProcessStatus, second.ProcessStatus)
	}
	if !second.IsPaid || second.PaymentMethod != domain.PayBankTransfer {
		t.Fatalf("repay result: %+v", second)
	}
}

// Full lifecycle: submit -> fee notice -> pay -> complete.
func TestConsultationLifecycle(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	c, err := a.SubmitConsultation(ctx, SubmitConsultationInput{
		ServiceType: "Visa", Name: "Ivan", Email: "a@x.com", Content: "help",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	mine, err := a.ConsultationsByEmail("a@x.com")
	if err != nil || len(mine) != 1 || mine[0].ProcessStatus != domain.StatusRequested {
		t.Fatalf("by email: %v %+v", err, mine)
	}

	if _, err := a.SetPaymentAmount(ctx, c.ID, 50000); err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if _, err := a.SetStatus(ctx, c.ID, domain.StatusFeeNotice); err != nil {
		t.Fatalf("fee notice: %v", err)
	}
	paid, err := a.Pay(ctx, c.ID, domain.PayCreditCard)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.ProcessStatus != domain.StatusDocPrep || !paid.IsPaid || paid.PaymentMethod != domain.PayCreditCard {
		t.Fatalf("after pay: %+v", paid)
	}

	final, err := a.SetStatus(ctx, c.ID, domain.StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if final.ProcessStatus != domain.StatusCompleted || !final.IsPaid || final.PaymentAmount != 50000 {
		t.Fatalf("final record: %+v", final)
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	c, _ := a.SubmitConsultation(ctx, SubmitConsultationInput{Name: "n", Email: "e@x.com", Content: "c"})

	payload := []byte("passport scan")
	updated, att, err := a.AddAttachment(ctx, c.ID, "passport.txt", "text/plain", payload, domain.UploadedByUser)
	if err != nil {
		t.Fatalf("add attachment: %v", err)
	}
	if len(updated.Attachments) != 1 || att.Size != int64(len(payload)) {
		t.Fatalf("unexpected attachment: %+v", att)
	}

	_, data, err := a.Attachment(ctx, c.ID, att.ID)
	if err != nil {
		t.Fatalf("get attachment: %v", err)
	}
	if string(data) != "passport scan" {
		t.Fatalf("payload = %q", data)
	}

	text, supported, err := a.PreviewAttachment(ctx, c.ID, att.ID)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !supported || text != "passport scan" {
		t.Fatalf("preview = %q supported=%v", text, supported)
	}

	updated, err = a.DeleteAttachment(ctx, c.ID, att.ID)
	if err != nil {
		t.Fatalf("delete attachment: %v", err)
	}
	if len(updated.Attachments) != 0 {
		t.Fatal("attachment not removed")
	}
	if _, _, err := a.Attachment(ctx, c.ID, att.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type stubGenerator struct {
	reply      string
	err        error
	gotHistory []ai.Turn
}

func (s *stubGenerator) GenerateText(_ context.Context, _ string, history []ai.Turn, _ string) (string, error) {
	s.gotHistory = history
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestSendChatMessage(t *testing.T) {
	a := newTestApp(t)
	gen := &stubGenerator{reply: "안녕하세요! 무엇을 도와드릴까요?"}
	a.generator = gen
	ctx := context.Background()

	session, err := a.SendChatMessage(ctx, "", "비자 연장 방법 알려주세요")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if session.ID == "" || len(session.Messages) != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Messages[0].Role != domain.ChatRoleUser || session.Messages[1].Role != domain.ChatRoleModel {
		t.Fatalf("unexpected roles: %+v", session.Messages)
	}
	if session.Messages[1].Text != gen.reply {
		t.Fatalf("reply = %q", session.Messages[1].Text)
	}

	// Second message continues the same session and replays history.
	session, err = a.SendChatMessage(ctx, session.ID, "감사합니다")
	if err != nil {
		t.Fatalf("send 2: %v", err)
	}
	if len(session.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(session.Messages))
	}
	if len(gen.gotHistory) != 2 {
		t.Fatalf("history = %d turns, want 2", len(gen.gotHistory))
	}
	if session.LastMessage != "감사합니다" {
		t.Fatalf("lastMessage = %q", session.LastMessage)
	}
}

func TestSendChatMessageFallsBackOnError(t *testing.T) {
	a := newTestApp(t)
	a.generator = &stubGenerator{err: errors.New("upstream down")}
	session, err := a.SendChatMessage(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if session.Messages[1].Text != chatApology {
		t.Fatalf("reply = %q, want apology", session.Messages[1].Text)
	}
}

func TestAdminVerifyAndSessions(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if _, _, err := a.VerifyAdmin(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	token, admin, err := a.VerifyAdmin(ctx, "admin@example.com", "super-secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !admin.IsSuperAdmin {
		t.Fatal("bootstrap admin must be super-admin")
	}
	resolved, ok, err := a.AdminByToken(token)
	if err != nil || !ok || resolved.Email != "admin@example.com" {
		t.Fatalf("by token: ok=%v err=%v admin=%+v", ok, err, resolved)
	}

	if err := a.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := a.AdminByToken(token); ok {
		t.Fatal("token still valid after logout")
	}
}

func TestAdminRegistrationFlow(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if _, err := a.RegisterAdmin(ctx, "new@example.com", "pass-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := a.RegisterAdmin(ctx, "new@example.com", "pass-2"); !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}

	// Pending accounts cannot log in.
	if _, _, err := a.VerifyAdmin(ctx, "new@example.com", "pass-1"); !errors.Is(err, ErrAdminPending) {
		t.Fatalf("expected ErrAdminPending, got %v", err)
	}

	if err := a.ApproveAdmin("new@example.com"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, _, err := a.VerifyAdmin(ctx, "new@example.com", "pass-1"); err != nil {
		t.Fatalf("verify after approve: %v", err)
	}
}

func TestResolvedService(t *testing.T) {
	a := newTestApp(t)
	scope, docs, err := a.ResolvedService("visa", "", "A-2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !scope.Root() {
		t.Fatal("expected root scope")
	}
	if docs == "" || docs == scope.Documents {
		t.Fatalf("expected A-2 option content, got %q", docs)
	}
}

func TestListedSubMenuResolves(t *testing.T) {
	a := newTestApp(t)
	svc, err := a.ServiceContent("visa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(svc.SubMenus) == 0 {
		t.Fatal("visa seed must carry sub-menus")
	}
	for _, sub := range svc.SubMenus {
		scope, _, err := a.ResolvedService("visa", sub.ID, "")
		if err != nil {
			t.Fatalf("resolve listed sub-menu %q: %v", sub.ID, err)
		}
		if scope.SubMenuID != sub.ID || scope.Title != sub.Title {
			t.Fatalf("scope = %+v, want sub-menu %q", scope, sub.ID)
		}
	}
}

func TestSaveScopeBroadcasts(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := a.broadcaster.SubscribeContentUpdated(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	scope, _, err := a.ResolvedService("stay", "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	scope.Target = "장기체류 외국인"
	if _, err := a.SaveScope(ctx, scope); err != nil {
		t.Fatalf("save scope: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected content-updated broadcast after save")
	}

	svc, _ := a.ServiceContent("stay")
	if svc.Target != "장기체류 외국인" {
		t.Fatalf("target = %q", svc.Target)
	}
}
