package domain

import "testing"

func TestStatusOrdinals(t *testing.T) {
	if len(StatusOrder) != 8 {
		t.Fatalf("expected 8 stages, got %d", len(StatusOrder))
	}
	for i, s := range StatusOrder {
		if !s.Valid() {
			t.Fatalf("stage %q not valid", s)
		}
		if s.Ordinal() != i {
			t.Fatalf("stage %q ordinal = %d, want %d", s, s.Ordinal(), i)
		}
		if s.Label() == "" {
			t.Fatalf("stage %q has no label", s)
		}
	}
	if ProcessStatus("SHIPPED").Valid() {
		t.Fatal("unknown stage reported valid")
	}
	if ProcessStatus("SHIPPED").Ordinal() != -1 {
		t.Fatal("unknown stage should have ordinal -1")
	}
}

func TestProgressFraction(t *testing.T) {
	if got := StatusRequested.ProgressFraction(); got != 0 {
		t.Fatalf("REQUESTED fraction = %v, want 0", got)
	}
	if got := StatusCompleted.ProgressFraction(); got != 1 {
		t.Fatalf("COMPLETED fraction = %v, want 1", got)
	}
	if got := StatusPayment.ProgressFraction(); got != 3.0/7.0 {
		t.Fatalf("PAYMENT fraction = %v, want 3/7", got)
	}
}

func TestPaymentAdvances(t *testing.T) {
	cases := map[ProcessStatus]bool{
		StatusRequested:   false,
		StatusConsulting:  false,
		StatusFeeNotice:   true,
		StatusPayment:     true,
		StatusDocPrep:     false,
		StatusSubmitted:   false,
		StatusUnderReview: false,
		StatusCompleted:   false,
	}
	for s, want := range cases {
		if got := s.PaymentAdvances(); got != want {
			t.Fatalf("PaymentAdvances(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestLegacyStatus(t *testing.T) {
	if got := StatusCompleted.LegacyStatus(); got != "completed" {
		t.Fatalf("got %q", got)
	}
	if got := StatusDocPrep.LegacyStatus(); got != "pending" {
		t.Fatalf("got %q", got)
	}
}
