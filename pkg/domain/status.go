package domain

// ProcessStatus is the 8-stage lifecycle of a consultation request.
type ProcessStatus string

const (
	StatusRequested   ProcessStatus = "REQUESTED"
	StatusConsulting  ProcessStatus = "CONSULTING"
	StatusFeeNotice   ProcessStatus = "FEE_NOTICE"
	StatusPayment     ProcessStatus = "PAYMENT"
	StatusDocPrep     ProcessStatus = "DOC_PREP"
	StatusSubmitted   ProcessStatus = "SUBMITTED"
	StatusUnderReview ProcessStatus = "UNDER_REVIEW"
	StatusCompleted   ProcessStatus = "COMPLETED"
)

// StatusOrder lists the stages in display order. Admins may set any stage
// directly; the ordering is display semantics, not a transition restriction.
var StatusOrder = []ProcessStatus{
	StatusRequested,
	StatusConsulting,
	StatusFeeNotice,
	StatusPayment,
	StatusDocPrep,
	StatusSubmitted,
	StatusUnderReview,
	StatusCompleted,
}

var statusLabels = map[ProcessStatus]string{
	StatusRequested:   "대행신청",
	StatusConsulting:  "온라인 상담",
	StatusFeeNotice:   "대행금액통보",
	StatusPayment:     "결제",
	StatusDocPrep:     "신청문서 작성",
	StatusSubmitted:   "접수",
	StatusUnderReview: "심사",
	StatusCompleted:   "결과",
}

// Valid reports whether s is one of the 8 known stages.
func (s ProcessStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Ordinal returns the stage position 0..7, or -1 for an unknown stage.
func (s ProcessStatus) Ordinal() int {
	for i, st := range StatusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Label returns the human-readable stage name.
func (s ProcessStatus) Label() string {
	return statusLabels[s]
}

// ProgressFraction returns the progress-bar fill fraction, ordinal/7.
func (s ProcessStatus) ProgressFraction() float64 {
	ord := s.Ordinal()
	if ord < 0 {
		return 0
	}
	return float64(ord) / float64(len(StatusOrder)-1)
}

// PaymentAdvances reports whether a successful payment moves the request to
// DOC_PREP. Payment never undoes later progress and does not apply before
// the fee has been noticed.
func (s ProcessStatus) PaymentAdvances() bool {
	return s == StatusFeeNotice || s == StatusPayment
}

// LegacyStatus derives the legacy pending/completed flag kept for old records.
func (s ProcessStatus) LegacyStatus() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "pending"
}
