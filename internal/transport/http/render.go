package httptransport

import (
	"encoding/json"
	"strconv"
	"time"

	"globaltrust/internal/aggregate"
	"globaltrust/internal/codec"
	"globaltrust/internal/services"
	"globaltrust/pkg/platform/httputil"
)

// Responses render money as decimal strings and instants as RFC 3339. Wire
// encodings never reach the browser through these types.

type sectionResponse struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type dashboardResponse struct {
	Principal    string          `json:"principal"`
	Verification sectionResponse `json:"verification"`
	Marketplace  sectionResponse `json:"marketplace"`
	Lending      sectionResponse `json:"lending"`
	Identity     sectionResponse `json:"identity"`
}

type verificationResponse struct {
	TotalSubmissions    uint64               `json:"total_submissions"`
	VerifiedSubmissions uint64               `json:"verified_submissions"`
	PendingSubmissions  uint64               `json:"pending_submissions"`
	SuccessRate         float64              `json:"success_rate"`
	AvgConfidence       float64              `json:"avg_confidence"`
	RecentSubmissions   []submissionResponse `json:"recent_submissions"`
}

type submissionResponse struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

type marketplaceResponse struct {
	ActiveListings   uint64 `json:"active_listings"`
	TotalListedValue string `json:"total_listed_value"`
	CompletedSales   uint64 `json:"completed_sales"`
}

type lendingResponse struct {
	ActiveLoans   uint64 `json:"active_loans"`
	TotalBorrowed string `json:"total_borrowed"`
	CreditScore   uint64 `json:"credit_score"`
}

type identityResponse struct {
	ID        string `json:"id"`
	DID       string `json:"did"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type loanResponse struct {
	ID             uint64  `json:"id"`
	Borrower       string  `json:"borrower"`
	Lender         *string `json:"lender"`
	Amount         string  `json:"amount"`
	InterestRate   float64 `json:"interest_rate"`
	Duration       uint64  `json:"duration"`
	MonthlyPayment string  `json:"monthly_payment"`
	PaymentsMade   uint64  `json:"payments_made"`
	TotalPayments  uint64  `json:"total_payments"`
	CreditScore    uint64  `json:"credit_score"`
	LoanPurpose    string  `json:"loan_purpose"`
	Status         string  `json:"status"`
}

type credentialResponse struct {
	ID             string  `json:"id"`
	CredentialType string  `json:"credential_type"`
	Issuer         string  `json:"issuer"`
	IssuedAt       string  `json:"issued_at,omitempty"`
	ExpirationDate *string `json:"expiration_date"`
	CredentialHash string  `json:"credential_hash"`
	Status         string  `json:"status"`
}

type tokenResponse struct {
	ID          uint64          `json:"id"`
	Owner       sectionResponse `json:"owner"`
	Metadata    sectionResponse `json:"metadata"`
	Certificate sectionResponse `json:"certificate"`
}

type listResponse struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
	Items   any    `json:"items"`
}

// instant formats a timestamp; the zero instant means "never" and renders empty.
func instant(ts codec.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time().Format(time.RFC3339)
}

func renderSection[T any](s aggregate.Section[T], render func(T) any) sectionResponse {
	switch s.Status {
	case aggregate.StatusAvailable:
		return sectionResponse{Status: string(s.Status), Data: render(s.Data)}
	case aggregate.StatusUnavailable:
		return sectionResponse{
			Status:    string(s.Status),
			Reason:    s.Reason(),
			Retryable: httputil.IsRetryable(s.Err),
		}
	default:
		return sectionResponse{Status: string(s.Status)}
	}
}

func renderDashboard(d *aggregate.Dashboard) dashboardResponse {
	return dashboardResponse{
		Principal:    d.Principal,
		Verification: renderSection(d.Verification, renderVerification),
		Marketplace:  renderSection(d.Marketplace, renderMarketplace),
		Lending:      renderSection(d.Lending, renderLending),
		Identity:     renderSection(d.Identity, renderIdentity),
	}
}

func renderToken(t *aggregate.Token) tokenResponse {
	return tokenResponse{
		ID:          t.ID,
		Owner:       renderSection(t.Owner, func(owner string) any { return owner }),
		Metadata:    renderSection(t.Metadata, func(m aggregate.NFTMetadata) any { return m }),
		Certificate: renderSection(t.Certificate, func(c json.RawMessage) any { return c }),
	}
}

func renderVerification(v aggregate.VerificationSummary) any {
	recent := make([]submissionResponse, 0, len(v.RecentSubmissions))
	for _, s := range v.RecentSubmissions {
		recent = append(recent, submissionResponse{
			ID:        uint64(s.ID),
			Title:     s.Title,
			Status:    s.Status.Tag,
			Timestamp: instant(s.Timestamp),
		})
	}
	return verificationResponse{
		TotalSubmissions:    uint64(v.TotalSubmissions),
		VerifiedSubmissions: uint64(v.VerifiedSubmissions),
		PendingSubmissions:  uint64(v.PendingSubmissions),
		SuccessRate:         v.SuccessRate,
		AvgConfidence:       v.AvgConfidence,
		RecentSubmissions:   recent,
	}
}

func renderMarketplace(m aggregate.MarketplaceSummary) any {
	return marketplaceResponse{
		ActiveListings:   uint64(m.SellerData.ActiveListings),
		TotalListedValue: m.SellerData.TotalListedValue.Decimal(),
		CompletedSales:   uint64(m.SellerData.CompletedSales),
	}
}

func renderLending(l aggregate.LendingSummary) any {
	return lendingResponse{
		ActiveLoans:   uint64(l.BorrowerData.ActiveLoans),
		TotalBorrowed: l.BorrowerData.TotalBorrowed.Decimal(),
		CreditScore:   uint64(l.BorrowerData.CreditScore),
	}
}

func renderIdentity(i aggregate.IdentitySummary) any {
	return identityResponse{
		ID:        i.ID,
		DID:       i.DID,
		Verified:  i.Verified,
		CreatedAt: instant(i.CreatedAt),
		UpdatedAt: instant(i.UpdatedAt),
	}
}

func renderLoan(l aggregate.Loan) loanResponse {
	return loanResponse{
		ID:             uint64(l.ID),
		Borrower:       l.Borrower,
		Lender:         l.Lender.Ptr(),
		Amount:         l.Amount.Decimal(),
		InterestRate:   l.InterestRate,
		Duration:       uint64(l.Duration),
		MonthlyPayment: l.MonthlyPayment.Decimal(),
		PaymentsMade:   uint64(l.PaymentsMade),
		TotalPayments:  uint64(l.TotalPayments),
		CreditScore:    uint64(l.CreditScore),
		LoanPurpose:    l.LoanPurpose,
		Status:         l.Status.Tag,
	}
}

func renderCredential(c aggregate.Credential) credentialResponse {
	var expires *string
	if ts, ok := c.ExpirationDate.Get(); ok {
		s := instant(ts)
		expires = &s
	}
	return credentialResponse{
		ID:             c.ID,
		CredentialType: c.CredentialType,
		Issuer:         c.Issuer,
		IssuedAt:       instant(c.IssuedAt),
		ExpirationDate: expires,
		CredentialHash: c.CredentialHash,
		Status:         c.Status.Tag,
	}
}

// renderItems types the lists whose entries carry money or instants; the
// other services' entries pass through as sent.
func renderItems(service services.Name, items []json.RawMessage) (any, error) {
	switch service {
	case services.Lending:
		return renderEach(items, renderLoan)
	case services.Identity:
		return renderEach(items, renderCredential)
	default:
		return items, nil
	}
}

func renderEach[T, R any](items []json.RawMessage, render func(T) R) ([]R, error) {
	out := make([]R, 0, len(items))
	for i, raw := range items {
		var v T
		if err := codec.Success(raw).Decode(&v); err != nil {
			return nil, codec.AtField(err, "items["+strconv.Itoa(i)+"]")
		}
		out = append(out, render(v))
	}
	return out, nil
}
