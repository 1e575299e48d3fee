package aggregate

import "globaltrust/internal/codec"

// VerificationSummary is the verifier's dashboard payload.
type VerificationSummary struct {
	TotalSubmissions    codec.Nat    `json:"total_submissions"`
	VerifiedSubmissions codec.Nat    `json:"verified_submissions"`
	PendingSubmissions  codec.Nat    `json:"pending_submissions"`
	SuccessRate         float64      `json:"success_rate"`
	AvgConfidence       float64      `json:"avg_confidence"`
	RecentSubmissions   []Submission `json:"recent_submissions"`
}

type Submission struct {
	ID        codec.Nat       `json:"id"`
	Title     string          `json:"title"`
	Status    codec.Variant   `json:"status"`
	Timestamp codec.Timestamp `json:"timestamp"`
}

// MarketplaceSummary is the marketplace's dashboard payload for a seller.
type MarketplaceSummary struct {
	SellerData SellerData `json:"seller_data"`
}

type SellerData struct {
	ActiveListings   codec.Nat   `json:"active_listings"`
	TotalListedValue codec.Money `json:"total_listed_value"`
	CompletedSales   codec.Nat   `json:"completed_sales"`
}

// LendingSummary is the lending service's dashboard payload for a borrower.
type LendingSummary struct {
	BorrowerData BorrowerData `json:"borrower_data"`
}

type BorrowerData struct {
	ActiveLoans   codec.Nat   `json:"active_loans"`
	TotalBorrowed codec.Money `json:"total_borrowed"`
	CreditScore   codec.Nat   `json:"credit_score"`
}

// IdentitySummary is the identity record of the principal.
type IdentitySummary struct {
	ID        string          `json:"id"`
	DID       string          `json:"did"`
	Verified  bool            `json:"verified"`
	CreatedAt codec.Timestamp `json:"createdAt"`
	UpdatedAt codec.Timestamp `json:"updatedAt"`
}

// Loan is one entry of the lending service's user list.
type Loan struct {
	ID             codec.Nat              `json:"id"`
	Borrower       string                 `json:"borrower"`
	Lender         codec.Optional[string] `json:"lender"`
	Amount         codec.Money            `json:"amount"`
	InterestRate   float64                `json:"interest_rate"`
	Duration       codec.Nat              `json:"duration"`
	MonthlyPayment codec.Money            `json:"monthly_payment"`
	PaymentsMade   codec.Nat              `json:"payments_made"`
	TotalPayments  codec.Nat              `json:"total_payments"`
	CreditScore    codec.Nat              `json:"credit_score"`
	LoanPurpose    string                 `json:"loan_purpose"`
	Status         codec.Variant          `json:"status"`
}

// Credential is one entry of the identity service's user list.
type Credential struct {
	ID             string                          `json:"id"`
	CredentialType string                          `json:"credentialType"`
	Issuer         string                          `json:"issuer"`
	IssuedAt       codec.Timestamp                 `json:"issuedAt"`
	ExpirationDate codec.Optional[codec.Timestamp] `json:"expirationDate"`
	CredentialHash string                          `json:"credentialHash"`
	Status         codec.Variant                   `json:"status"`
}
