package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilingStatus is the federal filing status on a tax profile.
type FilingStatus string

const (
	FilingStatusSingle          FilingStatus = "single"
	FilingStatusMarriedJoint    FilingStatus = "married_joint"
	FilingStatusMarriedSeparate FilingStatus = "married_separate"
	FilingStatusHead            FilingStatus = "head"
)

// Valid reports whether the filing status is one of the known values.
func (s FilingStatus) Valid() bool {
	switch s {
	case FilingStatusSingle, FilingStatusMarriedJoint, FilingStatusMarriedSeparate, FilingStatusHead:
		return true
	}
	return false
}

// User represents an account holder.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TaxProfile holds a user's tax-rate configuration. It is immutable during a
// single engine computation; updates go through the profile repository only.
type TaxProfile struct {
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	FilingStatus       FilingStatus    `json:"filing_status" db:"filing_status"`
	FederalSTRate      decimal.Decimal `json:"federal_st_rate" db:"federal_st_rate"`
	FederalLTRate      decimal.Decimal `json:"federal_lt_rate" db:"federal_lt_rate"`
	StateCode          string          `json:"state_code" db:"state_code"`
	StateSTRate        decimal.Decimal `json:"state_st_rate" db:"state_st_rate"`
	StateLTRate        decimal.Decimal `json:"state_lt_rate" db:"state_lt_rate"`
	NIITRate           decimal.Decimal `json:"niit_rate" db:"niit_rate"`
	CarryForwardLosses decimal.Decimal `json:"carry_forward_losses" db:"carry_forward_losses"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// TotalSTRate is the combined short-term rate including NIIT.
func (p *TaxProfile) TotalSTRate() decimal.Decimal {
	return p.FederalSTRate.Add(p.StateSTRate).Add(p.NIITRate)
}

// TotalLTRate is the combined long-term rate including NIIT.
func (p *TaxProfile) TotalLTRate() decimal.Decimal {
	return p.FederalLTRate.Add(p.StateLTRate).Add(p.NIITRate)
}

// Lot is a discrete purchase of shares with its own cost basis and date, the
// atomic unit of tax accounting. Quantity only decreases on an executed sale;
// the lot row is deleted when quantity reaches zero.
type Lot struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"`
	CostPerShare decimal.Decimal `json:"cost_per_share" db:"cost_per_share"`
	PurchaseDate time.Time       `json:"purchase_date" db:"purchase_date"`
	Account      *string         `json:"account,omitempty" db:"account"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ErrorResponse is the standard error payload returned by the API.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
