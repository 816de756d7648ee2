// Package models defines the core data structures of the banking portal:
// users, one-time passcodes and the banking resources served by the API.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a provisioned online-banking customer.
type User struct {
	// ID is the internal numeric identifier.
	ID int64 `json:"id"`
	// ExternalID is the bank-assigned login identifier (e.g. "1972000").
	ExternalID string `json:"userId"`
	// Email is the registered contact address that receives passcodes.
	Email string `json:"email"`
	// Name is the display name used in notifications.
	Name string `json:"name"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`
	// IsActive reports whether the user may sign in.
	IsActive bool `json:"isActive"`
	// LastLogin is the time of the last fully authenticated login.
	LastLogin *time.Time `json:"lastLogin"`
	// CreatedAt is the provisioning time.
	CreatedAt time.Time `json:"createdAt"`
}

// Purpose scopes a one-time passcode to exactly one use-case.
// The set is open: any non-empty tag is a valid scoping key.
type Purpose string

const (
	// PurposeLogin elevates a pending session to an authenticated one.
	PurposeLogin Purpose = "login"
	// PurposeBillPayment confirms a pending bill payment.
	PurposeBillPayment Purpose = "bill_payment"
	// PurposeChequeOrder confirms a pending cheque order.
	PurposeChequeOrder Purpose = "cheque_order"
	// PurposeExternalVerification is reserved for external account verification.
	PurposeExternalVerification Purpose = "external_verification"
)

// MaxPurposeLength is the width of the purpose column.
const MaxPurposeLength = 50

// Valid reports whether p can be used as a scoping key.
func (p Purpose) Valid() bool {
	s := strings.TrimSpace(string(p))
	return s != "" && s == string(p) && len(s) <= MaxPurposeLength
}

// For scopes p to a single pending operation, e.g. "bill_payment:42".
// A code issued for one operation cannot confirm another.
func (p Purpose) For(id int64) Purpose {
	return Purpose(string(p) + ":" + strconv.FormatInt(id, 10))
}

// Base strips the operation scope added by For.
func (p Purpose) Base() Purpose {
	base, _, _ := strings.Cut(string(p), ":")
	return Purpose(base)
}

// Label returns the human readable form used in notification text.
func (p Purpose) Label() string {
	base := p.Base()
	if base == PurposeLogin {
		return "authentication"
	}
	return strings.ReplaceAll(string(base), "_", " ")
}

// OtpCode is one issued step-up challenge.
type OtpCode struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Code      string    `json:"-"`
	Purpose   Purpose   `json:"purpose"`
	Used      bool      `json:"isUsed"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidAt reports whether the code may still be consumed at instant now.
func (o OtpCode) ValidAt(now time.Time) bool {
	return !o.Used && now.Before(o.ExpiresAt)
}

// Account is a deposit account held by a user.
type Account struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"userId"`
	AccountNumber string              `json:"accountNumber"`
	AccountType   string              `json:"accountType"`
	AccountName   string              `json:"accountName"`
	Balance       decimal.Decimal     `json:"balance"`
	Currency      string              `json:"currency"`
	IsActive      bool                `json:"isActive"`
	InterestRate  decimal.NullDecimal `json:"interestRate"`
	MaturityDate  *time.Time          `json:"maturityDate"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// Transaction is a posted account movement.
type Transaction struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"accountId"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Category        *string         `json:"category"`
	ReferenceNumber *string         `json:"referenceNumber"`
	BalanceAfter    decimal.Decimal `json:"balanceAfter"`
	Status          string          `json:"status"`
	TransactionDate time.Time       `json:"transactionDate"`
}

// Resource statuses.
const (
	StatusPending    = "pending"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusProcessing = "processing"
	StatusVerified   = "verified"
)

// BillPayment is a payment to a payee, finalised only after step-up verification.
type BillPayment struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	FromAccountID   int64           `json:"fromAccountId"`
	PayeeName       string          `json:"payeeName"`
	Amount          decimal.Decimal `json:"amount"`
	AccountNumber   *string         `json:"accountNumber"`
	ReferenceNumber string          `json:"referenceNumber"`
	Status          string          `json:"status"`
	ScheduledDate   *time.Time      `json:"scheduledDate"`
	ProcessedDate   *time.Time      `json:"processedDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ChequeOrder is an order for a book of cheques.
type ChequeOrder struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	AccountID       int64           `json:"accountId"`
	OrderNumber     string          `json:"orderNumber"`
	ChequeStyle     string          `json:"chequeStyle"`
	Quantity        int             `json:"quantity"`
	StartingNumber  int             `json:"startingNumber"`
	DeliveryAddress string          `json:"deliveryAddress"`
	DeliveryMethod  string          `json:"deliveryMethod"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	Status          string          `json:"status"`
	OrderDate       time.Time       `json:"orderDate"`
	ShippedDate     *time.Time      `json:"shippedDate"`
	DeliveredDate   *time.Time      `json:"deliveredDate"`
}

// ExternalAccount is an account at another institution being linked.
type ExternalAccount struct {
	ID                   int64               `json:"id"`
	UserID               int64               `json:"userId"`
	InstitutionName      string              `json:"institutionName"`
	AccountType          string              `json:"accountType"`
	InstitutionNumber    string              `json:"institutionNumber"`
	TransitNumber        string              `json:"transitNumber"`
	AccountNumber        string              `json:"accountNumber"`
	AccountNickname      *string             `json:"accountNickname"`
	VerificationStatus   string              `json:"verificationStatus"`
	MicroDeposit1        decimal.NullDecimal `json:"-"`
	MicroDeposit2        decimal.NullDecimal `json:"-"`
	VerificationAttempts int                 `json:"verificationAttempts"`
	LinkedDate           *time.Time          `json:"linkedDate"`
	CreatedAt            time.Time           `json:"createdAt"`
}
