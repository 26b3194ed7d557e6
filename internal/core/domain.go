package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

// DateLayout is the literal form dates are stored, grouped and exchanged in.
const DateLayout = "2006-01-02"

const (
	maxDescriptionLen = 200
	maxCategoryLen    = 50
)

type (
	TxType string

	// Date is a calendar date without time-of-day, always normalised to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// NewTransaction is a transaction before the store has assigned it an id.
	NewTransaction struct {
		Amount      Money
		Description string
		Category    string
		Date        Date
		Type        TxType
	}

	Transaction struct {
		ID          string    `json:"id"`
		UserID      string    `json:"userId"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Type        TxType    `json:"type"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)
	ErrEmptyCategory      = errors.New("empty category")
	ErrCategoryTooLong    = fmt.Errorf("category too long (max %d characters)", maxCategoryLen)
	ErrMissingID          = errors.New("missing transaction id")
	ErrMissingOwner       = errors.New("missing transaction owner")
)

// ParseTxType accepts the two known transaction types, case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TxType) Validate() error {
	if t != Expense && t != Income {
		return ErrInvalidType
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String returns the literal YYYY-MM-DD form used as the grouping key.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (n NewTransaction) Validate() error {
	if err := n.Date.Validate(); err != nil {
		return err
	}
	if err := n.Type.Validate(); err != nil {
		return err
	}
	if err := n.Amount.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(n.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len([]rune(desc)) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	cat := strings.TrimSpace(n.Category)
	if cat == "" {
		return ErrEmptyCategory
	}
	if len([]rune(cat)) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

// Normalize trims free-text fields. Stores call it before persisting.
func (n NewTransaction) Normalize() NewTransaction {
	n.Description = strings.TrimSpace(n.Description)
	n.Category = strings.TrimSpace(n.Category)
	return n
}

// Materialize stamps identity and ownership onto a validated draft.
func (n NewTransaction) Materialize(id, userID string, createdAt time.Time) (Transaction, error) {
	if err := n.Validate(); err != nil {
		return Transaction{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Transaction{}, ErrMissingID
	}
	if strings.TrimSpace(userID) == "" {
		return Transaction{}, ErrMissingOwner
	}
	n = n.Normalize()
	return Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      n.Amount,
		Description: n.Description,
		Category:    n.Category,
		Date:        n.Date,
		Type:        n.Type,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// SortNewestFirst orders txs in place by date desc, then creation desc.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
