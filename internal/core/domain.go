package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single logged income or expense entry. Immutable once
	// created; removal goes through soft delete in storage.
	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
		Date        Date
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("category not allowed for transaction type")
	ErrEmptyUserID     = errors.New("empty user id")
)

// Category sets are fixed per transaction type; input outside these sets is
// rejected before it reaches storage or the metrics engine.
var (
	incomeCategories = []string{
		"Salary", "Freelance", "Investment", "Gift", "Other",
	}
	expenseCategories = []string{
		"Food", "Transport", "Housing", "Utilities", "Health",
		"Entertainment", "Shopping", "Education", "Other",
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Categories returns the allowed category names for the type, in a fresh
// slice so callers cannot mutate the set.
func (t TransactionType) Categories() []string {
	var src []string
	switch t {
	case Income:
		src = incomeCategories
	case Expense:
		src = expenseCategories
	default:
		return nil
	}
	return append([]string(nil), src...)
}

func (t TransactionType) allowsCategory(name string) bool {
	for _, c := range t.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// NewDate creates a Date at UTC midnight for year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// SameMonth reports whether the date falls in the same calendar month as t.
func (d Date) SameMonth(t time.Time) bool {
	return d.Time.Year() == t.Year() && d.Time.Month() == t.Month()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if !tx.Type.allowsCategory(tx.Category) {
		return ErrInvalidCategory
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(tx.UserID) == "" {
		return ErrEmptyUserID
	}
	return nil
}
