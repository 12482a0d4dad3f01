package core

import (
	"errors"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells income and expense transactions apart.
	Kind string

	User struct {
		ID           int64
		Username     string
		Email        string
		FirstName    string
		LastName     string
		PasswordHash string
		DateJoined   time.Time
	}

	// Budget is a user's spending allowance for one calendar month.
	// MonthYear is always the first day of that month.
	Budget struct {
		ID        int64
		UserID    int64
		MonthYear Date
		Amount    Money
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		Date        Date
		Amount      Money
		Description string
		Kind        Kind
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidPeriod = errors.New("invalid month or year")
)

// Kinds lists the accepted transaction types.
func Kinds() []Kind {
	return []Kind{Income, Expense}
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// FullName joins first and last name the way the user typed them.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
