package core

import "github.com/shopspring/decimal"

// Income is one recorded inflow. Note may be empty.
type Income struct {
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source"`
	Note   string          `json:"note"`
	Date   string          `json:"date"`
}

// NewIncome is the add-income form payload. Amount, Source and Date are
// required by the backend; Date is YYYY-MM-DD.
type NewIncome struct {
	Amount string
	Source string
	Note   string
	Date   string
}

// Missing reports whether a required field is blank.
func (n NewIncome) Missing() bool {
	return n.Amount == "" || n.Source == "" || n.Date == ""
}

// Signup is the account registration payload.
type Signup struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
