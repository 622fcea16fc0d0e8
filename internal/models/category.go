package models

// Category is the asset class an asset belongs to. Its value doubles as the
// first path segment of the ledger endpoints for that class.
type Category string

const (
	Token    Category = "token"
	Currency Category = "currency"
	Coin     Category = "coin"
	Crypto   Category = "crypto"
)

func (c Category) String() string {
	return string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case Token, Currency, Coin, Crypto:
		return true
	}
	return false
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Token, Currency, Coin, Crypto}
}
