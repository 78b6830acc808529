package order

type Status string

const (
	StatusSubmitted          Status = "SUBMITTED"
	StatusAwaitingValidation Status = "AWAITING_VALIDATION"
	StatusStockConfirmed     Status = "STOCK_CONFIRMED"
	StatusPaid               Status = "PAID"
	StatusShipped            Status = "SHIPPED"
	StatusCancelled          Status = "CANCELLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusShipped || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusAwaitingValidation, StatusStockConfirmed,
		StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}
