package domain

// WalletCategory is the closed set of budget ledger categories.
type WalletCategory string

const (
	WalletFlight        WalletCategory = "flight"
	WalletHotel         WalletCategory = "hotel"
	WalletTicket        WalletCategory = "ticket"
	WalletInsurance     WalletCategory = "insurance"
	WalletFood          WalletCategory = "food"
	WalletTransport     WalletCategory = "transport"
	WalletShopping      WalletCategory = "shopping"
	WalletEntertainment WalletCategory = "entertainment"
	WalletOther         WalletCategory = "other"
)

// Valid reports whether c is a known wallet category.
func (c WalletCategory) Valid() bool {
	switch c {
	case WalletFlight, WalletHotel, WalletTicket, WalletInsurance, WalletFood,
		WalletTransport, WalletShopping, WalletEntertainment, WalletOther:
		return true
	}
	return false
}

// WalletItem is one budget ledger entry: a booking, ticket, or expense with
// its confirmation reference and optional cost.
type WalletItem struct {
	ID        string         `json:"id"`
	Category  WalletCategory `json:"category"`
	Title     string         `json:"title"`
	Reference string         `json:"reference"`
	Details   string         `json:"details"`
	Cost      *float64       `json:"cost,omitempty"`
}

// Wallet is the document shape of the ledger.
type Wallet struct {
	Items []WalletItem `json:"items"`
}

// Clone returns a deep copy of the wallet.
func (w Wallet) Clone() Wallet {
	out := Wallet{Items: make([]WalletItem, len(w.Items))}
	for i, it := range w.Items {
		if it.Cost != nil {
			c := *it.Cost
			it.Cost = &c
		}
		out.Items[i] = it
	}
	return out
}

// Total returns the sum of all item costs.
func (w Wallet) Total() float64 {
	var total float64
	for _, it := range w.Items {
		if it.Cost != nil {
			total += *it.Cost
		}
	}
	return total
}

// WalletCategoryFor maps an activity category to the ledger category used
// when the activity's cost is synced into the wallet. Sightseeing costs are
// tickets; categories without a ledger counterpart fall back to other.
func WalletCategoryFor(t ActivityType) WalletCategory {
	switch t {
	case ActivityFlight:
		return WalletFlight
	case ActivityTransport:
		return WalletTransport
	case ActivityFood:
		return WalletFood
	case ActivityHotel:
		return WalletHotel
	case ActivitySightseeing:
		return WalletTicket
	case ActivityConference, ActivityOther:
		return WalletOther
	default:
		return WalletOther
	}
}
