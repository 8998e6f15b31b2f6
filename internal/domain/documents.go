package domain

// Document keys of the sibling documents shared by every environment.
// The itinerary key is environment-scoped and comes from configuration.
const (
	DocSettings  = "settings"
	DocChecklist = "checklist"
	DocWallet    = "wallet"
)

// ItineraryDocKey returns the itinerary document key for an environment.
// Production uses "main"; every other environment gets its own key so
// development edits never land in the live trip.
func ItineraryDocKey(env string) string {
	if env == "production" {
		return "main"
	}
	return "main-" + env
}
