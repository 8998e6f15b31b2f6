// Package seed embeds the bundled default documents. A synced document that
// is missing from the remote store is created from these files.
package seed

import "embed"

// FS holds the default document bodies embedded at compile time.
//
//go:embed *.json
var FS embed.FS

const (
	// ItineraryFile is the default plan: {days, unassigned}.
	ItineraryFile = "itinerary.json"
	// ChecklistFile is the default checklist: {items}.
	ChecklistFile = "checklist.json"
	// WalletFile is the default budget ledger: {items}.
	WalletFile = "wallet.json"
)
