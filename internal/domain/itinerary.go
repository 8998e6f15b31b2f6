// Package domain contains the core data types for the Tripboard application.
// Apart from the sorting and cloning helpers it holds no behaviour, and it is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"slices"
	"strings"
)

// City is the fixed set of city codes a TripDay can belong to.
type City string

const (
	CitySF  City = "SF"
	CitySLC City = "SLC"
	CitySAN City = "SAN"
	CityLA  City = "LA"
)

// Valid reports whether c is one of the known city codes.
func (c City) Valid() bool {
	switch c {
	case CitySF, CitySLC, CitySAN, CityLA:
		return true
	}
	return false
}

// ActivityType is the category tag of an Activity.
type ActivityType string

const (
	ActivityFlight      ActivityType = "flight"
	ActivityTransport   ActivityType = "transport"
	ActivityFood        ActivityType = "food"
	ActivitySightseeing ActivityType = "sightseeing"
	ActivityHotel       ActivityType = "hotel"
	ActivityConference  ActivityType = "conference"
	ActivityOther       ActivityType = "other"
)

// AttachmentType distinguishes uploaded images from plain links.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentLink  AttachmentType = "link"
)

// Attachment is an image or link reference hung off an Activity.
type Attachment struct {
	ID    string         `json:"id"`
	Type  AttachmentType `json:"type"`
	URL   string         `json:"url"`
	Label string         `json:"label,omitempty"`
}

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Activity is a single scheduled item. Time is "HH:mm", optionally followed
// by a space and a timezone label ("09:30 PDT").
type Activity struct {
	Time         string       `json:"time"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Type         ActivityType `json:"type"`
	IconName     string       `json:"iconName,omitempty"`
	Tips         string       `json:"tips,omitempty"`
	Location     string       `json:"location,omitempty"`
	Cost         *float64     `json:"cost,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	WalletItemID string       `json:"walletItemId,omitempty"`
	ModifiedBy   string       `json:"modifiedBy,omitempty"`
	ModifiedAt   string       `json:"modifiedAt,omitempty"`
}

// TripDay is one calendar day of the trip. Days are a fixed set: they are
// edited but never deleted individually.
type TripDay struct {
	ID         string     `json:"id"`
	Date       string     `json:"date"`
	City       City       `json:"city"`
	CityLabel  string     `json:"cityLabel"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Activities []Activity `json:"activities"`
}

// Plan is the whole mutable itinerary state: the scheduled days plus the
// idea pool of activities not yet assigned to a day. A Plan taken before a
// mutation is the undo snapshot.
type Plan struct {
	Days       []TripDay  `json:"days"`
	Unassigned []Activity `json:"unassigned"`
}

// TimeKey returns the sort key of an activity time: everything before the
// first space, so "09:30 PDT" sorts as "09:30".
func TimeKey(t string) string {
	if i := strings.IndexByte(t, ' '); i >= 0 {
		return t[:i]
	}
	return t
}

// SortActivities orders activities by TimeKey. Times are zero-padded, so a
// string comparison is a chronological one. The sort is stable: equal times
// keep their insertion order.
func SortActivities(activities []Activity) {
	slices.SortStableFunc(activities, func(a, b Activity) int {
		return strings.Compare(TimeKey(a.Time), TimeKey(b.Time))
	})
}

// DayIndex returns the position of the day with the given id, or -1.
func (p Plan) DayIndex(id string) int {
	return slices.IndexFunc(p.Days, func(d TripDay) bool { return d.ID == id })
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	out := a
	if a.Cost != nil {
		c := *a.Cost
		out.Cost = &c
	}
	if a.Coordinates != nil {
		c := *a.Coordinates
		out.Coordinates = &c
	}
	if a.Attachments != nil {
		out.Attachments = slices.Clone(a.Attachments)
	}
	return out
}

// Clone returns a deep copy of the day.
func (d TripDay) Clone() TripDay {
	out := d
	out.Activities = cloneActivities(d.Activities)
	return out
}

// Clone returns a deep copy of the plan. Snapshots must never share backing
// arrays with the live state.
func (p Plan) Clone() Plan {
	out := Plan{
		Days:       make([]TripDay, len(p.Days)),
		Unassigned: cloneActivities(p.Unassigned),
	}
	for i, d := range p.Days {
		out.Days[i] = d.Clone()
	}
	return out
}

// Normalize replaces nil slices with empty ones so the plan always encodes
// as arrays, never null.
func (p Plan) Normalize() Plan {
	if p.Days == nil {
		p.Days = []TripDay{}
	}
	if p.Unassigned == nil {
		p.Unassigned = []Activity{}
	}
	for i := range p.Days {
		if p.Days[i].Activities == nil {
			p.Days[i].Activities = []Activity{}
		}
	}
	return p
}

// ActivityCost returns the sum of all scheduled activity costs. Idea pool
// entries are not part of the budget.
func (p Plan) ActivityCost() float64 {
	var total float64
	for _, d := range p.Days {
		for _, a := range d.Activities {
			if a.Cost != nil {
				total += *a.Cost
			}
		}
	}
	return total
}

func cloneActivities(in []Activity) []Activity {
	if in == nil {
		return nil
	}
	out := make([]Activity, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
