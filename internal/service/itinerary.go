// Package service contains the business logic for the Tripboard API.
// Services validate inputs, enforce trip rules, and keep typed local copies
// of the shared remote documents in sync. Storage lives behind
// repo.DocumentStore; no backend specifics leak in here.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/seed"
)

// DefaultUndoDepth bounds the undo history when no depth is configured.
const DefaultUndoDepth = 50

// dayDateLayout is the label format Reschedule writes into TripDay.Date.
const dayDateLayout = "2006/01/02 (Mon)"

// activityTime matches a zero-padded 24h "HH:mm", optionally followed by a
// space and a timezone label.
var activityTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d( .*)?$`)

var errNothingToUndo = errors.New("nothing to undo")

// ItineraryConfig configures an ItineraryStore.
type ItineraryConfig struct {
	// Key is the itinerary document key, e.g. "main" or "main-dev".
	Key string
	// UndoDepth bounds the undo history; zero means DefaultUndoDepth.
	UndoDepth int
	// PDFFontPath is an optional UTF-8 TrueType font for ExportPDF.
	PDFFontPath string
}

// ItineraryStore is the single mutation surface of the shared trip plan.
//
// Every mutation validates its input, records a deep snapshot of the plan
// for Undo, applies the change locally and then writes the whole plan to
// the remote store. Remote changes replace the local plan wholesale and
// never touch the undo history.
type ItineraryStore struct {
	doc      *syncedDoc[domain.Plan]
	defaults domain.Plan
	depth    int
	fontPath string
	log      *slog.Logger

	// mu guards undo. Lock order: the document lock first, then mu.
	mu   sync.Mutex
	undo []domain.Plan
}

// NewItineraryStore constructs an ItineraryStore over store. The bundled
// default plan is used to seed a missing document and by Reset.
func NewItineraryStore(store repo.DocumentStore, cfg ItineraryConfig, log *slog.Logger) (*ItineraryStore, error) {
	defaults, err := DefaultPlan()
	if err != nil {
		return nil, fmt.Errorf("service.NewItineraryStore: %w", err)
	}
	depth := cfg.UndoDepth
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	s := &ItineraryStore{
		defaults: defaults,
		depth:    depth,
		fontPath: cfg.PDFFontPath,
		log:      log.With("service", "itinerary"),
	}
	s.doc = newSyncedDoc(store, cfg.Key, log,
		func() domain.Plan { return defaults.Clone() },
		func(p domain.Plan) domain.Plan { return p.Clone().Normalize() },
	)
	return s, nil
}

// DefaultPlan decodes the bundled default itinerary.
func DefaultPlan() (domain.Plan, error) {
	data, err := seed.FS.ReadFile(seed.ItineraryFile)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("read default itinerary: %w", err)
	}
	p, err := ParsePlan(data)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("parse default itinerary: %w", err)
	}
	return p, nil
}

// Start loads the plan (seeding it when missing) and begins following
// remote changes.
func (s *ItineraryStore) Start(ctx context.Context) error {
	if err := s.doc.start(ctx); err != nil {
		return fmt.Errorf("service.ItineraryStore.Start: %w", err)
	}
	return nil
}

// Close stops following remote changes.
func (s *ItineraryStore) Close() {
	s.doc.close()
}

// OnChange registers fn to receive every applied plan together with the
// current undo availability. fn must not call back into the store.
func (s *ItineraryStore) OnChange(fn func(plan domain.Plan, canUndo bool)) {
	s.doc.onChange(func(p domain.Plan) {
		fn(p, s.CanUndo())
	})
}

// Plan returns a deep copy of the current plan.
func (s *ItineraryStore) Plan() domain.Plan {
	return s.doc.value()
}

// Days returns the scheduled days, optionally filtered to one city.
// An empty city returns every day.
func (s *ItineraryStore) Days(city domain.City) []domain.TripDay {
	days := s.doc.value().Days
	if city == "" {
		return days
	}
	return slices.DeleteFunc(days, func(d domain.TripDay) bool { return d.City != city })
}

// Day returns one day by id.
func (s *ItineraryStore) Day(dayID string) (domain.TripDay, error) {
	p := s.doc.value()
	i := p.DayIndex(dayID)
	if i < 0 {
		return domain.TripDay{}, fmt.Errorf("service.ItineraryStore.Day: %w: day %q", domain.ErrNotFound, dayID)
	}
	return p.Days[i], nil
}

// CanUndo reports whether Undo has a snapshot to restore.
func (s *ItineraryStore) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// AddActivity appends a to the day and re-sorts the day by time.
func (s *ItineraryStore) AddActivity(ctx context.Context, dayID string, a domain.Activity) (domain.Plan, error) {
	return s.mutate(ctx, "AddActivity", func(p *domain.Plan) error {
		if err := validateActivity(a); err != nil {
			return err
		}
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		d.Activities = append(d.Activities, a.Clone())
		domain.SortActivities(d.Activities)
		return nil
	})
}

// UpdateActivity replaces the activity at index and re-sorts the day.
func (s *ItineraryStore) UpdateActivity(ctx context.Context, dayID string, index int, a domain.Activity) (domain.Plan, error) {
	return s.mutate(ctx, "UpdateActivity", func(p *domain.Plan) error {
		if err := validateActivity(a); err != nil {
			return err
		}
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		if err := checkIndex(index, len(d.Activities)); err != nil {
			return err
		}
		d.Activities[index] = a.Clone()
		domain.SortActivities(d.Activities)
		return nil
	})
}

// RemoveActivity splices out the activity at index. The remaining order is
// already sorted, so no re-sort happens.
func (s *ItineraryStore) RemoveActivity(ctx context.Context, dayID string, index int) (domain.Plan, error) {
	return s.mutate(ctx, "RemoveActivity", func(p *domain.Plan) error {
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		if err := checkIndex(index, len(d.Activities)); err != nil {
			return err
		}
		d.Activities = slices.Delete(d.Activities, index, index+1)
		return nil
	})
}

// MoveActivity places a on toDay. When index is set, the activity at that
// position on fromDay is removed first. Moving within one day replaces the
// activity in place instead of inserting it twice.
func (s *ItineraryStore) MoveActivity(ctx context.Context, fromDay, toDay string, a domain.Activity, index *int) (domain.Plan, error) {
	return s.mutate(ctx, "MoveActivity", func(p *domain.Plan) error {
		if err := validateActivity(a); err != nil {
			return err
		}
		src, err := dayOf(p, fromDay)
		if err != nil {
			return err
		}
		dst, err := dayOf(p, toDay)
		if err != nil {
			return err
		}
		if index != nil {
			if err := checkIndex(*index, len(src.Activities)); err != nil {
				return err
			}
			if fromDay == toDay {
				src.Activities[*index] = a.Clone()
				domain.SortActivities(src.Activities)
				return nil
			}
			src.Activities = slices.Delete(src.Activities, *index, *index+1)
		}
		dst.Activities = append(dst.Activities, a.Clone())
		domain.SortActivities(dst.Activities)
		return nil
	})
}

// MoveActivityAt moves the activity currently at index on fromDay to the
// end of toDay and re-sorts toDay. The activity is read inside the same
// mutation that moves it, so a concurrent edit can never cause a stale copy
// to be written. Moving onto the same day leaves the day unchanged.
func (s *ItineraryStore) MoveActivityAt(ctx context.Context, fromDay, toDay string, index int) (domain.Plan, error) {
	return s.mutate(ctx, "MoveActivityAt", func(p *domain.Plan) error {
		src, err := dayOf(p, fromDay)
		if err != nil {
			return err
		}
		if err := checkIndex(index, len(src.Activities)); err != nil {
			return err
		}
		dst, err := dayOf(p, toDay)
		if err != nil {
			return err
		}
		if fromDay == toDay {
			return nil
		}
		a := src.Activities[index]
		src.Activities = slices.Delete(src.Activities, index, index+1)
		dst.Activities = append(dst.Activities, a)
		domain.SortActivities(dst.Activities)
		return nil
	})
}

// EditActivity replaces the activity at index with fn applied to its
// current value, then re-sorts the day. fn runs inside the mutation.
func (s *ItineraryStore) EditActivity(ctx context.Context, dayID string, index int, fn func(domain.Activity) domain.Activity) (domain.Plan, error) {
	return s.mutate(ctx, "EditActivity", func(p *domain.Plan) error {
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		if err := checkIndex(index, len(d.Activities)); err != nil {
			return err
		}
		a := fn(d.Activities[index].Clone())
		if err := validateActivity(a); err != nil {
			return err
		}
		d.Activities[index] = a
		domain.SortActivities(d.Activities)
		return nil
	})
}

// AddIdea appends a to the idea pool.
func (s *ItineraryStore) AddIdea(ctx context.Context, a domain.Activity) (domain.Plan, error) {
	return s.mutate(ctx, "AddIdea", func(p *domain.Plan) error {
		if err := validateIdea(a); err != nil {
			return err
		}
		p.Unassigned = append(p.Unassigned, a.Clone())
		return nil
	})
}

// UpdateIdea replaces the idea at index.
func (s *ItineraryStore) UpdateIdea(ctx context.Context, index int, a domain.Activity) (domain.Plan, error) {
	return s.mutate(ctx, "UpdateIdea", func(p *domain.Plan) error {
		if err := validateIdea(a); err != nil {
			return err
		}
		if err := checkIndex(index, len(p.Unassigned)); err != nil {
			return err
		}
		p.Unassigned[index] = a.Clone()
		return nil
	})
}

// RemoveIdea splices the idea at index out of the pool.
func (s *ItineraryStore) RemoveIdea(ctx context.Context, index int) (domain.Plan, error) {
	return s.mutate(ctx, "RemoveIdea", func(p *domain.Plan) error {
		if err := checkIndex(index, len(p.Unassigned)); err != nil {
			return err
		}
		p.Unassigned = slices.Delete(p.Unassigned, index, index+1)
		return nil
	})
}

// MoveIdeaToDay moves the idea at index onto the day and re-sorts the day.
func (s *ItineraryStore) MoveIdeaToDay(ctx context.Context, index int, dayID string) (domain.Plan, error) {
	return s.mutate(ctx, "MoveIdeaToDay", func(p *domain.Plan) error {
		if err := checkIndex(index, len(p.Unassigned)); err != nil {
			return err
		}
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		idea := p.Unassigned[index]
		p.Unassigned = slices.Delete(p.Unassigned, index, index+1)
		d.Activities = append(d.Activities, idea)
		domain.SortActivities(d.Activities)
		return nil
	})
}

// MoveActivityToPool moves the activity at index on the day into the pool.
func (s *ItineraryStore) MoveActivityToPool(ctx context.Context, dayID string, index int) (domain.Plan, error) {
	return s.mutate(ctx, "MoveActivityToPool", func(p *domain.Plan) error {
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		if err := checkIndex(index, len(d.Activities)); err != nil {
			return err
		}
		a := d.Activities[index]
		d.Activities = slices.Delete(d.Activities, index, index+1)
		p.Unassigned = append(p.Unassigned, a)
		return nil
	})
}

// UpdateDayInfo edits a day's title and summary.
func (s *ItineraryStore) UpdateDayInfo(ctx context.Context, dayID, title, summary string) (domain.Plan, error) {
	return s.mutate(ctx, "UpdateDayInfo", func(p *domain.Plan) error {
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: day title is required", domain.ErrValidation)
		}
		d, err := dayOf(p, dayID)
		if err != nil {
			return err
		}
		d.Title = title
		d.Summary = summary
		return nil
	})
}

// Reschedule relabels every day's date as start plus the day's position.
func (s *ItineraryStore) Reschedule(ctx context.Context, start time.Time) (domain.Plan, error) {
	return s.mutate(ctx, "Reschedule", func(p *domain.Plan) error {
		if start.IsZero() {
			return fmt.Errorf("%w: start date is required", domain.ErrValidation)
		}
		for i := range p.Days {
			p.Days[i].Date = start.AddDate(0, 0, i).Format(dayDateLayout)
		}
		return nil
	})
}

// Reset replaces the plan with the bundled default. It can be undone.
func (s *ItineraryStore) Reset(ctx context.Context) (domain.Plan, error) {
	return s.mutate(ctx, "Reset", func(p *domain.Plan) error {
		*p = s.defaults.Clone()
		return nil
	})
}

// Import replaces the plan with an exported file. Both the legacy bare day
// array and the {days, unassigned} object are accepted. A malformed file
// leaves the plan unchanged.
func (s *ItineraryStore) Import(ctx context.Context, data []byte) (domain.Plan, error) {
	imported, err := ParsePlan(data)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("service.ItineraryStore.Import: %w", err)
	}
	return s.mutate(ctx, "Import", func(p *domain.Plan) error {
		*p = imported
		return nil
	})
}

// Undo restores the most recent snapshot and writes it. It reports false,
// and changes nothing, when there is no history.
func (s *ItineraryStore) Undo(ctx context.Context) (bool, error) {
	_, err := s.doc.update(ctx, func(domain.Plan) (domain.Plan, error) {
		prev, ok := s.pop()
		if !ok {
			return domain.Plan{}, errNothingToUndo
		}
		return prev, nil
	})
	if errors.Is(err, errNothingToUndo) {
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("service.ItineraryStore.Undo: %w", err)
	}
	return true, nil
}

// mutate runs fn against a private copy of the plan. A snapshot is pushed
// only when fn succeeds, so a rejected operation leaves no history.
func (s *ItineraryStore) mutate(ctx context.Context, op string, fn func(p *domain.Plan) error) (domain.Plan, error) {
	next, err := s.doc.update(ctx, func(cur domain.Plan) (domain.Plan, error) {
		snapshot := cur.Clone()
		if err := fn(&cur); err != nil {
			return domain.Plan{}, err
		}
		s.push(snapshot)
		return cur, nil
	})
	if err != nil {
		return next, fmt.Errorf("service.ItineraryStore.%s: %w", op, err)
	}
	return next, nil
}

func (s *ItineraryStore) push(p domain.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, p)
	if over := len(s.undo) - s.depth; over > 0 {
		s.undo = slices.Delete(s.undo, 0, over)
	}
}

func (s *ItineraryStore) pop() (domain.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.undo) == 0 {
		return domain.Plan{}, false
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	return last, true
}

// dayOf returns a pointer to the day inside p so callers edit it in place.
func dayOf(p *domain.Plan, dayID string) (*domain.TripDay, error) {
	i := p.DayIndex(dayID)
	if i < 0 {
		return nil, fmt.Errorf("%w: day %q", domain.ErrNotFound, dayID)
	}
	return &p.Days[i], nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: index %d out of range [0,%d)", domain.ErrValidation, index, n)
	}
	return nil
}

// validateActivity checks an activity headed for a day: it needs a title
// and a sortable time.
func validateActivity(a domain.Activity) error {
	if err := validateIdea(a); err != nil {
		return err
	}
	if !activityTime.MatchString(a.Time) {
		return fmt.Errorf("%w: time %q must be HH:mm", domain.ErrValidation, a.Time)
	}
	return nil
}

// validateIdea checks an idea pool entry. Ideas may be unscheduled, but a
// time that is given must be well formed.
func validateIdea(a domain.Activity) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if a.Time != "" && !activityTime.MatchString(a.Time) {
		return fmt.Errorf("%w: time %q must be HH:mm", domain.ErrValidation, a.Time)
	}
	for _, att := range a.Attachments {
		if att.Type != domain.AttachmentImage && att.Type != domain.AttachmentLink {
			return fmt.Errorf("%w: attachment type %q", domain.ErrValidation, att.Type)
		}
	}
	return nil
}

// ParsePlan decodes an exported itinerary file. It accepts a bare TripDay
// array (legacy) or a {days, unassigned} object; a missing unassigned list
// decodes as empty. Days are re-sorted by time.
func ParsePlan(data []byte) (domain.Plan, error) {
	var top json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return domain.Plan{}, fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}

	var p domain.Plan
	switch firstByte(top) {
	case '[':
		if err := json.Unmarshal(top, &p.Days); err != nil {
			return domain.Plan{}, fmt.Errorf("%w: days: %v", domain.ErrValidation, err)
		}
	case '{':
		var obj struct {
			Days       json.RawMessage `json:"days"`
			Unassigned json.RawMessage `json:"unassigned"`
		}
		if err := json.Unmarshal(top, &obj); err != nil {
			return domain.Plan{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if firstByte(obj.Days) != '[' {
			return domain.Plan{}, fmt.Errorf("%w: days must be an array", domain.ErrValidation)
		}
		if err := json.Unmarshal(obj.Days, &p.Days); err != nil {
			return domain.Plan{}, fmt.Errorf("%w: days: %v", domain.ErrValidation, err)
		}
		switch firstByte(obj.Unassigned) {
		case 0, 'n':
		case '[':
			if err := json.Unmarshal(obj.Unassigned, &p.Unassigned); err != nil {
				return domain.Plan{}, fmt.Errorf("%w: unassigned: %v", domain.ErrValidation, err)
			}
		default:
			return domain.Plan{}, fmt.Errorf("%w: unassigned must be an array", domain.ErrValidation)
		}
	default:
		return domain.Plan{}, fmt.Errorf("%w: expected a day array or an object", domain.ErrValidation)
	}

	seen := make(map[string]bool, len(p.Days))
	for i, d := range p.Days {
		if d.ID == "" {
			return domain.Plan{}, fmt.Errorf("%w: day %d has no id", domain.ErrValidation, i)
		}
		if seen[d.ID] {
			return domain.Plan{}, fmt.Errorf("%w: duplicate day id %q", domain.ErrValidation, d.ID)
		}
		seen[d.ID] = true
		domain.SortActivities(p.Days[i].Activities)
	}
	return p.Normalize(), nil
}

// firstByte returns the first non-space byte of a JSON value, or 0.
func firstByte(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
