package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/securetodo/internal/keymanager"
	"github.com/roach88/securetodo/internal/keyscheme"
	"github.com/roach88/securetodo/internal/projection"
	"github.com/roach88/securetodo/internal/record"
	"github.com/roach88/securetodo/internal/store"
)

// ErrNotFound is returned by id-addressed operations when nothing is
// persisted under the id.
var ErrNotFound = errors.New("controller: record not found")

// Controller applies to-do operations to a RecordStore and its projection.
type Controller struct {
	mu        sync.Mutex
	store     RecordStore
	ids       record.IDGenerator
	logger    *slog.Logger
	projector *projection.Projector
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDGenerator sets the generator for records saved without an id.
//
// Default: record.UUIDv7Generator
func WithIDGenerator(ids record.IDGenerator) Option {
	return func(c *Controller) {
		c.ids = ids
	}
}

// WithLogger sets the logger for operations and degraded scans.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller over s with an empty projection.
func New(s RecordStore, opts ...Option) *Controller {
	c := &Controller{
		store:     s,
		ids:       record.UUIDv7Generator{},
		logger:    slog.Default(),
		projector: projection.NewProjector(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save writes r and upserts it into the projection. A record without an id
// gets one before its key is derived. If a record with the same id is
// already persisted under another date, Save moves it: the new key is
// written first, then the old key is removed.
func (c *Controller) Save(ctx context.Context, r record.Record) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, r)
}

func (c *Controller) save(ctx context.Context, r record.Record) (record.Record, error) {
	r = r.Normalized()
	if err := r.Validate(false); err != nil {
		return record.Record{}, fmt.Errorf("save record: %w", err)
	}

	var prev record.Record
	var existed bool
	if r.ID == "" {
		r.ID = c.ids.Generate()
		if err := r.Validate(true); err != nil {
			return record.Record{}, fmt.Errorf("save record: generated id: %w", err)
		}
	} else {
		var err error
		prev, existed, err = c.find(ctx, r.ID)
		if err != nil {
			return record.Record{}, fmt.Errorf("save record: %w", err)
		}
	}

	key, err := r.Key()
	if err != nil {
		return record.Record{}, fmt.Errorf("save record: %w", err)
	}
	if err := c.store.Put(ctx, key, r); err != nil {
		return record.Record{}, fmt.Errorf("save record: %w", err)
	}

	moved := existed && prev.Date != r.Date
	if moved {
		oldKey, err := prev.Key()
		if err != nil {
			return record.Record{}, fmt.Errorf("save record: %w", err)
		}
		if err := c.store.Delete(ctx, oldKey); err != nil {
			return record.Record{}, fmt.Errorf("save record: remove previous key: %w", err)
		}
	}

	state := c.projector.Dispatch(projection.Upsert(r))
	c.logger.Debug("record saved",
		"id", r.ID,
		"date", r.Date,
		"moved", moved,
	)

	if moved {
		// The upsert recorded the new date; a record that left the loaded
		// date no longer belongs to the scoped list.
		if state.Scope != "" && state.Scope != r.Date {
			c.projector.Dispatch(projection.Delete(r))
		}
		c.reconcileDate(ctx, prev.Date)
	}
	return r, nil
}

// Delete removes the persisted record with r's id and drops it from the
// projection. Only the id of r is used: the key is derived from the record
// as it is currently persisted, so a stale date on r cannot leave the real
// entry behind. Deleting an id that is not persisted is not an error and
// dispatches nothing. If the record's date has no records left, the known
// dates are rebuilt from a full rescan.
func (c *Controller) Delete(ctx context.Context, r record.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkID(r.ID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	current, ok, err := c.find(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if !ok {
		c.logger.Debug("delete of unknown record ignored", "id", r.ID)
		return nil
	}
	key, err := current.Key()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	c.projector.Dispatch(projection.Delete(current))
	c.logger.Debug("record deleted",
		"id", current.ID,
		"date", current.Date,
	)
	c.reconcileDate(ctx, current.Date)
	return nil
}

// ToggleChecked inverts the checked flag of the persisted record with r's
// id, writes it and toggles the projected record. Only the id of r is used,
// so toggling a stale copy still flips the current state. Returns the
// written record, or ErrNotFound if nothing is persisted under the id.
func (c *Controller) ToggleChecked(ctx context.Context, r record.Record) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkID(r.ID); err != nil {
		return record.Record{}, fmt.Errorf("toggle record: %w", err)
	}
	current, ok, err := c.find(ctx, r.ID)
	if err != nil {
		return record.Record{}, fmt.Errorf("toggle record: %w", err)
	}
	if !ok {
		return record.Record{}, fmt.Errorf("toggle record %q: %w", r.ID, ErrNotFound)
	}
	flipped := current.Toggled()
	key, err := flipped.Key()
	if err != nil {
		return record.Record{}, fmt.Errorf("toggle record: %w", err)
	}
	if err := c.store.Put(ctx, key, flipped); err != nil {
		return record.Record{}, fmt.Errorf("toggle record: %w", err)
	}

	c.projector.Dispatch(projection.Check(flipped.ID))
	c.logger.Debug("record toggled",
		"id", flipped.ID,
		"checked", flipped.Checked,
	)
	return flipped, nil
}

// EditText replaces the text of the persisted record with id.
// Returns ErrNotFound if there is no such record.
func (c *Controller) EditText(ctx context.Context, id, text string) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok, err := c.find(ctx, id)
	if err != nil {
		return record.Record{}, fmt.Errorf("edit record: %w", err)
	}
	if !ok {
		return record.Record{}, fmt.Errorf("edit record %q: %w", id, ErrNotFound)
	}
	r.Text = text
	return c.save(ctx, r)
}

// Lookup returns the record with id, from the projection if loaded and
// from the store otherwise. Returns ErrNotFound if there is no such record.
func (c *Controller) Lookup(ctx context.Context, id string) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok, err := c.find(ctx, id)
	if err != nil {
		return record.Record{}, fmt.Errorf("lookup record: %w", err)
	}
	if !ok {
		return record.Record{}, fmt.Errorf("lookup record %q: %w", id, ErrNotFound)
	}
	return r, nil
}

// LoadDateScope loads the records persisted for date into the projection
// and returns them in id order. An ordinary scan failure is logged and loads
// an empty list. An invalid date, an unavailable vault or a wrong database
// secret is returned as an error and dispatches nothing.
func (c *Controller) LoadDateScope(ctx context.Context, date string) ([]record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix, err := keyscheme.MakeDatePrefix(date)
	if err != nil {
		return nil, fmt.Errorf("load date %q: %w", date, err)
	}
	records, err := c.store.Scan(ctx, prefix)
	if err != nil {
		if isKeyFailure(err) {
			return nil, fmt.Errorf("load date %q: %w", date, err)
		}
		c.logger.Warn("date scan failed, loading empty list",
			"date", date,
			"error", err,
		)
		records = nil
	}
	if records == nil {
		records = []record.Record{}
	}
	record.SortByID(records)

	c.projector.Dispatch(projection.LoadScope(date, records))
	return records, nil
}

// LoadKnownDates rebuilds the known-dates index from a full scan and
// returns the dates in ascending order. An ordinary scan failure is logged
// and loads an empty index; key failures are returned as in LoadDateScope.
func (c *Controller) LoadKnownDates(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dates, err := c.loadKnownDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known dates: %w", err)
	}
	return dates, nil
}

func (c *Controller) loadKnownDates(ctx context.Context) ([]string, error) {
	records, err := c.store.Scan(ctx, keyscheme.RootPrefix())
	if err != nil {
		if isKeyFailure(err) {
			return nil, err
		}
		c.logger.Warn("full scan failed, loading no known dates",
			"error", err,
		)
		records = nil
	}
	dates := record.Dates(records)
	c.projector.Dispatch(projection.LoadKnownDates(dates))
	return dates, nil
}

// isKeyFailure reports whether err means the database secret could not be
// obtained or does not open the store. Such failures are never shown as an
// empty list.
func isKeyFailure(err error) bool {
	return errors.Is(err, keymanager.ErrVaultUnavailable) || errors.Is(err, store.ErrWrongSecret)
}

// State returns a copy of the current projection.
func (c *Controller) State() projection.State {
	return c.projector.State()
}

// Log returns the actions dispatched so far, in order.
func (c *Controller) Log() []projection.Entry {
	return c.projector.Entries()
}

// find looks id up in the projection, then in the store.
func (c *Controller) find(ctx context.Context, id string) (record.Record, bool, error) {
	if r, ok := c.projector.State().Find(id); ok {
		return r, true, nil
	}
	records, err := c.store.Scan(ctx, keyscheme.RootPrefix())
	if err != nil {
		return record.Record{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return record.Record{}, false, nil
}

// checkID validates an id used to address a persisted record.
func checkID(id string) error {
	if id == "" {
		return record.ValidationError{Field: "id", Message: "must not be empty"}
	}
	if err := keyscheme.ValidateID(id); err != nil {
		return record.ValidationError{Field: "id", Message: fmt.Sprintf("must not contain %q", keyscheme.Separator), Err: err}
	}
	return nil
}

// reconcileDate rescans the known dates if date has no records left. Scan
// failures are logged; the index is then left as it was.
func (c *Controller) reconcileDate(ctx context.Context, date string) {
	prefix, err := keyscheme.MakeDatePrefix(date)
	if err != nil {
		return
	}
	remaining, err := c.store.Scan(ctx, prefix)
	if err != nil {
		c.logger.Warn("date scan failed, known dates not reconciled",
			"date", date,
			"error", err,
		)
		return
	}
	if len(remaining) == 0 {
		if _, err := c.loadKnownDates(ctx); err != nil {
			c.logger.Warn("full scan failed, known dates not reconciled",
				"error", err,
			)
		}
	}
}
