package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/securetodo/internal/controller"
	"github.com/roach88/securetodo/internal/keymanager"
	"github.com/roach88/securetodo/internal/keyscheme"
	"github.com/roach88/securetodo/internal/record"
	"github.com/roach88/securetodo/internal/store"
	"github.com/roach88/securetodo/internal/testutil"
	"github.com/roach88/securetodo/internal/vault"
)

// errInjected is returned by a record store operation made to fail.
var errInjected = errors.New("harness: injected failure")

// Harness holds one scenario's controller and the store under it.
type Harness struct {
	store  *store.Store
	faults *faultyStore
	ctrl   *controller.Controller
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh encrypted store on a memory engine,
// with a fresh vault and sequential ids, so runs are reproducible.
//
// Execution flow:
// 1. Build vault, key manager, store and controller
// 2. Execute setup steps (any failure aborts the run)
// 3. Execute flow steps, checking expect clauses
// 4. Capture log, projection and keys; evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(ctx)
	if err != nil {
		return nil, err
	}
	defer h.store.Close()

	result := NewResult()

	for i, step := range scenario.Setup {
		if _, err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
	}

	for i, step := range scenario.Flow {
		out, err := h.execute(ctx, step)
		for _, msg := range checkExpect(step, out, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	h.faults.heal()
	keys, err := h.store.Keys(ctx, keyscheme.RootPrefix())
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	result.Keys = keys
	result.Log = h.ctrl.Log()
	result.State = h.ctrl.State()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func newHarness(ctx context.Context) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	keys := keymanager.New(vault.NewMemoryVault(), keymanager.WithLogger(logger))
	st := store.New(store.MemoryOpener(store.NewMemoryEngine()), keys, store.WithLogger(logger))
	if err := st.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	faults := &faultyStore{next: controller.StoreRecords(st)}
	ctrl := controller.New(faults,
		controller.WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
		controller.WithLogger(logger),
	)

	return &Harness{
		store:  st,
		faults: faults,
		ctrl:   ctrl,
	}, nil
}

// outcome is what a step returned.
type outcome struct {
	record  *record.Record
	records []record.Record
	dates   []string
}

// execute performs one step. Move and delete look the record up first, the
// way the CLI does.
func (h *Harness) execute(ctx context.Context, step Step) (outcome, error) {
	switch step.Op {
	case OpSave:
		r, err := h.ctrl.Save(ctx, *step.Record)
		return outcome{record: &r}, err

	case OpToggle:
		r, err := h.ctrl.ToggleChecked(ctx, record.Record{ID: step.ID})
		return outcome{record: &r}, err

	case OpEdit:
		r, err := h.ctrl.EditText(ctx, step.ID, step.Text)
		return outcome{record: &r}, err

	case OpMove:
		r, err := h.ctrl.Lookup(ctx, step.ID)
		if err != nil {
			return outcome{}, err
		}
		r.Date = step.Date
		r, err = h.ctrl.Save(ctx, r)
		return outcome{record: &r}, err

	case OpDelete:
		r, err := h.ctrl.Lookup(ctx, step.ID)
		if err != nil {
			return outcome{}, err
		}
		return outcome{record: &r}, h.ctrl.Delete(ctx, r)

	case OpLoadDate:
		records, err := h.ctrl.LoadDateScope(ctx, step.Date)
		return outcome{records: records}, err

	case OpLoadDates:
		dates, err := h.ctrl.LoadKnownDates(ctx)
		return outcome{dates: dates}, err

	case OpFail:
		h.faults.fail(step.Target)
		return outcome{}, nil

	case OpHeal:
		h.faults.heal()
		return outcome{}, nil
	}
	return outcome{}, fmt.Errorf("unknown op %q", step.Op)
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(step Step, out outcome, err error) []string {
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}

	if exp.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected %s error, got success", exp.Error)}
		}
		switch exp.Error {
		case ErrorNotFound:
			if !errors.Is(err, controller.ErrNotFound) {
				return []string{fmt.Sprintf("expected not_found error, got %v", err)}
			}
		case ErrorInvalid:
			var verr record.ValidationError
			if !errors.As(err, &verr) && !errors.Is(err, keyscheme.ErrInvalidDate) && !errors.Is(err, keyscheme.ErrInvalidID) {
				return []string{fmt.Sprintf("expected invalid error, got %v", err)}
			}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if exp.ID != "" && (out.record == nil || out.record.ID != exp.ID) {
		msgs = append(msgs, fmt.Sprintf("expected id %q, got %s", exp.ID, describeRecordPtr(out.record)))
	}
	if exp.Checked != nil && (out.record == nil || out.record.Checked != *exp.Checked) {
		msgs = append(msgs, fmt.Sprintf("expected checked=%t, got %s", *exp.Checked, describeRecordPtr(out.record)))
	}
	if exp.Text != nil && (out.record == nil || out.record.Text != *exp.Text) {
		msgs = append(msgs, fmt.Sprintf("expected text %q, got %s", *exp.Text, describeRecordPtr(out.record)))
	}
	if exp.Count != nil && len(out.records) != *exp.Count {
		msgs = append(msgs, fmt.Sprintf("expected %d records, got %d", *exp.Count, len(out.records)))
	}
	if exp.Dates != nil && !slices.Equal(exp.Dates, out.dates) {
		msgs = append(msgs, fmt.Sprintf("expected dates %v, got %v", exp.Dates, out.dates))
	}
	return msgs
}

func describeRecordPtr(r *record.Record) string {
	if r == nil {
		return "no record"
	}
	return describeRecord(*r)
}

// faultyStore passes operations through to next unless a failure has been
// injected for that operation.
type faultyStore struct {
	next controller.RecordStore

	mu      sync.Mutex
	putErr  error
	delErr  error
	scanErr error
}

func (f *faultyStore) fail(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch target {
	case TargetPut:
		f.putErr = errInjected
	case TargetDelete:
		f.delErr = errInjected
	case TargetScan:
		f.scanErr = errInjected
	}
}

func (f *faultyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putErr, f.delErr, f.scanErr = nil, nil, nil
}

func (f *faultyStore) injected() (put, del, scan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putErr, f.delErr, f.scanErr
}

func (f *faultyStore) Put(ctx context.Context, key string, r record.Record) error {
	if err, _, _ := f.injected(); err != nil {
		return err
	}
	return f.next.Put(ctx, key, r)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	if _, err, _ := f.injected(); err != nil {
		return err
	}
	return f.next.Delete(ctx, key)
}

func (f *faultyStore) Scan(ctx context.Context, prefix string) ([]record.Record, error) {
	if _, _, err := f.injected(); err != nil {
		return nil, err
	}
	return f.next.Scan(ctx, prefix)
}
