package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"time"

	"escala_notifier/internal/domain/escala"
	"escala_notifier/internal/domain/reminder"
	"escala_notifier/internal/domain/whatsapp"

	"github.com/sirupsen/logrus"
)

var testLoc = time.FixedZone("BRT", -3*60*60)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, testLoc)
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeSlotRepo struct {
	links       []*escala.Link
	slots       []*escala.Slot
	assignments []*escala.RoleAssignment
	linksErr    error
	slotsErr    error
	slotCalls   int
}

func (r *fakeSlotRepo) ListPublishedLinks(_ context.Context, month, year int) ([]*escala.Link, error) {
	if r.linksErr != nil {
		return nil, r.linksErr
	}
	var out []*escala.Link
	for _, l := range r.links {
		if l.Month == month && l.Year == year && l.Status == escala.LinkStatusPublished {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ListSlotsOnDate(_ context.Context, linkIDs []string, date time.Time) ([]*escala.Slot, error) {
	r.slotCalls++
	if r.slotsErr != nil {
		return nil, r.slotsErr
	}
	allowed := make(map[string]bool, len(linkIDs))
	for _, id := range linkIDs {
		allowed[id] = true
	}
	var out []*escala.Slot
	for _, s := range r.slots {
		if allowed[s.LinkID] && s.Date.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) ListAssignments(_ context.Context, slotIDs []string) ([]*escala.RoleAssignment, error) {
	allowed := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		allowed[id] = true
	}
	var out []*escala.RoleAssignment
	for _, a := range r.assignments {
		if allowed[a.SlotID] {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePeopleRepo struct {
	people []*escala.Person
	err    error
}

func (r *fakePeopleRepo) ListByIDs(_ context.Context, ids []string) ([]*escala.Person, error) {
	if r.err != nil {
		return nil, r.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*escala.Person
	for _, p := range r.people {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type logKey struct {
	slotID   string
	slotDate string
	personID string
	kind     reminder.Kind
}

// memLogRepo mirrors the conflict semantics of the Postgres repository.
type memLogRepo struct {
	mu        sync.Mutex
	rows      map[logKey]*reminder.LogEntry
	listErr   error
	upsertErr error
	claimErr  error
	upserts   int
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{rows: make(map[logKey]*reminder.LogEntry)}
}

func keyOf(e *reminder.LogEntry) logKey {
	return logKey{e.SlotID, e.SlotDate.Format("2006-01-02"), e.PersonID, e.Kind}
}

func (r *memLogRepo) put(e *reminder.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.rows[keyOf(e)] = &cp
}

func (r *memLogRepo) get(slotID string, slotDate time.Time, personID string, kind reminder.Kind) *reminder.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[logKey{slotID, slotDate.Format("2006-01-02"), personID, kind}]
}

func (r *memLogRepo) ListForKeys(_ context.Context, kind reminder.Kind, slotIDs, personIDs []string) ([]*reminder.LogEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	slots := make(map[string]bool)
	for _, id := range slotIDs {
		slots[id] = true
	}
	people := make(map[string]bool)
	for _, id := range personIDs {
		people[id] = true
	}
	var out []*reminder.LogEntry
	for _, e := range r.rows {
		if e.Kind == kind && slots[e.SlotID] && people[e.PersonID] {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLogRepo) Upsert(_ context.Context, e *reminder.LogEntry) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.put(e)
	r.mu.Lock()
	r.upserts++
	r.mu.Unlock()
	return nil
}

func (r *memLogRepo) Claim(_ context.Context, e *reminder.LogEntry, backoff time.Duration) (bool, error) {
	if r.claimErr != nil {
		return false, r.claimErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := keyOf(e)
	if cur, ok := r.rows[k]; ok {
		if cur.Status == reminder.StatusSent || cur.SentAt.After(e.SentAt.Add(-backoff)) {
			return false, nil
		}
	}
	cp := *e
	cp.Status = reminder.StatusPending
	r.rows[k] = &cp
	return true, nil
}

func (r *memLogRepo) CountByStatusSince(_ context.Context, since time.Time) (map[reminder.Kind]map[reminder.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[reminder.Kind]map[reminder.Status]int)
	for _, e := range r.rows {
		if e.SentAt.Before(since) {
			continue
		}
		if out[e.Kind] == nil {
			out[e.Kind] = make(map[reminder.Status]int)
		}
		out[e.Kind][e.Status]++
	}
	return out, nil
}

// ctxLogRepo rejects writes on a done context, like database/sql.
type ctxLogRepo struct {
	*memLogRepo
}

func (r *ctxLogRepo) Upsert(ctx context.Context, e *reminder.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.memLogRepo.Upsert(ctx, e)
}

func (r *ctxLogRepo) Claim(ctx context.Context, e *reminder.LogEntry, backoff time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return r.memLogRepo.Claim(ctx, e, backoff)
}

type ctxAuditRepo struct {
	*fakeAuditRepo
}

func (r *ctxAuditRepo) Append(ctx context.Context, e *reminder.DispatchLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.fakeAuditRepo.Append(ctx, e)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*reminder.DispatchLogEntry
	err     error
}

func (r *fakeAuditRepo) Append(_ context.Context, e *reminder.DispatchLogEntry) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

var errProvider = errors.New("provider rejected message")

// fakeSender succeeds unless the phone is listed in failPhones.
type fakeSender struct {
	mu         sync.Mutex
	sent       []whatsapp.Message
	failPhones map[string]bool
	onSend     func()
}

func (s *fakeSender) Send(_ context.Context, msg whatsapp.Message) (whatsapp.SendResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	fail := s.failPhones[msg.Phone]
	hook := s.onSend
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail {
		return whatsapp.SendResult{StatusCode: 500, Body: `{"error":"boom"}`}, errProvider
	}
	return whatsapp.SendResult{StatusCode: 200, Body: `{"ok":true}`}, nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	l.held[key] = true
	return func(context.Context) error {
		delete(l.held, key)
		l.released = append(l.released, key)
		return nil
	}, true, nil
}
