package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
)

// unpaidChecker reports whether a person still has unpaid debts.
// withoutUnpaid runs fn while no debt can change, failing with
// ErrBlockedByActiveDebt when personID has an unpaid debt.
type unpaidChecker interface {
	HasUnpaidForPerson(personID string) bool
	withoutUnpaid(personID string, fn func() error) error
}

// PeopleRepository stores the people collection.
type PeopleRepository struct {
	mu     sync.Mutex
	people collection[models.Person]
	debts  unpaidChecker
	opts   Options
}

// NewPeopleRepository loads the people collection. debts guards deletions;
// it may be nil only when no debt repository exists.
func NewPeopleRepository(ctx context.Context, store storage.Store, debts unpaidChecker, opts Options) *PeopleRepository {
	r := &PeopleRepository{
		people: newCollection[models.Person](store, storage.KeyPeople),
		debts:  debts,
		opts:   opts.withDefaults(),
	}
	r.Reload(ctx)
	return r
}

// Reload re-reads the collection from the store.
func (r *PeopleRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.people.load(ctx)
	return nil
}

// List returns every person in insertion order.
func (r *PeopleRepository) List() []models.Person {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.people.snapshot()
}

// Get returns the person with the given id.
func (r *PeopleRepository) Get(id string) (models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.people.items[i], nil
	}
	return models.Person{}, fmt.Errorf("person %s: %w", id, ErrNotFound)
}

// holdPerson runs fn while the person with the given id cannot be deleted.
func (r *PeopleRepository) holdPerson(id string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(id) < 0 {
		return invalid("personId", fmt.Sprintf("unknown person %q", id))
	}
	return fn()
}

// Exists reports whether a person with the given id exists.
func (r *PeopleRepository) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(id) >= 0
}

// Create assigns an id to draft and persists it.
func (r *PeopleRepository) Create(ctx context.Context, draft models.Person) (models.Person, error) {
	if err := normalizePerson(&draft); err != nil {
		return models.Person{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	draft.ID = r.newID()
	next := append(r.people.snapshot(), draft)
	if err := r.people.commit(ctx, next); err != nil {
		return models.Person{}, err
	}

	r.opts.Logger.Info("Person created", "person_id", draft.ID, "type", draft.Type)
	return draft, nil
}

// Update replaces the stored person with the same id.
func (r *PeopleRepository) Update(ctx context.Context, p models.Person) (models.Person, error) {
	if err := normalizePerson(&p); err != nil {
		return models.Person{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p.ID)
	if i < 0 {
		return models.Person{}, fmt.Errorf("person %s: %w", p.ID, ErrNotFound)
	}
	next := r.people.snapshot()
	next[i] = p
	if err := r.people.commit(ctx, next); err != nil {
		return models.Person{}, err
	}

	r.opts.Logger.Info("Person updated", "person_id", p.ID)
	return p, nil
}

// Delete removes the person with the given id. It fails with
// ErrBlockedByActiveDebt while any unpaid debt references the person.
// This is the only referential check; the store itself enforces none.
func (r *PeopleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	remove := func() error {
		return r.people.commit(ctx, slices.Delete(r.people.snapshot(), i, i+1))
	}

	// Lock order is people then debts, the same as debt creation.
	var err error
	if r.debts != nil {
		err = r.debts.withoutUnpaid(id, remove)
	} else {
		err = remove()
	}
	if errors.Is(err, ErrBlockedByActiveDebt) {
		r.opts.Logger.Warn("Person deletion blocked", "person_id", id)
		return fmt.Errorf("delete person %s: %w", id, err)
	}
	if err != nil {
		return err
	}

	r.opts.Logger.Info("Person deleted", "person_id", id)
	return nil
}

// mergeContacts appends the contacts that do not match an existing person.
// Either every new person is written or none is.
func (r *PeopleRepository) mergeContacts(ctx context.Context, contacts []Contact, strict bool) ([]models.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(r.people.items))
	for _, p := range r.people.items {
		seen[contactKey(p.Name, p.Phone, strict)] = true
	}

	var added []models.Person
	for _, c := range contacts {
		key := contactKey(c.Name, c.Phone, strict)
		if seen[key] {
			continue
		}
		seen[key] = true
		added = append(added, models.Person{
			ID:    r.newID(),
			Name:  strings.TrimSpace(c.Name),
			Type:  models.PersonIndividual,
			Phone: strings.TrimSpace(c.Phone),
		})
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := r.people.commit(ctx, append(r.people.snapshot(), added...)); err != nil {
		return nil, err
	}
	return added, nil
}

func (r *PeopleRepository) indexOf(id string) int {
	return slices.IndexFunc(r.people.items, func(p models.Person) bool { return p.ID == id })
}

// newID returns an id not used by any cached person.
func (r *PeopleRepository) newID() string {
	for {
		id := r.opts.NewID()
		if r.indexOf(id) < 0 {
			return id
		}
	}
}

func normalizePerson(p *models.Person) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return invalid("name", "required")
	}
	if p.Type == "" {
		p.Type = models.PersonIndividual
	}
	if !p.Type.Valid() {
		return invalid("type", fmt.Sprintf("unknown person type %q", p.Type))
	}
	return nil
}

func contactKey(name, phone string, strict bool) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if strict {
		key += "\x00" + strings.TrimSpace(phone)
	}
	return key
}
