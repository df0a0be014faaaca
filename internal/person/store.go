// Package person manages people and their credits on media items.
package person

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/mmcdole/suasor/internal/api"
	"github.com/mmcdole/suasor/internal/cache"
	"github.com/mmcdole/suasor/internal/domain"
	"github.com/mmcdole/suasor/internal/state"
)

const searchTTL = 10 * time.Minute

func detailsKey(id int64) string             { return cache.Key("person", "details", id) }
func mediaCreditsKey(itemID string) string   { return cache.Key("credits", "mediaItem", itemID) }
func personCreditsKey(personID int64) string { return cache.Key("credits", "person", personID) }

// State holds loaded people, their credits and the last search
type State struct {
	People map[int64]domain.Person
	// Credits is keyed by credit ID; CreditsByPerson and CreditsByItem index it
	Credits         map[int64]domain.Credit
	CreditsByPerson map[int64][]int64
	CreditsByItem   map[string][]int64
	SearchResults   []int64
}

// rebuild recomputes the credit indexes from Credits
func rebuild(st State) State {
	st.CreditsByPerson = make(map[int64][]int64)
	st.CreditsByItem = make(map[string][]int64)
	ids := make([]int64, 0, len(st.Credits))
	for id := range st.Credits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := st.Credits[ids[i]], st.Credits[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	for _, id := range ids {
		c := st.Credits[id]
		st.CreditsByPerson[c.PersonID] = append(st.CreditsByPerson[c.PersonID], id)
		st.CreditsByItem[c.MediaItemID] = append(st.CreditsByItem[c.MediaItemID], id)
	}
	return st
}

func withPeople(st State, people ...domain.Person) State {
	next := st
	next.People = make(map[int64]domain.Person, len(st.People)+len(people))
	for id, p := range st.People {
		next.People[id] = p
	}
	for _, p := range people {
		next.People[p.ID] = p
	}
	return next
}

func withCredits(st State, credits ...domain.Credit) State {
	next := st
	next.Credits = make(map[int64]domain.Credit, len(st.Credits)+len(credits))
	for id, c := range st.Credits {
		next.Credits[id] = c
	}
	for _, c := range credits {
		next.Credits[c.ID] = c
	}
	return rebuild(next)
}

// withoutCredits copies st without the credits drop matches
func withoutCredits(st State, drop func(domain.Credit) bool) State {
	next := st
	next.Credits = make(map[int64]domain.Credit, len(st.Credits))
	for id, c := range st.Credits {
		if !drop(c) {
			next.Credits[id] = c
		}
	}
	return rebuild(next)
}

// CreditsFor resolves the credit index of a person
func (s State) CreditsFor(personID int64) []domain.Credit {
	return s.resolve(s.CreditsByPerson[personID])
}

// CreditsOf resolves the credit index of a media item
func (s State) CreditsOf(itemID string) []domain.Credit {
	return s.resolve(s.CreditsByItem[itemID])
}

func (s State) resolve(ids []int64) []domain.Credit {
	out := make([]domain.Credit, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Credits[id])
	}
	return out
}

// Store reads and mutates people and credits
type Store struct {
	api     *api.Client
	state   *state.Store[State]
	people  *cache.Cache[domain.Person]
	results *cache.Cache[[]domain.Person]
	credits *cache.Cache[[]domain.Credit]
	logger  *slog.Logger
	opts    state.Options
}

// New creates a Store
func New(client *api.Client, opts state.Options) *Store {
	opts = opts.WithDefaults()
	return &Store{
		api:     client,
		state:   state.New(rebuild(State{})),
		people:  cache.New[domain.Person](opts.Cache),
		results: cache.New[[]domain.Person](opts.Cache),
		credits: cache.New[[]domain.Credit](opts.Cache),
		logger:  opts.Logger,
		opts:    opts,
	}
}

// State exposes the store for subscription and snapshots
func (s *Store) State() *state.Store[State] { return s.state }

// Search finds people matching q. Results are cached for 10 minutes.
func (s *Store) Search(ctx context.Context, q domain.PersonSearchQuery) []domain.Person {
	filters, err := json.Marshal(q)
	if err != nil {
		s.state.SetError(err)
		return []domain.Person{}
	}
	params := url.Values{}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	if q.Department != "" {
		params.Set("department", q.Department)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	people, _, err := state.Fetch(ctx, s.state, s.results, cache.Key("person", "search", string(filters)),
		func(ctx context.Context) ([]domain.Person, error) {
			return api.Get[[]domain.Person](ctx, s.api, "/people", params).Unwrap()
		},
		func(st State, people []domain.Person) State {
			next := withPeople(st, people...)
			next.SearchResults = make([]int64, 0, len(people))
			for _, p := range people {
				next.SearchResults = append(next.SearchResults, p.ID)
			}
			return next
		},
		cache.WithTTL(searchTTL),
	)
	if err != nil {
		s.logger.Error("person search failed", "error", err, "query", q.Query)
		return []domain.Person{}
	}
	return people
}

// Person loads one person
func (s *Store) Person(ctx context.Context, id int64) *domain.Person {
	p, _, err := state.Fetch(ctx, s.state, s.people, detailsKey(id),
		func(ctx context.Context) (domain.Person, error) {
			return api.Get[domain.Person](ctx, s.api, api.Path("people", id), nil).Unwrap()
		},
		func(st State, p domain.Person) State { return withPeople(st, p) },
	)
	if err != nil {
		s.logger.Error("failed to load person", "error", err, "id", id)
		return nil
	}
	return &p
}

func (s *Store) invalidateSearches() {
	s.results.InvalidatePrefix("person", "search")
}

func (s *Store) savePerson(ctx context.Context, call func(context.Context) (domain.Person, error), success, verb string) *domain.Person {
	p, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Person]{
		Call:  call,
		Apply: func(st State, p domain.Person) State { return withPeople(st, p) },
		Invalidate: func(p domain.Person) {
			s.people.Invalidate(detailsKey(p.ID))
			s.invalidateSearches()
		},
		Success: success,
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to "+verb+" person", "error", err)
		return nil
	}
	s.logger.Info(verb+"d person", "id", p.ID, "name", p.Name)
	return &p
}

// Create adds a person
func (s *Store) Create(ctx context.Context, p domain.Person) *domain.Person {
	return s.savePerson(ctx, func(ctx context.Context) (domain.Person, error) {
		return api.Post[domain.Person](ctx, s.api, "/people", p).Unwrap()
	}, "Person created", "create")
}

// Import fetches a person from a metadata provider into the library
func (s *Store) Import(ctx context.Context, req domain.PersonImportRequest) *domain.Person {
	return s.savePerson(ctx, func(ctx context.Context) (domain.Person, error) {
		return api.Post[domain.Person](ctx, s.api, "/people/import", req).Unwrap()
	}, "Person imported", "import")
}

// Update replaces a person
func (s *Store) Update(ctx context.Context, id int64, p domain.Person) *domain.Person {
	p.ID = id
	return s.savePerson(ctx, func(ctx context.Context) (domain.Person, error) {
		return api.Put[domain.Person](ctx, s.api, api.Path("people", id), p).Unwrap()
	}, "Person updated", "update")
}

// Delete removes a person and every credit that names them
func (s *Store) Delete(ctx context.Context, id int64) bool {
	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("people", id)).Unwrap()
		},
		Apply: func(st State, _ struct{}) State {
			next := st
			next.People = make(map[int64]domain.Person, len(st.People))
			for pid, p := range st.People {
				if pid != id {
					next.People[pid] = p
				}
			}
			next.SearchResults = make([]int64, 0, len(st.SearchResults))
			for _, pid := range st.SearchResults {
				if pid != id {
					next.SearchResults = append(next.SearchResults, pid)
				}
			}
			return withoutCredits(next, func(c domain.Credit) bool { return c.PersonID == id })
		},
		Invalidate: func(struct{}) {
			s.people.Invalidate(detailsKey(id))
			s.invalidateSearches()
			s.credits.InvalidatePrefix("credits", "person", id)
			s.credits.InvalidatePrefix("credits", "mediaItem")
		},
		Success: "Person deleted",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete person", "error", err, "id", id)
		return false
	}
	s.logger.Info("deleted person", "id", id)
	return true
}

func (s *Store) loadCredits(ctx context.Context, key, path string) ([]domain.Credit, error) {
	credits, _, err := state.Fetch(ctx, s.state, s.credits, key,
		func(ctx context.Context) ([]domain.Credit, error) {
			return api.Get[[]domain.Credit](ctx, s.api, path, nil).Unwrap()
		},
		func(st State, credits []domain.Credit) State { return withCredits(st, credits...) },
	)
	return credits, err
}

// CreditsForMediaItem loads the cast and crew of a media item
func (s *Store) CreditsForMediaItem(ctx context.Context, itemID string) []domain.Credit {
	credits, err := s.loadCredits(ctx, mediaCreditsKey(itemID), api.Path("media", "items", itemID, "credits"))
	if err != nil {
		s.logger.Error("failed to load media item credits", "error", err, "mediaItemID", itemID)
		return []domain.Credit{}
	}
	return credits
}

// CreditsForPerson loads a person's filmography
func (s *Store) CreditsForPerson(ctx context.Context, personID int64) []domain.Credit {
	credits, err := s.loadCredits(ctx, personCreditsKey(personID), api.Path("people", personID, "credits"))
	if err != nil {
		s.logger.Error("failed to load person credits", "error", err, "personID", personID)
		return []domain.Credit{}
	}
	return credits
}

func (s *Store) invalidateCredits(credits ...domain.Credit) {
	for _, c := range credits {
		s.credits.Invalidate(mediaCreditsKey(c.MediaItemID))
		s.credits.Invalidate(personCreditsKey(c.PersonID))
	}
}

// CreateCredit adds one credit
func (s *Store) CreateCredit(ctx context.Context, c domain.Credit) *domain.Credit {
	created, err := state.Mutate(ctx, s.state, state.Mutation[State, domain.Credit]{
		Call: func(ctx context.Context) (domain.Credit, error) {
			return api.Post[domain.Credit](ctx, s.api, "/credits", c).Unwrap()
		},
		Apply:      func(st State, c domain.Credit) State { return withCredits(st, c) },
		Invalidate: func(created domain.Credit) { s.invalidateCredits(c, created) },
		Success:    "Credit created",
		Dismiss:    s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to create credit", "error", err, "personID", c.PersonID, "mediaItemID", c.MediaItemID)
		return nil
	}
	return &created
}

// CreateCreditsForMediaItem adds a batch of credits to one media item
func (s *Store) CreateCreditsForMediaItem(ctx context.Context, itemID string, credits []domain.Credit) []domain.Credit {
	for i := range credits {
		credits[i].MediaItemID = itemID
	}
	created, err := state.Mutate(ctx, s.state, state.Mutation[State, []domain.Credit]{
		Call: func(ctx context.Context) ([]domain.Credit, error) {
			return api.Post[[]domain.Credit](ctx, s.api, api.Path("media", "items", itemID, "credits"), credits).Unwrap()
		},
		Apply: func(st State, created []domain.Credit) State { return withCredits(st, created...) },
		Invalidate: func(created []domain.Credit) {
			s.credits.Invalidate(mediaCreditsKey(itemID))
			s.invalidateCredits(created...)
		},
		Success: "Credits created",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to create credits", "error", err, "mediaItemID", itemID, "count", len(credits))
		return []domain.Credit{}
	}
	return created
}

// DeleteCredit removes one credit
func (s *Store) DeleteCredit(ctx context.Context, id int64) bool {
	known, haveKnown := s.state.Data().Credits[id]

	_, err := state.Mutate(ctx, s.state, state.Mutation[State, struct{}]{
		Call: func(ctx context.Context) (struct{}, error) {
			return api.Delete[struct{}](ctx, s.api, api.Path("credits", id)).Unwrap()
		},
		Apply: func(st State, _ struct{}) State {
			return withoutCredits(st, func(c domain.Credit) bool { return c.ID == id })
		},
		Invalidate: func(struct{}) {
			if haveKnown {
				s.invalidateCredits(known)
				return
			}
			// unknown owner; drop every credit list
			s.credits.InvalidatePrefix("credits")
		},
		Success: "Credit deleted",
		Dismiss: s.opts.SuccessDismiss,
	})
	if err != nil {
		s.logger.Error("failed to delete credit", "error", err, "id", id)
		return false
	}
	return true
}
