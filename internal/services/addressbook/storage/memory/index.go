package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
)

// IndexStore keeps the five read-model indexes in maps.
type IndexStore struct {
	mu      sync.RWMutex
	names   map[string]ids.ProfileID
	labels  map[projection.LabelKey]ids.AddressID
	tokens  map[ids.Token]ids.AddressID
	reverse map[ids.AddressID]projection.LabelKey
	byOwner map[ids.ProfileID]map[ids.AddressID]struct{}
}

// NewIndexStore returns an empty store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		names:   make(map[string]ids.ProfileID),
		labels:  make(map[projection.LabelKey]ids.AddressID),
		tokens:  make(map[ids.Token]ids.AddressID),
		reverse: make(map[ids.AddressID]projection.LabelKey),
		byOwner: make(map[ids.ProfileID]map[ids.AddressID]struct{}),
	}
}

func (s *IndexStore) ProfileIDByName(_ context.Context, name string) (ids.ProfileID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.names[name]
	return id, ok, nil
}

func (s *IndexStore) PutProfileName(_ context.Context, name string, id ids.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[name] = id
	return nil
}

func (s *IndexStore) DeleteProfileName(_ context.Context, name string, id ids.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.names[name] == id {
		delete(s.names, name)
	}
	return nil
}

func (s *IndexStore) AddressIDByLabel(_ context.Context, key projection.LabelKey) (ids.AddressID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.labels[key]
	return id, ok, nil
}

func (s *IndexStore) PutLabel(_ context.Context, key projection.LabelKey, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[key] = id
	return nil
}

func (s *IndexStore) DeleteLabel(_ context.Context, key projection.LabelKey, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.labels[key]; ok && current == id {
		delete(s.labels, key)
	}
	return nil
}

func (s *IndexStore) AddressIDByToken(_ context.Context, token ids.Token) (ids.AddressID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok, nil
}

func (s *IndexStore) PutToken(_ context.Context, token ids.Token, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = id
	return nil
}

func (s *IndexStore) DeleteToken(_ context.Context, token ids.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *IndexStore) LabelByAddressID(_ context.Context, id ids.AddressID) (projection.LabelKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.reverse[id]
	return key, ok, nil
}

func (s *IndexStore) PutReverse(_ context.Context, id ids.AddressID, key projection.LabelKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reverse[id] = key
	return nil
}

func (s *IndexStore) DeleteReverse(_ context.Context, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reverse, id)
	return nil
}

func (s *IndexStore) AddressIDsByOwner(_ context.Context, owner ids.ProfileID) ([]ids.AddressID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ids.AddressID, 0, len(s.byOwner[owner]))
	for id := range s.byOwner[owner] {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b ids.AddressID) int { return strings.Compare(a.String(), b.String()) })
	return out, nil
}

func (s *IndexStore) AddOwned(_ context.Context, owner ids.ProfileID, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byOwner[owner]
	if !ok {
		set = make(map[ids.AddressID]struct{})
		s.byOwner[owner] = set
	}
	set[id] = struct{}{}
	return nil
}

func (s *IndexStore) RemoveOwned(_ context.Context, owner ids.ProfileID, id ids.AddressID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.byOwner[owner]
	delete(set, id)
	if len(set) == 0 {
		delete(s.byOwner, owner)
	}
	return nil
}

// Snapshot is a comparable copy of every index.
type Snapshot struct {
	Names   map[string]ids.ProfileID
	Labels  map[projection.LabelKey]ids.AddressID
	Tokens  map[ids.Token]ids.AddressID
	Reverse map[ids.AddressID]projection.LabelKey
	ByOwner map[ids.ProfileID][]ids.AddressID
}

// Snapshot copies the current indexes, e.g. to compare a replayed read model
// with an incrementally built one.
func (s *IndexStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Names:   make(map[string]ids.ProfileID, len(s.names)),
		Labels:  make(map[projection.LabelKey]ids.AddressID, len(s.labels)),
		Tokens:  make(map[ids.Token]ids.AddressID, len(s.tokens)),
		Reverse: make(map[ids.AddressID]projection.LabelKey, len(s.reverse)),
		ByOwner: make(map[ids.ProfileID][]ids.AddressID, len(s.byOwner)),
	}
	for k, v := range s.names {
		snap.Names[k] = v
	}
	for k, v := range s.labels {
		snap.Labels[k] = v
	}
	for k, v := range s.tokens {
		snap.Tokens[k] = v
	}
	for k, v := range s.reverse {
		snap.Reverse[k] = v
	}
	for owner, set := range s.byOwner {
		list := make([]ids.AddressID, 0, len(set))
		for id := range set {
			list = append(list, id)
		}
		slices.SortFunc(list, func(a, b ids.AddressID) int { return strings.Compare(a.String(), b.String()) })
		snap.ByOwner[owner] = list
	}
	return snap
}
