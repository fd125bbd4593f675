// Package catalog holds the in-memory, tag-indexed view of bookable services.
package catalog

import (
	"sort"
	"strings"
	"sync"

	apperrors "beauty-workers/internal/common/errors"
	"beauty-workers/internal/models"
)

// Index is safe for concurrent readers and writers. Services are stored as
// private copies, so callers never share tag slices with the index.
type Index struct {
	mu         sync.RWMutex
	services   map[string]*models.Service
	byTag      map[string]map[string]struct{}
	byCategory map[string]map[string]struct{}
	loaded     bool
}

// NewIndex returns an empty index. It reports itself loaded only after Load
// or the first Add.
func NewIndex() *Index {
	return &Index{
		services:   make(map[string]*models.Service),
		byTag:      make(map[string]map[string]struct{}),
		byCategory: make(map[string]map[string]struct{}),
	}
}

// Load replaces the index contents with a full snapshot.
func (idx *Index) Load(services []models.Service) error {
	fresh := NewIndex()
	for _, svc := range services {
		if err := validateService(svc); err != nil {
			return err
		}
		fresh.put(svc)
	}

	idx.mu.Lock()
	idx.services = fresh.services
	idx.byTag = fresh.byTag
	idx.byCategory = fresh.byCategory
	idx.loaded = true
	idx.mu.Unlock()
	return nil
}

// Add inserts or replaces a service. Re-adding an id replaces it in every
// index.
func (idx *Index) Add(svc models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(svc.ID)
	idx.put(svc)
	idx.loaded = true
	return nil
}

// Remove deletes a service. It reports whether the id was present.
func (idx *Index) Remove(serviceID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeLocked(serviceID)
}

// Get returns a copy of the service with the given id.
func (idx *Index) Get(serviceID string) (models.Service, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	svc, ok := idx.services[serviceID]
	if !ok {
		return models.Service{}, false
	}
	return svc.Clone(), true
}

// Len returns the number of indexed services.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.services)
}

// Loaded reports whether a snapshot or at least one service has been indexed.
func (idx *Index) Loaded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.loaded
}

// CandidatesFor returns the services eligible for a preference's focus,
// ordered by id. Broad focus (multiple or unspecified) returns the whole
// catalog. Tag overlap is not required; filtering by tags happens in scoring.
func (idx *Index) CandidatesFor(pref models.Preference) ([]models.Service, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.loaded {
		return nil, apperrors.NewCatalogUnavailableError(nil)
	}

	var ids []string
	if pref.ServiceTypeFocus.IsBroad() {
		ids = make([]string, 0, len(idx.services))
		for id := range idx.services {
			ids = append(ids, id)
		}
	} else {
		bucket := idx.byCategory[string(pref.ServiceTypeFocus)]
		ids = make([]string, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]models.Service, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.services[id].Clone())
	}
	return out, nil
}

// TaggedWith returns the ids of services carrying the tag, ordered by id.
func (idx *Index) TaggedWith(tag string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bucket := idx.byTag[tag]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merchants returns the distinct merchant ids present in the index.
func (idx *Index) Merchants() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, svc := range idx.services {
		seen[svc.MerchantID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (idx *Index) put(svc models.Service) {
	stored := svc.Clone()
	idx.services[stored.ID] = &stored

	addTo(idx.byCategory, stored.Category, stored.ID)
	for name := range stored.TagNames() {
		addTo(idx.byTag, name, stored.ID)
	}
}

func (idx *Index) removeLocked(serviceID string) bool {
	old, ok := idx.services[serviceID]
	if !ok {
		return false
	}
	delete(idx.services, serviceID)
	removeFrom(idx.byCategory, old.Category, serviceID)
	for name := range old.TagNames() {
		removeFrom(idx.byTag, name, serviceID)
	}
	return true
}

func addTo(index map[string]map[string]struct{}, key, id string) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[string]struct{})
		index[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removeFrom(index map[string]map[string]struct{}, key, id string) {
	bucket, ok := index[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(index, key)
	}
}

func validateService(svc models.Service) error {
	switch {
	case strings.TrimSpace(svc.ID) == "":
		return apperrors.NewValidationError("id", "service id is required")
	case strings.TrimSpace(svc.MerchantID) == "":
		return apperrors.NewValidationError("merchantId", "service merchantId is required")
	case svc.PriceCents < 0:
		return apperrors.NewValidationError("priceCents", "price must not be negative")
	case svc.DurationMinutes < 0:
		return apperrors.NewValidationError("durationMinutes", "duration must not be negative")
	case strings.TrimSpace(svc.Category) == "":
		return apperrors.NewValidationError("category", "service category is required")
	}
	return nil
}
