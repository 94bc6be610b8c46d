package collections

import (
	"strings"

	"simplstream/internal/storage"
	"simplstream/utils"
)

// MaxSearchHistory is how many queries are remembered per profile.
const MaxSearchHistory = 20

type searchDoc = map[string][]string

func newSearchDoc() searchDoc { return searchDoc{} }

// SearchHistory returns profileID's queries, most recent first.
func (m *Manager) SearchHistory(profileID string) ([]string, error) {
	doc := newSearchDoc()
	if err := storage.ReadJSON(m.store, storage.KeySearchHistory, &doc); err != nil {
		return nil, err
	}
	if q := doc[profileID]; q != nil {
		return q, nil
	}
	return []string{}, nil
}

// AddSearch moves query to the front of profileID's history, dropping any
// earlier entry that differs only in case. Callers check the profile's
// search-history toggle first.
func (m *Manager) AddSearch(profileID, query string) error {
	if err := requireProfile(profileID); err != nil {
		return err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	folded := utils.FoldKey(query)
	return storage.MutateJSON(m.store, storage.KeySearchHistory, newSearchDoc, func(doc searchDoc) (searchDoc, error) {
		queries := []string{query}
		for _, q := range doc[profileID] {
			if utils.FoldKey(q) == folded {
				continue
			}
			queries = append(queries, q)
		}
		if len(queries) > MaxSearchHistory {
			queries = queries[:MaxSearchHistory]
		}
		doc[profileID] = queries
		return doc, nil
	})
}

// ClearSearchHistory forgets every query of profileID.
func (m *Manager) ClearSearchHistory(profileID string) error {
	return deleteMapEntry[[]string](m.store, storage.KeySearchHistory, profileID)
}
