package collections

import (
	"strings"

	"simplstream/internal/storage"
	"simplstream/models"
)

type pinnedDoc = map[string][]string

// PinnedChannels returns the channel names profileID pinned, in pin order.
func (m *Manager) PinnedChannels(profileID string) ([]string, error) {
	doc := pinnedDoc{}
	if err := storage.ReadJSON(m.store, storage.KeyPinnedChannels, &doc); err != nil {
		return nil, err
	}
	if names := doc[profileID]; names != nil {
		return names, nil
	}
	return []string{}, nil
}

// TogglePinned pins channel for profileID, or unpins it when already pinned.
// It returns the new pinned state. Channels are identified by name.
func (m *Manager) TogglePinned(profileID, channel string) (pinned bool, err error) {
	if err := requireProfile(profileID); err != nil {
		return false, err
	}
	if strings.TrimSpace(channel) == "" {
		return false, models.NewValidationError("channel", "is required")
	}

	err = storage.MutateJSON(m.store, storage.KeyPinnedChannels, func() pinnedDoc { return pinnedDoc{} }, func(doc pinnedDoc) (pinnedDoc, error) {
		names := doc[profileID]
		for i, name := range names {
			if name == channel {
				doc[profileID] = append(names[:i:i], names[i+1:]...)
				pinned = false
				return doc, nil
			}
		}
		doc[profileID] = append(names, channel)
		pinned = true
		return doc, nil
	})
	return pinned, err
}

// IsPinned reports whether profileID pinned channel.
func (m *Manager) IsPinned(profileID, channel string) (bool, error) {
	names, err := m.PinnedChannels(profileID)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == channel {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) purgePinned(profileID string) error {
	return deleteMapEntry[[]string](m.store, storage.KeyPinnedChannels, profileID)
}
