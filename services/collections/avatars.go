package collections

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/utils"
)

type avatarDoc = map[string]models.CustomAvatar

// Avatar returns profileID's custom avatar; ok is false when none is set.
func (m *Manager) Avatar(profileID string) (avatar models.CustomAvatar, ok bool, err error) {
	doc := avatarDoc{}
	if err := storage.ReadJSON(m.store, storage.KeyCustomAvatars, &doc); err != nil {
		return models.CustomAvatar{}, false, err
	}
	avatar, ok = doc[profileID]
	return avatar, ok, nil
}

// SetAvatar stores a custom avatar for profileID. Inline data: URLs must carry
// an image payload.
func (m *Manager) SetAvatar(profileID string, avatar models.CustomAvatar) error {
	if err := requireProfile(profileID); err != nil {
		return err
	}
	if err := utils.ValidateStruct(avatar); err != nil {
		return err
	}
	if err := checkAvatarURL(avatar.URL); err != nil {
		return err
	}

	return storage.MutateJSON(m.store, storage.KeyCustomAvatars, func() avatarDoc { return avatarDoc{} }, func(doc avatarDoc) (avatarDoc, error) {
		doc[profileID] = avatar
		return doc, nil
	})
}

// ClearAvatar removes profileID's custom avatar.
func (m *Manager) ClearAvatar(profileID string) error {
	return deleteMapEntry[models.CustomAvatar](m.store, storage.KeyCustomAvatars, profileID)
}

func checkAvatarURL(raw string) error {
	if !strings.HasPrefix(raw, "data:") {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			return models.NewValidationError("url", "must be an absolute URL or a data: URL")
		}
		return nil
	}

	payload, err := dataURIPayload(raw)
	if err != nil {
		return models.NewValidationError("url", err.Error())
	}
	mt := mimetype.Detect(payload)
	if !strings.HasPrefix(mt.String(), "image/") {
		return models.NewValidationError("url", fmt.Sprintf("payload is %s, not an image", mt.String()))
	}
	return nil
}

// dataURIPayload extracts the bytes of a data: URL.
func dataURIPayload(raw string) ([]byte, error) {
	meta, data, found := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !found {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, errors.New("malformed base64 payload")
		}
		return b, nil
	}
	s, err := url.PathUnescape(data)
	if err != nil {
		return nil, errors.New("malformed data URL payload")
	}
	return []byte(s), nil
}
