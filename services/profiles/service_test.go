package profiles_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/services/profiles"
)

type stubGate struct {
	locked bool
}

func (g *stubGate) Locked() (bool, error) { return g.locked, nil }

type recordingPurger struct {
	purged []string
}

func (r *recordingPurger) PurgeProfile(id string) error {
	r.purged = append(r.purged, id)
	return nil
}

func newService(t *testing.T, opts ...profiles.Option) (*profiles.Service, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return profiles.NewService(store, opts...), store
}

func TestServiceCreateRenameAndDelete(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(models.ProfileInput{Name: "Evening Watcher"})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected created profile to have id")
	}
	if created.AvatarColor != models.DefaultAvatarColor {
		t.Fatalf("expected default colour, got %q", created.AvatarColor)
	}

	renamed, err := svc.Rename(created.ID, "Night Owl")
	if err != nil {
		t.Fatalf("rename returned error: %v", err)
	}
	if renamed.Name != "Night Owl" {
		t.Fatalf("expected renamed profile to have updated name, got %q", renamed.Name)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if svc.Exists(created.ID) {
		t.Fatalf("expected profile to be deleted")
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	svc, _ := newService(t)
	for _, name := range []string{"Ana", "Ben", "Cleo"} {
		if _, err := svc.Create(models.ProfileInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Name != "Ana" || list[1].Name != "Ben" || list[2].Name != "Cleo" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestSaveUpsertsWholeRecord(t *testing.T) {
	svc, _ := newService(t)
	p := models.Profile{ID: "p1", Name: "Ana", AvatarColor: "#fff", AdsRemoved: true}
	if err := svc.Save(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Full replace: fields missing from the new record are dropped.
	if err := svc.Save(models.Profile{ID: "p1", Name: "Ana B"}); err != nil {
		t.Fatalf("save replace: %v", err)
	}

	got, err := svc.Get("p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana B" || got.AdsRemoved || got.AvatarColor != "" {
		t.Fatalf("expected full replace, got %+v", got)
	}

	list, _ := svc.List()
	if len(list) != 1 {
		t.Fatalf("expected upsert to keep a single record, got %d", len(list))
	}
}

func TestSaveRejectsInvalidPIN(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Save(models.Profile{ID: "p1", Name: "Ana", PIN: models.StringPtr("12")})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Get("missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store := newService(t)

	cases := []struct {
		name  string
		input models.ProfileInput
		field string
	}{
		{"empty name", models.ProfileInput{Name: "  "}, "name"},
		{"short pin", models.ProfileInput{Name: "A", PIN: "123", ConfirmPIN: "123", SecurityWord: "w"}, "pin"},
		{"mismatch", models.ProfileInput{Name: "A", PIN: "1234", ConfirmPIN: "4321", SecurityWord: "w"}, "confirm_pin"},
		{"no word", models.ProfileInput{Name: "A", PIN: "1234", ConfirmPIN: "1234"}, "security_word"},
	}
	for _, tc := range cases {
		_, err := svc.Create(tc.input)
		var ve *models.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: expected validation error on %s, got %v", tc.name, tc.field, err)
		}
	}

	if _, ok, _ := store.Get(storage.KeyProfiles); ok {
		t.Fatalf("validation failures must not write")
	}
}

func TestCreateProtectedProfile(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Create(models.ProfileInput{Name: "Kid", PIN: "4321", ConfirmPIN: "4321", SecurityWord: " corgi "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.HasPIN() || *p.PIN != "4321" || *p.SecurityWord != "corgi" {
		t.Fatalf("unexpected security fields: %+v", p)
	}
}

func TestCapacityGate(t *testing.T) {
	svc, _ := newService(t)

	var ids []string
	for i := 0; i < models.MaxProfiles; i++ {
		p, err := svc.Create(models.ProfileInput{Name: fmt.Sprintf("Profile %d", i)})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, p.ID)
	}

	if _, err := svc.Create(models.ProfileInput{Name: "Eleventh"}); !errors.Is(err, models.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error for the 11th profile, got %v", err)
	}
	if err := svc.CheckCapacity(); !errors.Is(err, profiles.ErrProfileLimit) {
		t.Fatalf("expected ErrProfileLimit, got %v", err)
	}

	if err := svc.Delete(ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Create(models.ProfileInput{Name: "Eleventh"}); err != nil {
		t.Fatalf("expected creation to be permitted after delete, got %v", err)
	}
}

func TestAccessGateBlocksCreation(t *testing.T) {
	gate := &stubGate{locked: true}
	svc, _ := newService(t, profiles.WithAccessGate(gate))

	if _, err := svc.Create(models.ProfileInput{Name: "Ana"}); !errors.Is(err, profiles.ErrAccessLocked) {
		t.Fatalf("expected ErrAccessLocked, got %v", err)
	}

	gate.locked = false
	if _, err := svc.Create(models.ProfileInput{Name: "Ana"}); err != nil {
		t.Fatalf("expected creation after unlock, got %v", err)
	}
}

func TestDeleteRunsCascade(t *testing.T) {
	svc, _ := newService(t)
	purger := &recordingPurger{}
	svc.RegisterPurger(purger)

	p, _ := svc.Create(models.ProfileInput{Name: "Ana"})
	if err := svc.Delete(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != p.ID {
		t.Fatalf("expected cascade for %s, got %v", p.ID, purger.purged)
	}

	if err := svc.Delete("missing"); err != nil {
		t.Fatalf("deleting an unknown profile must be a no-op, got %v", err)
	}
}

func TestDeleteAllData(t *testing.T) {
	svc, store := newService(t)
	_, _ = svc.Create(models.ProfileInput{Name: "Ana"})
	_ = store.Set(storage.KeyTheme, "dark")
	_ = store.Set(storage.KeyAccessLocked, "true")

	if err := svc.DeleteAllData(); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty store, found %v", keys)
	}
}

func TestPasscodeLifecycle(t *testing.T) {
	svc, _ := newService(t)
	p, _ := svc.Create(models.ProfileInput{Name: "Ana"})

	if _, err := svc.ChangePasscode(p.ID, "1111", "1111"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("changing a missing passcode should fail validation, got %v", err)
	}

	if _, err := svc.AddPasscode(p.ID, "1111", "1111", ""); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected security word to be required, got %v", err)
	}

	updated, err := svc.AddPasscode(p.ID, "1111", "1111", "alpha")
	if err != nil {
		t.Fatalf("add passcode: %v", err)
	}
	if !updated.CanRecoverPIN() {
		t.Fatalf("expected recoverable profile")
	}

	updated, err = svc.ChangePasscode(p.ID, "2222", "2222")
	if err != nil {
		t.Fatalf("change passcode: %v", err)
	}
	if *updated.PIN != "2222" || *updated.SecurityWord != "alpha" {
		t.Fatalf("change must keep the security word: %+v", updated)
	}

	if err := svc.ClearSecurity(p.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ := svc.Get(p.ID)
	if got.PIN != nil || got.SecurityWord != nil {
		t.Fatalf("expected security fields cleared: %+v", got)
	}
}

func TestWelcomeAndSeasonalFlags(t *testing.T) {
	svc, _ := newService(t)
	p, _ := svc.Create(models.ProfileInput{Name: "Ana"})

	pending, err := svc.WelcomePending(p.ID)
	if err != nil || !pending {
		t.Fatalf("expected welcome pending on first visit, got %t err=%v", pending, err)
	}
	pending, err = svc.WelcomePending(p.ID)
	if err != nil || !pending {
		t.Fatalf("expected welcome still pending until dismissed, got %t err=%v", pending, err)
	}
	if err := svc.DismissWelcome(p.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if pending, _ := svc.WelcomePending(p.ID); pending {
		t.Fatalf("expected welcome dismissed")
	}

	day := time.Date(2025, time.October, 31, 20, 0, 0, 0, time.UTC)
	if shown, _ := svc.SeasonalShownOn(p.ID, day); shown {
		t.Fatalf("seasonal promo not yet dismissed")
	}
	if err := svc.MarkSeasonalShown(p.ID, day); err != nil {
		t.Fatalf("mark seasonal: %v", err)
	}
	if shown, _ := svc.SeasonalShownOn(p.ID, day); !shown {
		t.Fatalf("expected seasonal promo dismissed for the day")
	}
	if shown, _ := svc.SeasonalShownOn(p.ID, day.AddDate(0, 0, 1)); shown {
		t.Fatalf("next day must show the promo again")
	}
}

func TestWelcomePendingReadsWithoutWriting(t *testing.T) {
	svc, store := newService(t)
	p, _ := svc.Create(models.ProfileInput{Name: "Ana"})
	before, _, _ := store.Get(storage.KeyProfiles)

	if pending, err := svc.WelcomePending(p.ID); err != nil || !pending {
		t.Fatalf("expected welcome pending, got %t err=%v", pending, err)
	}
	if after, _, _ := store.Get(storage.KeyProfiles); after != before {
		t.Fatalf("reading the welcome flag rewrote the profile list")
	}

	legacy := models.Profile{ID: "legacy", Name: "Old", CreatedAt: time.Now()}
	if err := svc.Save(legacy); err != nil {
		t.Fatalf("save: %v", err)
	}
	if pending, err := svc.WelcomePending("legacy"); err != nil || !pending {
		t.Fatalf("expected a profile without the flag to be treated as first login, got %t err=%v", pending, err)
	}
	stored, _ := svc.Get("legacy")
	if stored.FirstLogin == nil || !*stored.FirstLogin {
		t.Fatalf("expected first login flag to be persisted")
	}

	if _, err := svc.WelcomePending("missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchHistoryToggle(t *testing.T) {
	svc, _ := newService(t)
	p, _ := svc.Create(models.ProfileInput{Name: "Ana"})

	if on, _ := svc.SearchHistoryEnabled(p.ID); !on {
		t.Fatalf("expected search history enabled by default")
	}
	if err := svc.SetSearchHistoryEnabled(p.ID, false); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if on, _ := svc.SearchHistoryEnabled(p.ID); on {
		t.Fatalf("expected search history disabled")
	}
}

func TestCanCreateReasons(t *testing.T) {
	gate := &stubGate{}
	svc, _ := newService(t, profiles.WithAccessGate(gate), profiles.WithMaxProfiles(1))

	if ok, reason := svc.CanCreate(); !ok || reason != "" {
		t.Fatalf("expected creation allowed, got %t %q", ok, reason)
	}
	p, err := svc.Create(models.ProfileInput{Name: "Ana"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.IsFirstLogin() {
		t.Fatalf("new profiles start with the welcome flow pending")
	}
	if ok, reason := svc.CanCreate(); ok || reason == "" {
		t.Fatalf("expected limit reason, got %t %q", ok, reason)
	}

	gate.locked = true
	if ok, reason := svc.CanCreate(); ok || reason != "profile creation is locked" {
		t.Fatalf("expected lock reason, got %t %q", ok, reason)
	}
}
