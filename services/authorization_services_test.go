package services

import (
	"context"
	"errors"
	"testing"

	"taikoweb/models"
)

type failingFinder struct{}

func (failingFinder) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestGateAuthorize(t *testing.T) {
	store := newMemStore(
		models.User{Username: "admin", UserLevel: 100},
		models.User{Username: "editor", UserLevel: 50},
		models.User{Username: "player", UserLevel: 1},
	)
	gate := NewGate(store, 0)
	ctx := context.Background()

	cases := []struct {
		caller string
		want   error
	}{
		{"", ErrNotAuthenticated},
		{"ghost", ErrUnknownUser},
		{"player", ErrInsufficientPrivilege},
		{"editor", nil},
		{"admin", nil},
	}
	for _, tc := range cases {
		user, err := gate.Authorize(ctx, tc.caller, 50)
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.caller, err)
			}
			if user.Username != tc.caller {
				t.Fatalf("%q: unexpected user %+v", tc.caller, user)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%q: expected %v got %v", tc.caller, tc.want, err)
		}
		if KindOf(err) != KindAuthorization {
			t.Fatalf("%q: expected authorization kind, got %s", tc.caller, KindOf(err))
		}
	}
}

func TestGateAnonymousSkipsLookup(t *testing.T) {
	store := newMemStore()
	gate := NewGate(store, 0)
	if _, err := gate.Authorize(context.Background(), "", 0); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if store.userCalls != 0 {
		t.Fatalf("anonymous callers must not hit the store")
	}
}

func TestGateStoreFailureDenies(t *testing.T) {
	gate := NewGate(failingFinder{}, 0)
	_, err := gate.Authorize(context.Background(), "admin", 50)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}
