// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package history

import (
	"errors"
	"testing"

	"github.com/danielhkuo/listgen/models"
)

func testHistory() models.HistoryStore {
	return models.HistoryStore{
		"user": {
			{ChatID: "a1", Title: "Blue Mug"},
			{ChatID: "b2", Title: "Red Mug"},
			{ChatID: "c3", Title: "Lamp"},
		},
		"admin": {
			{ChatID: "z9", Title: "Admin Chair"},
		},
	}
}

func TestFind(t *testing.T) {
	entries := testHistory()["user"]

	tests := []struct {
		name      string
		id        string
		wantTitle string
		wantErr   bool
	}{
		{"first entry", "a1", "Blue Mug", false},
		{"middle entry", "b2", "Red Mug", false},
		{"last entry", "c3", "Lamp", false},
		{"fabricated id", "does-not-exist", "", true},
		{"empty id", "", "", true},
		{"prefix only", "a", "", true},
		{"case differs", "A1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(entries, tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Find() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrNotFound) {
				t.Errorf("Find() error = %v, want %v", err, ErrNotFound)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Find() title = %q, want %q", got.Title, tt.wantTitle)
			}
		})
	}
}

func TestFind_FirstMatchWins(t *testing.T) {
	entries := []models.ListingEntry{
		{ChatID: "dup", Title: "first"},
		{ChatID: "dup", Title: "second"},
	}
	got, err := Find(entries, "dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "first" {
		t.Errorf("expected first match, got %q", got.Title)
	}
}

func TestFindForUser_DoesNotCrossUsers(t *testing.T) {
	h := testHistory()

	if _, err := FindForUser(h, "user", "z9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("user must not see admin's entry, got err = %v", err)
	}
	if got, err := FindForUser(h, "admin", "z9"); err != nil || got.Title != "Admin Chair" {
		t.Errorf("admin lookup failed: %+v, %v", got, err)
	}
	if _, err := FindForUser(h, "nobody", "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user should get ErrNotFound, got %v", err)
	}
}

func TestRecent(t *testing.T) {
	entries := testHistory()["user"]
	got := Recent(entries)

	want := []string{"c3", "b2", "a1"}
	for i, id := range want {
		if got[i].ChatID != id {
			t.Errorf("Recent()[%d] = %s, want %s", i, got[i].ChatID, id)
		}
	}

	// Source order untouched
	if entries[0].ChatID != "a1" {
		t.Error("Recent() modified its input")
	}

	if len(Recent(nil)) != 0 {
		t.Error("Recent(nil) should be empty")
	}
}
