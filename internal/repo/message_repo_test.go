package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/aksdemo/go-msg-backend/internal/domain"
)

func seedUser(t *testing.T, db *gorm.DB, name string) *domain.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, name, "h")
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedMessage(t *testing.T, db *gorm.DB, userID uint, body string, at time.Time) {
	t.Helper()
	m := &domain.Message{UserID: &userID, Body: body, CreatedAt: at}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed message %q: %v", body, err)
	}
}

func TestCreateMessage_SetsAuthorAndTimestamp(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})
	u := seedUser(t, db, "alice")

	m, err := CreateMessage(context.Background(), db, u.ID, "hello")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == 0 || m.UserID == nil || *m.UserID != u.ID {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned CreatedAt")
	}
}

func TestCreateLegacyMessage_NoAuthor(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})

	m, err := CreateLegacyMessage(context.Background(), db, "orphan")
	if err != nil {
		t.Fatalf("CreateLegacyMessage: %v", err)
	}
	if m.UserID != nil {
		t.Fatalf("expected nil UserID, got %v", *m.UserID)
	}
}

func TestListMessages_NewestFirst_SkipsUnattributed(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})
	u := seedUser(t, db, "alice")

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)
	seedMessage(t, db, u.ID, "first", t1)
	seedMessage(t, db, u.ID, "third", t3)
	seedMessage(t, db, u.ID, "second", t2)
	// Unattributed legacy row must not appear in the joined listing.
	if _, err := CreateLegacyMessage(context.Background(), db, "legacy"); err != nil {
		t.Fatalf("legacy seed: %v", err)
	}

	out, err := ListMessages(context.Background(), db)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	for i, want := range []string{"third", "second", "first"} {
		if out[i].Body != want {
			t.Fatalf("row %d = %q, want %q", i, out[i].Body, want)
		}
		if out[i].Username != "alice" {
			t.Fatalf("row %d missing username join: %+v", i, out[i])
		}
	}
}

func TestSearchMessages_CaseInsensitive_AndUserFilter(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedMessage(t, db, alice.ID, "Hello World", base)
	seedMessage(t, db, bob.ID, "hello again", base.Add(time.Minute))
	seedMessage(t, db, alice.ID, "unrelated", base.Add(2*time.Minute))

	out, err := SearchMessages(context.Background(), db, "HELLO", "")
	if err != nil {
		t.Fatalf("SearchMessages: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 case-insensitive hits, got %d", len(out))
	}
	if out[0].Body != "hello again" {
		t.Fatalf("expected newest first, got %q", out[0].Body)
	}

	out, err = SearchMessages(context.Background(), db, "hello", "ali")
	if err != nil {
		t.Fatalf("SearchMessages with user filter: %v", err)
	}
	if len(out) != 1 || out[0].Username != "alice" {
		t.Fatalf("expected the AND of both filters, got %+v", out)
	}
}

func TestListUserMessages_ExactUsername(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})
	alice := seedUser(t, db, "alice")
	ali := seedUser(t, db, "ali")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedMessage(t, db, alice.ID, "from alice", base)
	seedMessage(t, db, ali.ID, "from ali", base.Add(time.Minute))

	out, err := ListUserMessages(context.Background(), db, "ali")
	if err != nil {
		t.Fatalf("ListUserMessages: %v", err)
	}
	if len(out) != 1 || out[0].Body != "from ali" {
		t.Fatalf("expected exact-match author filter, got %+v", out)
	}
}

func TestCountMessages_MissingTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := CountMessages(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}

func TestCountMessages(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Message{})
	u := seedUser(t, db, "alice")
	seedMessage(t, db, u.ID, "a", time.Now().UTC())
	seedMessage(t, db, u.ID, "b", time.Now().UTC())

	n, err := CountMessages(context.Background(), db)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}
