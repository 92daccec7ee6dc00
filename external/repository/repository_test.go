package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type contractCase struct {
	name string
	open func(t *testing.T) repository.Repository
}

func contractCases() []contractCase {
	return []contractCase{
		{
			name: "memory",
			open: func(t *testing.T) repository.Repository {
				return NewMemoryRepository()
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) repository.Repository {
				r, err := OpenSQLite(context.Background(), ":memory:")
				require.NoError(t, err)
				t.Cleanup(func() { _ = r.Close() })
				return r
			},
		},
	}
}

func TestRepositorySessionRoundTrip(t *testing.T) {
	for _, tc := range contractCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tc.open(t)

			s := meeting.New("s1", meeting.AllowListHost("h1"), epoch)
			_, err := s.AddItem(meeting.ItemInput{Title: "Budget", DurationSec: 300})
			require.NoError(t, err)
			s.Touch("u1", "Ann", epoch)
			s.Bump(epoch.Add(time.Second))
			require.NoError(t, repo.SaveSession(ctx, s))

			got, err := repo.LoadSession(ctx, "s1")
			require.NoError(t, err)
			require.Equal(t, s.Revision, got.Revision)
			require.Len(t, got.Agenda, 1)
			require.Equal(t, "Budget", got.Agenda[0].Title)
			require.Equal(t, "Ann", got.Attendance["u1"].DisplayName)
			require.Equal(t, "h1", got.Host.UserID)
		})
	}
}

func TestRepositoryIgnoresOlderRevision(t *testing.T) {
	for _, tc := range contractCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tc.open(t)

			older := meeting.New("s1", meeting.AllowListHost("h1"), epoch)
			newer := older.Clone()
			_, err := newer.AddItem(meeting.ItemInput{Title: "Roadmap"})
			require.NoError(t, err)
			newer.Bump(epoch.Add(time.Second))

			require.NoError(t, repo.SaveSession(ctx, newer))
			require.NoError(t, repo.SaveSession(ctx, older))

			got, err := repo.LoadSession(ctx, "s1")
			require.NoError(t, err)
			require.Equal(t, int64(2), got.Revision)
			require.Len(t, got.Agenda, 1)
		})
	}
}

func TestRepositoryLoadMissing(t *testing.T) {
	for _, tc := range contractCases() {
		t.Run(tc.name, func(t *testing.T) {
			repo := tc.open(t)
			_, err := repo.LoadSession(context.Background(), "nope")
			require.ErrorIs(t, err, repository.ErrNotFound)
			_, err = repo.GetMinutes(context.Background(), "nope")
			require.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestRepositoryListActiveSessions(t *testing.T) {
	for _, tc := range contractCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tc.open(t)

			active := meeting.New("a", meeting.AllowListHost("h1"), epoch)
			ended := meeting.New("b", meeting.AllowListHost("h1"), epoch)
			require.NoError(t, ended.End(epoch.Add(time.Minute)))
			ended.Bump(epoch.Add(time.Minute))
			require.NoError(t, repo.SaveSession(ctx, active))
			require.NoError(t, repo.SaveSession(ctx, ended))

			list, err := repo.ListActiveSessions(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			require.Equal(t, "a", list[0].ID)
		})
	}
}

func TestRepositoryMinutes(t *testing.T) {
	for _, tc := range contractCases() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := tc.open(t)

			rec := repository.MinutesRecord{
				SessionID:          "s1",
				Filename:           "minutes-s1.txt",
				Text:               "Meeting minutes",
				WebhookPayloadJSON: []byte(`{"schema_version":"1"}`),
				CreatedAt:          epoch,
			}
			require.NoError(t, repo.SaveMinutes(ctx, rec))

			got, err := repo.GetMinutes(ctx, "s1")
			require.NoError(t, err)
			require.Equal(t, rec.Filename, got.Filename)
			require.Equal(t, rec.Text, got.Text)
			require.JSONEq(t, string(rec.WebhookPayloadJSON), string(got.WebhookPayloadJSON))
			require.True(t, rec.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		raw  string
		kind backend
		dsn  string
	}{
		{raw: "", kind: backendMemory},
		{raw: "  ", kind: backendMemory},
		{raw: "postgres://u:p@db/meet", kind: backendPostgres, dsn: "postgres://u:p@db/meet"},
		{raw: "postgresql://db/meet", kind: backendPostgres, dsn: "postgresql://db/meet"},
		{raw: "sqlite:///var/lib/meet.db", kind: backendSQLite, dsn: "/var/lib/meet.db"},
		{raw: ":memory:", kind: backendSQLite, dsn: ":memory:"},
		{raw: "meet.db", kind: backendSQLite, dsn: "meet.db"},
	}
	for _, tt := range tests {
		kind, dsn := parseDatabaseURL(tt.raw)
		require.Equal(t, tt.kind, kind, tt.raw)
		require.Equal(t, tt.dsn, dsn, tt.raw)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: ":memory:", want: ":memory:"},
		{path: "meet.db", want: "meet.db?" + sqlitePragmas},
		{path: "file:meet.db?mode=rwc", want: "file:meet.db?mode=rwc&" + sqlitePragmas},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, sqliteDSN(tt.path), tt.path)
	}
}

func TestOpenSQLiteWithQueryInPath(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "meet.db") + "?mode=rwc"
	repo, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
}
