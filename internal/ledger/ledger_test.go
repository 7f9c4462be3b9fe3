package ledger_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive-go/internal/ledger"
	"drive-go/internal/model"
)

const (
	alice model.Account = "0xA11CE"
	bob   model.Account = "0xB0B"
	carol model.Account = "0xCA201"
)

// tickClock advances one second per reading.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recorder collects events and can be told to fail.
type recorder struct {
	events []model.Event
	fail   error
}

func (r *recorder) Record(ev model.Event) error {
	if r.fail != nil {
		return r.fail
	}
	r.events = append(r.events, ev)
	return nil
}

func newLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	return ledger.New(append([]ledger.Option{ledger.WithClock(newTickClock())}, opts...)...)
}

func locators(files []model.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Locator
	}
	return out
}

func TestLedger_AddFile(t *testing.T) {
	t.Run("appends in insertion order", func(t *testing.T) {
		l := newLedger(t)

		f1, err := l.AddFile(alice, "h1", "one.txt")
		require.NoError(t, err)
		f2, err := l.AddFile(alice, "h2", "")
		require.NoError(t, err)

		assert.Equal(t, alice, f1.Owner)
		assert.Equal(t, "one.txt", f1.DisplayName)
		assert.True(t, f2.CreatedAt.After(f1.CreatedAt))
		assert.Equal(t, []string{"h1", "h2"}, locators(l.GetAllFiles(alice)))
	})

	t.Run("rejects duplicate locator for the same owner", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "h1", "a")
		require.NoError(t, err)
		_, err = l.AddFile(alice, "h1", "b")
		require.ErrorIs(t, err, ledger.ErrDuplicateFile)

		files := l.GetAllFiles(alice)
		require.Len(t, files, 1)
		assert.Equal(t, "a", files[0].DisplayName)
	})

	t.Run("same locator under different owners", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		_, err = l.AddFile(bob, "h1", "")
		require.NoError(t, err)
	})

	t.Run("rejects empty locator", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "", "x")
		require.ErrorIs(t, err, ledger.ErrInvalidArgument)
	})

	t.Run("unknown owner has an empty catalog", func(t *testing.T) {
		l := newLedger(t)

		files := l.GetAllFiles(carol)
		assert.NotNil(t, files)
		assert.Empty(t, files)
	})
}

func TestLedger_DeleteFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		l := newLedger(t)

		require.ErrorIs(t, l.DeleteFile(alice, "nope"), ledger.ErrFileNotFound)
	})

	t.Run("removes file and its approvals", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		_, err = l.AddFile(alice, "h2", "")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))
		require.NoError(t, l.ApproveFile(alice, "h2", []model.Account{bob}))

		require.NoError(t, l.DeleteFile(alice, "h1"))

		assert.Equal(t, []string{"h2"}, locators(l.GetAllFiles(alice)))
		_, files := l.GetApprovedFiles(bob)
		require.Len(t, files, 1)
		assert.Equal(t, []string{"h2"}, locators(files[0]))

		_, _, err = l.GetFriendsApprovalStatus(alice, "h1")
		require.ErrorIs(t, err, ledger.ErrFileNotFound)
	})

	t.Run("re-adding starts fresh", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		first, err := l.AddFile(alice, "h1", "old")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))
		require.NoError(t, l.DeleteFile(alice, "h1"))

		second, err := l.AddFile(alice, "h1", "new")
		require.NoError(t, err)
		assert.True(t, second.CreatedAt.After(first.CreatedAt))

		approved, notApproved, err := l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.Equal(t, []model.Account{bob}, notApproved)
	})
}

func TestLedger_FileName(t *testing.T) {
	l := newLedger(t)

	_, err := l.AddFile(alice, "h1", "report.pdf")
	require.NoError(t, err)

	name, err := l.FileName(alice, "h1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)

	_, err = l.FileName(bob, "h1")
	require.ErrorIs(t, err, ledger.ErrFileNotFound)
}

func TestLedger_Friends(t *testing.T) {
	t.Run("add and remove round trip", func(t *testing.T) {
		l := newLedger(t)

		require.NoError(t, l.AddFriend(alice, carol))
		before := l.GetFriends(alice)

		require.NoError(t, l.AddFriend(alice, bob))
		require.NoError(t, l.RemoveFriend(alice, bob))

		assert.Equal(t, before, l.GetFriends(alice))
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		l := newLedger(t)

		require.NoError(t, l.AddFriend(alice, carol))
		require.NoError(t, l.AddFriend(alice, bob))

		assert.Equal(t, []model.Account{carol, bob}, l.GetFriends(alice))
		assert.Empty(t, l.GetFriends(bob))
	})

	t.Run("errors", func(t *testing.T) {
		l := newLedger(t)

		require.ErrorIs(t, l.AddFriend(alice, alice), ledger.ErrSelfFriend)
		require.NoError(t, l.AddFriend(alice, bob))
		require.ErrorIs(t, l.AddFriend(alice, bob), ledger.ErrDuplicateFriend)
		require.ErrorIs(t, l.RemoveFriend(bob, alice), ledger.ErrFriendNotFound)
		require.ErrorIs(t, l.AddFriend(alice, ""), ledger.ErrInvalidArgument)

		assert.Equal(t, []model.Account{bob}, l.GetFriends(alice))
	})

	t.Run("mutual", func(t *testing.T) {
		l := newLedger(t)

		require.NoError(t, l.AddFriend(alice, bob))
		assert.False(t, l.IsMutual(alice, bob))
		require.NoError(t, l.AddFriend(bob, alice))
		assert.True(t, l.IsMutual(bob, alice))
	})
}

func TestLedger_ApproveFile(t *testing.T) {
	t.Run("approve then disapprove", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.AddFriend(alice, bob))
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))

		approved, notApproved, err := l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Equal(t, []model.Account{bob}, approved)
		assert.Empty(t, notApproved)

		require.NoError(t, l.DisapproveFile(alice, "h1", []model.Account{bob}))

		approved, notApproved, err = l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.Equal(t, []model.Account{bob}, notApproved)
	})

	t.Run("idempotent", func(t *testing.T) {
		rec := &recorder{}
		l := newLedger(t, ledger.WithRecorder(rec))

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.AddFriend(alice, bob))
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob, bob}))
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))

		approved, _, err := l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Equal(t, []model.Account{bob}, approved)

		// add_file, add_friend, one approve; the repeat was a no-op.
		require.Len(t, rec.events, 3)
		assert.Equal(t, []model.Account{bob}, rec.events[2].Viewers)
	})

	t.Run("batch with a non-friend is rejected as a whole", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.AddFriend(alice, bob))

		err = l.ApproveFile(alice, "h1", []model.Account{bob, carol})
		require.ErrorIs(t, err, ledger.ErrNotAFriend)

		approved, notApproved, err := l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.Equal(t, []model.Account{bob}, notApproved)
	})

	t.Run("missing file", func(t *testing.T) {
		l := newLedger(t)
		require.NoError(t, l.AddFriend(alice, bob))

		require.ErrorIs(t, l.ApproveFile(alice, "h1", []model.Account{bob}), ledger.ErrFileNotFound)
		require.ErrorIs(t, l.DisapproveFile(alice, "h1", []model.Account{bob}), ledger.ErrFileNotFound)
	})

	t.Run("disapproving a viewer never approved is a no-op", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.DisapproveFile(alice, "h1", []model.Account{carol}))
	})

	t.Run("status keeps friend order in both partitions", func(t *testing.T) {
		l := newLedger(t)
		dave := model.Account("0xDA7E")

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		for _, f := range []model.Account{bob, carol, dave} {
			require.NoError(t, l.AddFriend(alice, f))
		}
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{dave, bob}))

		approved, notApproved, err := l.GetFriendsApprovalStatus(alice, "h1")
		require.NoError(t, err)
		assert.Equal(t, []model.Account{bob, dave}, approved)
		assert.Equal(t, []model.Account{carol}, notApproved)
	})
}

func TestLedger_GetApprovedFiles(t *testing.T) {
	t.Run("one-way friendship is not enough under mutual visibility", func(t *testing.T) {
		l := newLedger(t)

		_, err := l.AddFile(alice, "hA", "")
		require.NoError(t, err)
		require.NoError(t, l.AddFriend(alice, bob))
		require.NoError(t, l.ApproveFile(alice, "hA", []model.Account{bob}))

		friends, files := l.GetApprovedFiles(bob)
		assert.Empty(t, friends)
		assert.Empty(t, files)
		assert.False(t, l.CanView(bob, alice, "hA"))

		require.NoError(t, l.AddFriend(bob, alice))

		friends, files = l.GetApprovedFiles(bob)
		assert.Equal(t, []model.Account{alice}, friends)
		require.Len(t, files, 1)
		assert.Equal(t, []string{"hA"}, locators(files[0]))
		assert.True(t, l.CanView(bob, alice, "hA"))
	})

	t.Run("mutual friends see each other's approved files", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		for _, h := range []string{"a1", "a2", "a3"} {
			_, err := l.AddFile(alice, h, "")
			require.NoError(t, err)
		}
		_, err := l.AddFile(bob, "b1", "")
		require.NoError(t, err)

		require.NoError(t, l.ApproveFile(alice, "a3", []model.Account{bob}))
		require.NoError(t, l.ApproveFile(alice, "a1", []model.Account{bob}))
		require.NoError(t, l.ApproveFile(bob, "b1", []model.Account{alice}))

		friends, files := l.GetApprovedFiles(alice)
		assert.Equal(t, []model.Account{bob}, friends)
		require.Len(t, files, 1)
		assert.Equal(t, []string{"b1"}, locators(files[0]))

		friends, files = l.GetApprovedFiles(bob)
		assert.Equal(t, []model.Account{alice}, friends)
		require.Len(t, files, 1)
		// Catalog order, not approval order.
		assert.Equal(t, []string{"a1", "a3"}, locators(files[0]))
	})

	t.Run("friends in caller order with empty inner lists", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, carol, alice)
		mutualFriends(t, l, carol, bob)

		_, err := l.AddFile(bob, "b1", "")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(bob, "b1", []model.Account{carol}))

		friends, files := l.GetApprovedFiles(carol)
		assert.Equal(t, []model.Account{alice, bob}, friends)
		require.Len(t, files, 2)
		assert.Empty(t, files[0])
		assert.Equal(t, []string{"b1"}, locators(files[1]))
	})

	t.Run("remove friend revokes visibility", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))

		require.NoError(t, l.RemoveFriend(alice, bob))

		friends, files := l.GetApprovedFiles(bob)
		assert.Empty(t, friends)
		assert.Empty(t, files)

		// The approval is gone, not just hidden.
		require.NoError(t, l.AddFriend(alice, bob))
		_, files = l.GetApprovedFiles(bob)
		require.Len(t, files, 1)
		assert.Empty(t, files[0])
	})

	t.Run("viewer removing the owner hides the owner's files", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))

		require.NoError(t, l.RemoveFriend(bob, alice))

		friends, _ := l.GetApprovedFiles(bob)
		assert.Empty(t, friends)
		assert.False(t, l.CanView(bob, alice, "h1"))
	})

	t.Run("remove friend revokes approvals granted to the remover", func(t *testing.T) {
		l := newLedger(t)
		mutualFriends(t, l, alice, bob)

		_, err := l.AddFile(bob, "b1", "")
		require.NoError(t, err)
		require.NoError(t, l.ApproveFile(bob, "b1", []model.Account{alice}))

		require.NoError(t, l.RemoveFriend(alice, bob))

		approved, notApproved, err := l.GetFriendsApprovalStatus(bob, "b1")
		require.NoError(t, err)
		assert.Empty(t, approved)
		assert.Equal(t, []model.Account{alice}, notApproved)

		require.NoError(t, l.AddFriend(alice, bob))
		friends, files := l.GetApprovedFiles(alice)
		assert.Equal(t, []model.Account{bob}, friends)
		require.Len(t, files, 1)
		assert.Empty(t, files[0])
		assert.False(t, l.CanView(alice, bob, "b1"))
	})

	t.Run("directed visibility lists every friend", func(t *testing.T) {
		l := newLedger(t, ledger.WithVisibility(ledger.VisibilityDirected))

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)
		require.NoError(t, l.AddFriend(alice, bob))
		require.NoError(t, l.ApproveFile(alice, "h1", []model.Account{bob}))
		require.NoError(t, l.DisapproveFile(alice, "h1", []model.Account{bob}))

		friends, files := l.GetApprovedFiles(alice)
		assert.Equal(t, []model.Account{bob}, friends)
		require.Len(t, files, 1)
		assert.Empty(t, files[0])
	})
}

func TestLedger_CanView(t *testing.T) {
	l := newLedger(t)

	_, err := l.AddFile(alice, "h1", "")
	require.NoError(t, err)

	assert.True(t, l.CanView(alice, alice, "h1"))
	assert.False(t, l.CanView(alice, alice, "missing"))
	assert.False(t, l.CanView(carol, alice, "h1"))
}

func TestLedger_Recorder(t *testing.T) {
	t.Run("failed record leaves state unchanged", func(t *testing.T) {
		rec := &recorder{}
		l := newLedger(t, ledger.WithRecorder(rec))

		_, err := l.AddFile(alice, "h1", "")
		require.NoError(t, err)

		rec.fail = errors.New("disk full")
		_, err = l.AddFile(alice, "h2", "")
		require.Error(t, err)
		require.ErrorIs(t, err, rec.fail)
		require.ErrorIs(t, l.AddFriend(alice, bob), rec.fail)

		assert.Equal(t, []string{"h1"}, locators(l.GetAllFiles(alice)))
		assert.Empty(t, l.GetFriends(alice))
	})

	t.Run("failed precondition is not recorded", func(t *testing.T) {
		rec := &recorder{}
		l := newLedger(t, ledger.WithRecorder(rec))

		require.ErrorIs(t, l.DeleteFile(alice, "h1"), ledger.ErrFileNotFound)
		assert.Empty(t, rec.events)
	})
}

func TestLedger_Replay(t *testing.T) {
	rec := &recorder{}
	src := newLedger(t, ledger.WithRecorder(rec))
	mutualFriends(t, src, alice, bob)

	_, err := src.AddFile(alice, "h1", "one")
	require.NoError(t, err)
	_, err = src.AddFile(alice, "h2", "two")
	require.NoError(t, err)
	require.NoError(t, src.ApproveFile(alice, "h1", []model.Account{bob}))
	require.NoError(t, src.ApproveFile(alice, "h2", []model.Account{bob}))
	require.NoError(t, src.DisapproveFile(alice, "h2", []model.Account{bob}))
	require.NoError(t, src.DeleteFile(alice, "h2"))

	for i := range rec.events {
		rec.events[i].Seq = int64(i + 1)
	}

	dst := ledger.New(ledger.WithClock(newTickClock()))
	require.NoError(t, dst.Replay(rec.events))

	assert.Equal(t, src.GetAllFiles(alice), dst.GetAllFiles(alice))
	assert.Equal(t, src.GetFriends(alice), dst.GetFriends(alice))
	srcFriends, srcFiles := src.GetApprovedFiles(bob)
	dstFriends, dstFiles := dst.GetApprovedFiles(bob)
	assert.Equal(t, srcFriends, dstFriends)
	assert.Equal(t, srcFiles, dstFiles)

	t.Run("reports the failing sequence", func(t *testing.T) {
		bad := ledger.New()
		err := bad.Replay([]model.Event{{Seq: 7, Kind: model.EventDeleteFile, Actor: alice, Locator: "x"}})
		require.ErrorIs(t, err, ledger.ErrFileNotFound)
		assert.Contains(t, err.Error(), "event 7")
	})
}

func TestLedger_MonotonicTime(t *testing.T) {
	clock := &backwardsClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := ledger.New(ledger.WithClock(clock))

	f1, err := l.AddFile(alice, "h1", "")
	require.NoError(t, err)
	f2, err := l.AddFile(alice, "h2", "")
	require.NoError(t, err)

	assert.False(t, f2.CreatedAt.Before(f1.CreatedAt))
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		in      string
		want    ledger.Visibility
		wantErr bool
	}{
		{in: "", want: ledger.VisibilityMutual},
		{in: "mutual", want: ledger.VisibilityMutual},
		{in: "directed", want: ledger.VisibilityDirected},
		{in: "public", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ledger.ParseVisibility(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ledger.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_ConcurrentReaders(t *testing.T) {
	l := newLedger(t)
	mutualFriends(t, l, alice, bob)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			loc := fmt.Sprintf("h%d", i)
			if _, err := l.AddFile(alice, loc, ""); err != nil {
				t.Errorf("AddFile() error = %v", err)
				return
			}
			if err := l.ApproveFile(alice, loc, []model.Account{bob}); err != nil {
				t.Errorf("ApproveFile() error = %v", err)
				return
			}
			if i%2 == 0 {
				if err := l.DeleteFile(alice, loc); err != nil {
					t.Errorf("DeleteFile() error = %v", err)
					return
				}
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, files := l.GetApprovedFiles(bob)
				for _, group := range files {
					for j := 1; j < len(group); j++ {
						if !group[j].CreatedAt.After(group[j-1].CreatedAt) {
							t.Errorf("approved files out of order: %s before %s", group[j-1].Locator, group[j].Locator)
							return
						}
					}
				}
			}
		}()
	}
	wg.Wait()

	_, files := l.GetApprovedFiles(bob)
	require.Len(t, files, 1)
	assert.Len(t, files[0], 100)
	assert.Len(t, l.GetAllFiles(alice), 100)
}

type backwardsClock struct {
	t time.Time
}

func (c *backwardsClock) Now() time.Time {
	c.t = c.t.Add(-time.Minute)
	return c.t
}

func mutualFriends(t *testing.T, l *ledger.Ledger, a, b model.Account) {
	t.Helper()
	require.NoError(t, l.AddFriend(a, b))
	require.NoError(t, l.AddFriend(b, a))
}

// sharedJournal is an in-memory journal that several ledgers append to.
type sharedJournal struct {
	mu     sync.Mutex
	events []model.Event
}

// journalCursor records into a sharedJournal and syncs from it. beforeRecord
// runs just ahead of each append, which lets a test slip in a competing write.
type journalCursor struct {
	j            *sharedJournal
	seen         int
	beforeRecord func()
}

func (c *journalCursor) Pending() ([]model.Event, error) {
	c.j.mu.Lock()
	defer c.j.mu.Unlock()
	pending := append([]model.Event(nil), c.j.events[c.seen:]...)
	c.seen = len(c.j.events)
	return pending, nil
}

func (c *journalCursor) Record(ev model.Event) error {
	if c.beforeRecord != nil {
		c.beforeRecord()
	}
	c.j.mu.Lock()
	defer c.j.mu.Unlock()
	if len(c.j.events) != c.seen {
		return ledger.ErrJournalConflict
	}
	ev.Seq = int64(len(c.j.events) + 1)
	c.j.events = append(c.j.events, ev)
	c.seen = len(c.j.events)
	return nil
}

func TestLedger_SharedJournal(t *testing.T) {
	t.Run("second writer sees the first writer's events", func(t *testing.T) {
		j := &sharedJournal{}
		a := newLedger(t, ledger.WithRecorder(&journalCursor{j: j}))
		b := newLedger(t, ledger.WithRecorder(&journalCursor{j: j}))

		_, err := a.AddFile(alice, "h1", "one")
		require.NoError(t, err)
		_, err = b.AddFile(alice, "h1", "again")
		require.ErrorIs(t, err, ledger.ErrDuplicateFile)
		_, err = b.AddFile(alice, "h2", "two")
		require.NoError(t, err)

		require.Len(t, j.events, 2)

		fresh := ledger.New()
		require.NoError(t, fresh.Replay(j.events))
		assert.Equal(t, []string{"h1", "h2"}, locators(fresh.GetAllFiles(alice)))
		assert.Equal(t, locators(b.GetAllFiles(alice)), locators(fresh.GetAllFiles(alice)))
	})

	t.Run("retries after losing the race", func(t *testing.T) {
		j := &sharedJournal{}
		a := newLedger(t, ledger.WithRecorder(&journalCursor{j: j}))
		raced := false
		bc := &journalCursor{j: j}
		bc.beforeRecord = func() {
			if raced {
				return
			}
			raced = true
			_, err := a.AddFile(alice, "h9", "")
			require.NoError(t, err)
		}
		b := newLedger(t, ledger.WithRecorder(bc))

		_, err := b.AddFile(alice, "h1", "")
		require.NoError(t, err)

		assert.Equal(t, []string{"h9", "h1"}, locators(b.GetAllFiles(alice)))
		require.Len(t, j.events, 2)
		assert.Equal(t, "h9", j.events[0].Locator)
	})

	t.Run("gives up when the journal keeps moving", func(t *testing.T) {
		j := &sharedJournal{}
		other := newLedger(t, ledger.WithRecorder(&journalCursor{j: j}))
		n := 0
		bc := &journalCursor{j: j}
		bc.beforeRecord = func() {
			n++
			require.NoError(t, other.AddFriend(alice, model.Account(fmt.Sprintf("0xF%d", n))))
		}
		b := newLedger(t, ledger.WithRecorder(bc))

		_, err := b.AddFile(bob, "h1", "")
		require.ErrorIs(t, err, ledger.ErrJournalConflict)
		assert.Empty(t, b.GetAllFiles(bob))
		assert.Equal(t, ledger.VisibilityMutual, b.Visibility())
	})
}
