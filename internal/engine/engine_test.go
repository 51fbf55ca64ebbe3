package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hibikilabs/roomdesk/internal/audio"
	"github.com/hibikilabs/roomdesk/internal/domain/history"
	"github.com/hibikilabs/roomdesk/internal/domain/room"
	"github.com/hibikilabs/roomdesk/internal/domain/session"
	"github.com/hibikilabs/roomdesk/internal/engine"
	"github.com/hibikilabs/roomdesk/internal/sqlite"
	"github.com/hibikilabs/roomdesk/internal/testfixtures"
)

// fakePlayer records playback attempts and can simulate platform-blocked
// audio.
type fakePlayer struct {
	mu      sync.Mutex
	blocked bool
	plays   int
	stops   int
}

func (p *fakePlayer) TryPlay() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blocked {
		return audio.ErrPlaybackBlocked
	}
	p.plays++
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

type testEnv struct {
	eng      *engine.Engine
	clock    *testfixtures.Clock
	player   *fakePlayer
	rooms    *sqlite.RoomRepository
	sessions *sqlite.SessionRepository
	history  *sqlite.HistoryRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	clock := testfixtures.NewClock(time.Time{})
	player := &fakePlayer{}
	roomRepo := sqlite.NewRoomRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	historyRepo := sqlite.NewHistoryRepository(db)

	require.NoError(t, roomRepo.Create(context.Background(), &room.Room{
		ID:       "r1",
		Name:     "Room 1",
		Capacity: 8,
		Status:   room.StatusAvailable,
	}))

	eng := engine.New(engine.Config{
		Rooms:    roomRepo,
		Sessions: sessionRepo,
		History:  historyRepo,
		Player:   player,
		Clock:    clock.NowFunc(),
		Actor:    "front-desk",
	})
	require.NoError(t, eng.Resync(context.Background()))

	return &testEnv{
		eng:      eng,
		clock:    clock,
		player:   player,
		rooms:    roomRepo,
		sessions: sessionRepo,
		history:  historyRepo,
	}
}

// TestLifecycleScenario walks the full rental flow: start, expire with one
// alarm, extend and revive, expire again with a second distinct alarm,
// then end with exactly one history record.
func TestLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := env.clock.Now()

	sess, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{DurationMin: 30, Pax: 2})
	require.NoError(t, err)
	require.Equal(t, session.StatusOngoing, sess.Status)
	require.True(t, sess.EndTime.Equal(t0.Add(30*time.Minute)))

	rm, err := env.rooms.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, room.StatusOccupied, rm.Status)

	// Ticks before expiry change nothing.
	env.clock.Advance(10 * time.Minute)
	env.eng.Tick(ctx)
	got, ok := env.eng.SessionForRoom("r1")
	require.True(t, ok)
	require.Equal(t, session.StatusOngoing, got.Status)
	require.Equal(t, 0, env.player.playCount())

	// Past the end time: expired, one alarm, remote write issued.
	env.clock.Set(t0.Add(31 * time.Minute))
	env.eng.Tick(ctx)
	got, _ = env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusExpired, got.Status)
	require.Len(t, env.eng.ActiveAlerts(), 1)
	require.Equal(t, 1, env.player.playCount())

	remote, err := env.sessions.GetByRoom(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, session.StatusExpired, remote.Status)

	// Further ticks observing the same expiry never refire.
	env.clock.Advance(time.Second)
	env.eng.Tick(ctx)
	env.eng.Tick(ctx)
	require.Equal(t, 1, env.player.playCount())
	require.Len(t, env.eng.ActiveAlerts(), 1)

	// Extend revives the session and clears the alert.
	extended, err := env.eng.ExtendSession(ctx, "r1", 15)
	require.NoError(t, err)
	require.Equal(t, session.StatusOngoing, extended.Status)
	require.True(t, extended.EndTime.Equal(t0.Add(45*time.Minute)))
	require.Equal(t, 45, extended.DurationMin)
	require.Empty(t, env.eng.ActiveAlerts())

	got, _ = env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusOngoing, got.Status)

	// The new end time is a distinct expiry event: a second alarm fires.
	env.clock.Set(t0.Add(46 * time.Minute))
	env.eng.Tick(ctx)
	require.Equal(t, 2, env.player.playCount())
	require.Len(t, env.eng.ActiveAlerts(), 1)

	// End archives exactly one completed record and frees the room.
	require.NoError(t, env.eng.EndSession(ctx, "r1", "tester"))

	records, err := env.history.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, history.EventCompleted, records[0].Event)
	require.Equal(t, extended.ID, records[0].SessionID)
	require.Equal(t, "tester", records[0].Actor)
	require.Equal(t, 2, records[0].Pax)

	rm, err = env.rooms.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, room.StatusAvailable, rm.Status)

	_, ok = env.eng.SessionForRoom("r1")
	require.False(t, ok)
	require.Empty(t, env.eng.ActiveAlerts())

	// A retried end finds no session and adds no second record.
	err = env.eng.EndSession(ctx, "r1", "tester")
	require.ErrorIs(t, err, session.ErrNoSession)
	records, err = env.history.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestScheduledSessionPromotesAtStartTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := env.clock.Now()

	sess, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{
		StartTime:   t0.Add(10 * time.Minute),
		DurationMin: 60,
		Pax:         4,
	})
	require.NoError(t, err)
	require.Equal(t, session.StatusScheduled, sess.Status)

	env.clock.Advance(5 * time.Minute)
	env.eng.Tick(ctx)
	got, _ := env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusScheduled, got.Status)

	env.clock.Advance(5 * time.Minute)
	env.eng.Tick(ctx)
	got, _ = env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusOngoing, got.Status)

	// The promotion is local only: the remote row still says scheduled.
	remote, err := env.sessions.GetByRoom(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, session.StatusScheduled, remote.Status)

	// A resync of that stale snapshot must not revert the promotion.
	require.NoError(t, env.eng.Resync(ctx))
	got, _ = env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusOngoing, got.Status)
}

func TestResyncDoesNotRevertLocalPromotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := env.clock.Now()

	_, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{DurationMin: 5, Pax: 2})
	require.NoError(t, err)

	env.clock.Set(t0.Add(6 * time.Minute))
	env.eng.Tick(ctx)
	got, _ := env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusExpired, got.Status)

	// Force the remote row back to ongoing to simulate a snapshot that has
	// not observed the expiry yet, then resync: expired must survive.
	require.NoError(t, env.sessions.UpdateStatus(ctx, got.ID, session.StatusOngoing))
	require.NoError(t, env.eng.Resync(ctx))
	got, _ = env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusExpired, got.Status)
}

func TestResyncAdoptsRemoteExtension(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := env.clock.Now()

	_, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{DurationMin: 5, Pax: 2})
	require.NoError(t, err)

	env.clock.Set(t0.Add(6 * time.Minute))
	env.eng.Tick(ctx)
	require.Len(t, env.eng.ActiveAlerts(), 1)

	// Another operator extends the session remotely.
	remote, err := env.sessions.GetByRoom(ctx, "r1")
	require.NoError(t, err)
	remote.EndTime = remote.EndTime.Add(30 * time.Minute)
	remote.DurationMin += 30
	remote.Status = session.StatusOngoing
	remote.UpdatedAt = env.clock.Now()
	require.NoError(t, env.sessions.Upsert(ctx, remote))

	// Resync adopts the extension wholesale and drops the stale alert.
	require.NoError(t, env.eng.Resync(ctx))
	got, _ := env.eng.SessionForRoom("r1")
	require.Equal(t, session.StatusOngoing, got.Status)
	require.True(t, got.EndTime.Equal(remote.EndTime))
	require.Empty(t, env.eng.ActiveAlerts())
}

func TestAcknowledgeAlertKeepsDedupeMark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t0 := env.clock.Now()

	_, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{DurationMin: 5, Pax: 2})
	require.NoError(t, err)

	env.clock.Set(t0.Add(6 * time.Minute))
	env.eng.Tick(ctx)
	require.Equal(t, 1, env.player.playCount())

	env.eng.AcknowledgeAlert("r1")
	require.Empty(t, env.eng.ActiveAlerts())

	// The expiry already fired; later ticks recreate the alert view but
	// never replay the alarm for the same end time.
	env.clock.Advance(time.Second)
	env.eng.Tick(ctx)
	require.Equal(t, 1, env.player.playCount())
}

func TestCloseDropsLateResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eng.StartSession(ctx, "r1", engine.StartRequest{DurationMin: 5, Pax: 2})
	require.NoError(t, err)

	env.eng.Close()
	require.Empty(t, env.eng.ActiveAlerts())

	// A resync that lands after teardown is ignored: deleting the remote
	// row and resyncing leaves the frozen local view untouched.
	before := env.eng.Sessions()
	require.NoError(t, env.sessions.DeleteByRoom(ctx, "r1"))
	require.NoError(t, env.eng.Resync(ctx))
	require.Equal(t, before, env.eng.Sessions())

	// Ticks after teardown are no-ops.
	env.clock.Advance(time.Hour)
	env.eng.Tick(ctx)
	require.Equal(t, 0, env.player.playCount())
}

func TestNowTracksTick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	moved := env.clock.Advance(42 * time.Second)
	env.eng.Tick(ctx)
	require.True(t, env.eng.Now().Equal(moved))
}
