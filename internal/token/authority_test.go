package token

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/qrfactory/internal/audit"
	"github.com/talkincode/qrfactory/internal/domain"
	"github.com/talkincode/qrfactory/internal/settings"
	"github.com/talkincode/qrfactory/internal/testutil"
)

const testSecret = "s3cret-admin"

type fixture struct {
	auth     *Authority
	settings *settings.Store
	ledger   *audit.Ledger
	clock    *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))
	store := settings.NewStore(db)
	require.NoError(t, store.Set(context.Background(), domain.SettingAdminCode, testSecret))
	ledger := audit.NewLedger(db).WithClock(clock.Now)
	return &fixture{
		auth:     NewAuthority(db, store, ledger).WithClock(clock.Now),
		settings: store,
		ledger:   ledger,
		clock:    clock,
	}
}

func TestClampTTL(t *testing.T) {
	assert.Equal(t, DefaultTTLMinutes, ClampTTL(0))
	assert.Equal(t, 1, ClampTTL(-5))
	assert.Equal(t, 30, ClampTTL(30))
	assert.Equal(t, 1440, ClampTTL(100000))
}

func TestLoginTokenScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.auth.Issue(ctx, IssueRequest{
		Actor: "admin", Secret: testSecret, Type: "login", TTLMinutes: 5, BaseURL: "http://10.0.0.5:3131",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeLogin, issued.Type)
	assert.Equal(t, "2024-05-10T09:05:00.000Z", issued.ExpiresAt)
	assert.True(t, strings.HasPrefix(issued.Link, "http://10.0.0.5:3131/qr.html?token="+issued.Token))
	assert.True(t, strings.HasSuffix(issued.Link, "&action=login"))

	typ, err := f.auth.Consume(ctx, issued.Token, "device-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeLogin, typ)

	_, err = f.auth.Consume(ctx, issued.Token, "device-2")
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	entries, err := f.ledger.Query(ctx, issued.Token, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionConsumeToken, entries[0].Action)
	assert.Equal(t, domain.ActionIssueToken, entries[1].Action)
}

func TestIssueLinkUsesPublicBaseURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.Set(ctx, domain.SettingPublicBaseURL, "https://qr.example.com"))

	issued, err := f.auth.Issue(ctx, IssueRequest{Secret: testSecret, Type: "logout", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(issued.Link, "https://qr.example.com/qr.html?token="))
	assert.Equal(t, "2024-05-10T09:10:00.000Z", issued.ExpiresAt)
}

func TestIssueRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Issue(ctx, IssueRequest{Secret: "nope", Type: "login"})
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = f.auth.Issue(ctx, IssueRequest{Secret: testSecret, Type: "admin"})
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestConsumeExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.auth.Issue(ctx, IssueRequest{Secret: testSecret, Type: "login", TTLMinutes: 1})
	require.NoError(t, err)
	f.clock.Advance(61 * time.Second)

	_, err = f.auth.Consume(ctx, issued.Token, "device")
	assert.True(t, domain.IsKind(err, domain.KindGone))

	st, err := f.auth.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Expired)
	assert.Zero(t, st.Active)
}

func TestConsumeUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Consume(context.Background(), "missing", "device")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = f.auth.Consume(context.Background(), " ", "device")
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))
}

func TestConsumeConcurrentExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.auth.Issue(ctx, IssueRequest{Secret: testSecret, Type: "login"})
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Consume(ctx, issued.Token, "device")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domain.IsKind(err, domain.KindConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestRotateAdminCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.auth.RotateAdminCode(ctx, "admin", "wrong", "newcode123")
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
	v, _, err := f.settings.Get(ctx, domain.SettingAdminCode)
	require.NoError(t, err)
	assert.Equal(t, testSecret, v)

	err = f.auth.RotateAdminCode(ctx, "admin", testSecret, "short")
	assert.True(t, domain.IsKind(err, domain.KindInvalidArgument))

	require.NoError(t, f.auth.RotateAdminCode(ctx, "admin", testSecret, "newcode123"))
	v, _, err = f.settings.Get(ctx, domain.SettingAdminCode)
	require.NoError(t, err)
	assert.Equal(t, "newcode123", v)

	_, err = f.auth.Issue(ctx, IssueRequest{Secret: testSecret, Type: "login"})
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestSetInstallURLAndPublicInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, domain.IsKind(f.auth.SetInstallURL(ctx, "", "bad", "https://x"), domain.KindForbidden))
	assert.True(t, domain.IsKind(f.auth.SetInstallURL(ctx, "", testSecret, " "), domain.KindInvalidArgument))
	require.NoError(t, f.auth.SetInstallURL(ctx, "", testSecret, "https://apps.example.com/qr"))

	info, err := f.auth.PublicInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.HasAdminCode)
	assert.Equal(t, "https://apps.example.com/qr", info.AppInstallURL)
}
