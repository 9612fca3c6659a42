package browser

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aether/internal/logger"
	"aether/internal/models"
)

type fakeDriver struct {
	opened    []string
	activated []string
	closed    []string
	loadErr   error
}

func (f *fakeDriver) Open(ctx context.Context, id, url string) error {
	f.opened = append(f.opened, id)
	return nil
}

func (f *fakeDriver) Load(ctx context.Context, id, url string) (PageInfo, error) {
	if f.loadErr != nil {
		return PageInfo{}, f.loadErr
	}
	return PageInfo{URL: url + "/", Title: "Rendered"}, nil
}

func (f *fakeDriver) Activate(ctx context.Context, id string) error {
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeDriver) ClosePage(ctx context.Context, id string) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeDriver) Shutdown() error { return nil }

type fakeResolver struct {
	info PageInfo
	err  error
}

func (f fakeResolver) Resolve(ctx context.Context, url string) (PageInfo, error) {
	return f.info, f.err
}

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	m.Run()
}

func TestManager_CreateActivatesNewest(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	a, err := m.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.BlankURL, a.URL)
	assert.Equal(t, "New Tab", a.Title)
	assert.Empty(t, a.Favicon)

	b, err := m.Create(ctx, "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Position)
	assert.NotEqual(t, a.ID, b.ID)

	tabs, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.False(t, tabs[0].IsActive)
	assert.True(t, tabs[1].IsActive)
}

func TestManager_CloseActivePicksLowestPosition(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	a, _ := m.Create(ctx, "https://a.example")
	b, _ := m.Create(ctx, "https://b.example")
	c, _ := m.Create(ctx, "https://c.example")

	require.NoError(t, m.Close(ctx, c.ID))
	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, a.ID, active.ID)

	require.NoError(t, m.Close(ctx, a.ID))
	active, _ = m.Active()
	assert.Equal(t, b.ID, active.ID)

	require.NoError(t, m.Close(ctx, b.ID))
	_, ok = m.Active()
	assert.False(t, ok)
}

func TestManager_PositionsNeverRepeat(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	a, _ := m.Create(ctx, "")
	_, _ = m.Create(ctx, "")
	require.NoError(t, m.Close(ctx, a.ID))
	c, _ := m.Create(ctx, "")
	assert.Equal(t, 2, c.Position)
}

func TestManager_UnknownTab(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	assert.ErrorIs(t, m.Close(ctx, "x"), ErrTabNotFound)
	_, err := m.Switch(ctx, "x")
	assert.ErrorIs(t, err, ErrTabNotFound)
	_, err = m.Navigate(ctx, "x", "https://go.dev")
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestManager_SwitchFlagsExactlyOne(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	a, _ := m.Create(ctx, "")
	_, _ = m.Create(ctx, "")

	got, err := m.Switch(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	tabs, _ := m.List(ctx)
	n := 0
	for _, t := range tabs {
		if t.IsActive {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestManager_NavigateWithoutHelpersUsesHost(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	tab, _ := m.Create(ctx, "")

	got, err := m.Navigate(ctx, tab.ID, "https://pkg.go.dev/net/http")
	require.NoError(t, err)
	assert.Equal(t, "pkg.go.dev", got.Title)
	assert.Equal(t, "https://www.google.com/s2/favicons?domain=pkg.go.dev&sz=32", got.Favicon)
}

func TestManager_NavigateUsesResolver(t *testing.T) {
	m := NewManager(WithResolver(fakeResolver{info: PageInfo{Title: "The Go Programming Language", Favicon: "https://go.dev/favicon.ico"}}))
	ctx := context.Background()
	tab, _ := m.Create(ctx, "")

	got, err := m.Navigate(ctx, tab.ID, "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev", got.URL)
	assert.Equal(t, "The Go Programming Language", got.Title)
	assert.Equal(t, "https://go.dev/favicon.ico", got.Favicon)
}

func TestManager_ResolverFailureIsNotFatal(t *testing.T) {
	m := NewManager(WithResolver(fakeResolver{err: errors.New("timeout")}))
	ctx := context.Background()
	tab, _ := m.Create(ctx, "")

	got, err := m.Navigate(ctx, tab.ID, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Title)
}

func TestManager_DriverLifecycle(t *testing.T) {
	d := &fakeDriver{}
	m := NewManager(WithDriver(d))
	ctx := context.Background()

	a, _ := m.Create(ctx, "https://a.example")
	b, _ := m.Create(ctx, "https://b.example")
	assert.Equal(t, []string{a.ID, b.ID}, d.opened)

	got, err := m.Navigate(ctx, b.ID, "https://c.example")
	require.NoError(t, err)
	assert.Equal(t, "https://c.example/", got.URL)
	assert.Equal(t, "Rendered", got.Title)

	require.NoError(t, m.Close(ctx, b.ID))
	assert.Equal(t, []string{b.ID}, d.closed)
	assert.Equal(t, []string{a.ID}, d.activated)

	d.loadErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	_, err = m.Navigate(ctx, a.ID, "https://nowhere.invalid")
	require.Error(t, err)
	tabs, _ := m.List(ctx)
	assert.Equal(t, "https://a.example", tabs[0].URL)
}
