package cashier

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/itsneelabh/cashier/core"
	"github.com/itsneelabh/cashier/internal/mockapi"
	"github.com/itsneelabh/cashier/pkg/reports"
	"github.com/itsneelabh/cashier/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFrontEnd struct {
	alerts    []string
	redirects int
}

func (r *recordingFrontEnd) Alert(ctx context.Context, title, message string) {
	r.alerts = append(r.alerts, title)
}

func (r *recordingFrontEnd) RedirectToLogin(ctx context.Context) { r.redirects++ }

func startMock(t *testing.T) (string, *mockapi.Issuer, *mockapi.Store) {
	t.Helper()
	issuer, err := mockapi.NewIssuer("app-secret", time.Hour)
	require.NoError(t, err)
	store := mockapi.NewStore()
	mockapi.Seed(store, time.Now())

	srv, err := mockapi.New(mockapi.Options{Store: store, Issuer: issuer})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Shutdown(time.Second) })
	return "http://" + ln.Addr().String(), issuer, store
}

func newApp(t *testing.T, base string, mem core.Memory) *App {
	t.Helper()
	cfg, err := core.NewConfig(
		core.WithAPIBaseURL(base),
		core.WithMemoryProvider(core.MemoryProviderInMemory),
	)
	require.NoError(t, err)

	app, err := New(context.Background(), cfg, WithMemory(mem), WithLogger(&core.NoOpLogger{}))
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })
	return app
}

func TestApp_OrderFlow(t *testing.T) {
	ctx := context.Background()
	base, _, store := startMock(t)
	mem := core.NewMemoryStore()
	app := newApp(t, base, mem)

	res, applied := app.Menu.Refresh(ctx)
	require.True(t, res.Available())
	require.True(t, applied)

	latte, ok := app.Menu.Find(1)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		_, err := app.Cart.AddOne(ctx, latte)
		require.NoError(t, err)
	}

	proj := app.Projector.Project(app.Cart)
	require.Len(t, proj.Lines, 1)
	assert.Equal(t, "₱150.00", app.Money.Format(proj.Total()))

	// The product disappears server side; the entry is kept and reported.
	store.RemoveProduct(1)
	_, applied = app.Menu.Refresh(ctx)
	require.True(t, applied)
	proj = app.Projector.Project(app.Cart)
	assert.Empty(t, proj.Lines)
	require.Len(t, proj.Stale, 1)
	assert.Equal(t, "Caffe Latte", proj.Stale[0].Product.Name)

	// A new App over the same store resumes the cart.
	resumed := newApp(t, base, mem)
	assert.Equal(t, map[int]int{1: 3}, resumed.Cart.Snapshot())
}

func TestApp_CorruptCartIsReset(t *testing.T) {
	base, _, _ := startMock(t)
	mem := core.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), core.KeyCart, "][", 0))

	app := newApp(t, base, mem)
	assert.Empty(t, app.Cart.Snapshot())
	raw, err := mem.Get(context.Background(), core.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestApp_Receipt(t *testing.T) {
	base, _, _ := startMock(t)
	app := newApp(t, base, core.NewMemoryStore())

	require.NoError(t, app.Receipt.Load(context.Background(), "42"))
	var buf bytes.Buffer
	require.NoError(t, app.Receipt.Render(&buf))
	assert.Contains(t, buf.String(), "₱107.00")
}

func TestApp_Reports(t *testing.T) {
	ctx := context.Background()
	base, issuer, _ := startMock(t)
	app := newApp(t, base, core.NewMemoryStore())
	fe := &recordingFrontEnd{}

	viewer, err := app.NewReportsViewer(fe, fe)
	require.NoError(t, err)

	err = viewer.Refresh(ctx)
	assert.ErrorIs(t, err, session.ErrNoToken)
	assert.Equal(t, 1, fe.redirects)

	token, err := issuer.Issue("till-1")
	require.NoError(t, err)
	require.NoError(t, app.Session.SaveToken(ctx, token))

	require.NoError(t, viewer.Refresh(ctx))
	assert.Equal(t, reports.PhaseLoaded, viewer.Phase())
	assert.Len(t, viewer.Data().Sold, 2)

	require.NoError(t, viewer.SetKind(ctx, reports.KindInventory))
	assert.Len(t, viewer.Data().Restocks, 2)
}

func TestApp_ImageURL(t *testing.T) {
	base, _, _ := startMock(t)
	app := newApp(t, base, core.NewMemoryStore())
	res, _ := app.Menu.Refresh(context.Background())
	require.True(t, res.Available())

	latte, _ := app.Menu.Find(1)
	assert.Equal(t, base+"/uploads/latte.png", app.ImageURL(latte))
	macchiato, _ := app.Menu.Find(3)
	assert.Equal(t, "https://via.placeholder.com/80", app.ImageURL(macchiato))
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrMissingConfiguration)
}
