package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func startRunner(t *testing.T, r *runner.Runner) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errc
}

func receive(t *testing.T, c inbox) domain.Envelope {
	t.Helper()
	select {
	case msg := <-c:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return domain.Envelope{}
	}
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
		return nil
	}
}

func TestRunner_PublishesInRenderOrder(t *testing.T) {
	layout := newScriptLayout()
	reg := registry.New()
	view := make(inbox, 16)
	require.NoError(t, reg.Register(context.Background(), "A", view))
	receive(t, view) // bootstrap

	_, _ = startRunner(t, runner.NewRunner(layout, reg))

	layout.push(domain.FullUpdate(map[string]any{"children": []any{"0"}}))
	layout.push(domain.NewUpdate("/children/0", "1"))
	layout.push(domain.NewUpdate("/children/0", "2"))

	assert.Equal(t, "", receive(t, view).Data.Path)
	assert.Equal(t, "1", receive(t, view).Data.Model)
	assert.Equal(t, "2", receive(t, view).Data.Model)
	assert.Equal(t, map[string]any{"children": []any{"2"}}, reg.Snapshot().Model)
}

func TestRunner_CancelExitsOnce(t *testing.T) {
	layout := newScriptLayout()
	var exits []error
	r := runner.NewRunner(layout, registry.New(), runner.WithHooks(domain.LifecycleHooks{
		OnLoopExit: func(ctx context.Context, e *domain.LoopEvent) { exits = append(exits, e.Err) },
	}))
	cancel, errc := startRunner(t, r)

	cancel()
	err := waitErr(t, errc)
	assert.ErrorIs(t, err, context.Canceled)

	entered, exited := layout.counts()
	assert.Equal(t, 1, entered)
	assert.Equal(t, 1, exited)
	require.Len(t, exits, 1)
	assert.ErrorIs(t, exits[0], context.Canceled)
}

func TestRunner_RenderFailure(t *testing.T) {
	layout := newScriptLayout()
	reg := registry.New()
	view := make(inbox, 16)
	require.NoError(t, reg.Register(context.Background(), "A", view))
	receive(t, view)

	_, errc := startRunner(t, runner.NewRunner(layout, reg))

	boom := errors.New("component exploded")
	layout.renders <- renderResult{err: boom}

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, boom)
	_, exited := layout.counts()
	assert.Equal(t, 1, exited)
	assert.Equal(t, domain.ViewReady, reg.Status("A"), "views stay attached after a render failure")
}

func TestRunner_InvalidUpdateIsFatal(t *testing.T) {
	layout := newScriptLayout()
	_, errc := startRunner(t, runner.NewRunner(layout, registry.New()))

	layout.push(domain.NewUpdate("/nowhere", 1))

	err := waitErr(t, errc)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
	_, exited := layout.counts()
	assert.Equal(t, 1, exited)
}

func TestRunner_ExitErrorReported(t *testing.T) {
	layout := newScriptLayout()
	layout.exitErr = errors.New("cleanup failed")
	cancel, errc := startRunner(t, runner.NewRunner(layout, registry.New()))

	cancel()
	assert.ErrorContains(t, waitErr(t, errc), "cleanup failed")
}

func TestRunner_StopsWhenRegistryClosed(t *testing.T) {
	layout := newScriptLayout()
	reg := registry.New()
	_, errc := startRunner(t, runner.NewRunner(layout, reg))

	reg.Close(context.Background())
	layout.push(domain.FullUpdate("late"))

	assert.ErrorIs(t, waitErr(t, errc), context.Canceled)
}

func TestRunner_MirrorsSnapshots(t *testing.T) {
	layout := newScriptLayout()
	store := &memStore{}
	reg := registry.New()
	view := make(inbox, 16)
	require.NoError(t, reg.Register(context.Background(), "A", view))
	receive(t, view)

	_, _ = startRunner(t, runner.NewRunner(layout, reg,
		runner.WithStore(store),
		runner.WithWidgetID("w1"),
	))

	layout.push(domain.FullUpdate("a"))
	layout.push(domain.FullUpdate("b"))
	receive(t, view)
	receive(t, view)

	assert.Eventually(t, func() bool {
		return len(store.revisions()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1, 2}, store.revisions())
}

// MockLayout is a testify mock of ports.Layout.
type MockLayout struct {
	mock.Mock
}

func (m *MockLayout) Enter(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLayout) Render(ctx context.Context) (domain.LayoutUpdate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.LayoutUpdate), args.Error(1)
}

func (m *MockLayout) Deliver(ctx context.Context, event domain.LayoutEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockLayout) Exit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRunner_EnterFailure(t *testing.T) {
	layout := new(MockLayout)
	layout.On("Enter", mock.Anything).Return(errors.New("no resources"))

	err := runner.NewRunner(layout, registry.New()).Run(context.Background())
	assert.ErrorContains(t, err, "no resources")

	layout.AssertExpectations(t)
	layout.AssertNotCalled(t, "Render", mock.Anything)
	layout.AssertNotCalled(t, "Exit", mock.Anything)
}
