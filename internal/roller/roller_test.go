package roller

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
	"github.com/vidyasagar/tabroll/internal/host/hosttest"
	"github.com/vidyasagar/tabroll/internal/suppress"
	"pkt.systems/pslog"
)

func quietLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
}

func newService(t *testing.T, h *hosttest.Host) *Service {
	t.Helper()
	s := New(h, Config{SuppressDelay: 200 * time.Millisecond, ReconcileInterval: time.Hour}, quietLogger())
	t.Cleanup(s.Suppression().Close)
	return s
}

func activate(s *Service, w history.WindowID, tabs ...history.TabID) {
	for _, tab := range tabs {
		s.HandleEvent(host.Event{Kind: host.TabActivated, WindowID: w, TabID: tab})
	}
}

func waitIdle(t *testing.T, s *Service) {
	t.Helper()
	s.Suppression().Wait()
	require.Eventually(t, func() bool {
		return s.Suppression().State() == suppress.Idle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestParseCommand(t *testing.T) {
	for _, c := range Commands {
		got, err := ParseCommand(string(c))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	_, err := ParseCommand("roll-up")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestSeedRecordsActiveTabs(t *testing.T) {
	h := hosttest.New(
		hosttest.Window(1, host.WindowNormal, 11, 10, 11),
		hosttest.Window(2, host.WindowNormal, 0, 20),
		hosttest.Window(3, host.WindowPopup, 30, 30),
	)
	s := newService(t, h)

	s.Seed(context.Background())

	require.Equal(t, []history.WindowID{1}, s.Engine().Store().Windows())
	require.Equal(t, []history.TabID{11}, s.Stacks(1).Back)
}

func TestNavigateBackActivatesPreviousTab(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 12, 10, 11, 12))
	h.EmitOnActivate = true
	s := newService(t, h)
	activate(s, 1, 10, 11, 12)

	events, cancel := h.Subscribe()
	defer cancel()

	s.NavigateBack(context.Background())
	s.Suppression().Wait()

	require.Equal(t, []history.TabID{11}, h.Activated())
	require.Equal(t, []history.TabID{10, 11}, s.Stacks(1).Back)
	require.Equal(t, []history.TabID{12}, s.Stacks(1).Forward)

	// The host echoes the activation; it must not be recorded.
	ev := <-events
	s.HandleEvent(ev)
	require.Equal(t, []history.TabID{10, 11}, s.Stacks(1).Back)
	require.Equal(t, []history.TabID{12}, s.Stacks(1).Forward)
}

func TestNavigateForwardAfterBack(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 12, 10, 11, 12))
	s := newService(t, h)
	activate(s, 1, 10, 11, 12)

	s.NavigateBack(context.Background())
	s.NavigateForward(context.Background())
	s.Suppression().Wait()

	require.Equal(t, []history.TabID{11, 12}, h.Activated())
	require.Equal(t, []history.TabID{10, 11, 12}, s.Stacks(1).Back)
	require.Empty(t, s.Stacks(1).Forward)
}

func TestNavigateBackOnSingleEntryLeavesHostAlone(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 10, 10))
	s := newService(t, h)
	activate(s, 1, 10)

	s.NavigateBack(context.Background())
	s.Suppression().Wait()

	require.Empty(t, h.Activated())
	require.Equal(t, suppress.Idle, s.Suppression().State())
	require.Equal(t, []history.TabID{10}, s.Stacks(1).Back)
	require.Empty(t, s.Stacks(1).Forward)
}

func TestTokenModeSingleEntryRollDoesNotMuteReturn(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 10, 10, 11))
	s := New(h, Config{SuppressMode: suppress.ModeToken, SuppressDelay: time.Hour, ReconcileInterval: time.Hour}, quietLogger())
	t.Cleanup(s.Suppression().Close)
	activate(s, 1, 10)

	s.NavigateBack(context.Background())
	s.Suppression().Wait()

	// The user leaves and comes back straight away.
	activate(s, 1, 11, 10)
	require.Equal(t, []history.TabID{10, 11, 10}, s.Stacks(1).Back)
	top, ok := s.Engine().Top(1)
	require.True(t, ok)
	require.Equal(t, history.TabID(10), top)
}

func TestRepeatedActivationOfTopIsNotRecordedTwice(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 10, 10, 11))
	s := newService(t, h)
	activate(s, 1, 10, 11)
	activate(s, 1, 11)
	require.Equal(t, []history.TabID{10, 11}, s.Stacks(1).Back)
}

// openOnSubscribe opens a window as soon as the service subscribes, before
// it has had a chance to seed.
type openOnSubscribe struct {
	*hosttest.Host
}

func (h openOnSubscribe) Subscribe() (<-chan host.Event, func()) {
	events, cancel := h.Host.Subscribe()
	h.SetWindows(hosttest.Window(1, host.WindowNormal, 1, 1))
	h.Emit(host.Event{Kind: host.TabActivated, WindowID: 1, TabID: 1})
	return events, cancel
}

func TestRunDoesNotDoubleRecordActivationBeforeSeed(t *testing.T) {
	h := openOnSubscribe{hosttest.New()}
	s := New(h, Config{ReconcileInterval: time.Hour}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		return len(s.Stacks(1).Back) == 1
	}, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool {
		return len(s.Stacks(1).Back) != 1
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestNavigationIgnoresUnknownAndNonNormalWindows(t *testing.T) {
	h := hosttest.New(
		hosttest.Window(1, host.WindowNormal, 10, 10, 11),
		hosttest.Window(2, host.WindowPopup, 20, 20, 21),
	)
	s := newService(t, h)

	// Window 1 has no history yet.
	s.NavigateBack(context.Background())

	activate(s, 2, 20, 21)
	h.SetCurrent(2)
	s.NavigateBack(context.Background())
	s.NavigateForward(context.Background())

	h.SetCurrent(42)
	s.ToolbarClicked(context.Background())
	s.Suppression().Wait()

	require.Empty(t, h.Activated())
	require.Equal(t, suppress.Idle, s.Suppression().State())
	require.Equal(t, []history.TabID{20, 21}, s.Stacks(2).Back)
}

func TestActivationFailureLeavesHistoryConsistent(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 11, 10, 11))
	h.FailActivate(errors.New("no such tab"))
	s := newService(t, h)
	activate(s, 1, 10, 11)

	s.NavigateBack(context.Background())
	s.Suppression().Wait()

	require.Equal(t, []history.TabID{10}, s.Stacks(1).Back)
	require.Equal(t, []history.TabID{11}, s.Stacks(1).Forward)
}

func TestActivationsDuringSuppressionAreIgnored(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 12, 10, 11, 12))
	s := newService(t, h)
	activate(s, 1, 10, 11, 12)

	s.NavigateBack(context.Background())
	s.Suppression().Wait()
	activate(s, 1, 10)
	require.Equal(t, []history.TabID{10, 11}, s.Stacks(1).Back)

	waitIdle(t, s)
	activate(s, 1, 10)
	require.Equal(t, []history.TabID{10, 11, 10}, s.Stacks(1).Back)
	require.Empty(t, s.Stacks(1).Forward)
}

func TestWindowRemovedDropsHistory(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 10, 10))
	s := newService(t, h)
	activate(s, 1, 10)

	s.HandleEvent(host.Event{Kind: host.WindowRemoved, WindowID: 1})

	back, forward := s.Engine().Store().Get(1)
	require.Empty(t, back)
	require.Empty(t, forward)
	require.False(t, s.Engine().Store().Has(1))
}

func TestClearAllReseedsFromActiveTabs(t *testing.T) {
	h := hosttest.New(
		hosttest.Window(1, host.WindowNormal, 11, 10, 11),
		hosttest.Window(2, host.WindowNormal, 20, 20),
	)
	s := newService(t, h)
	activate(s, 1, 10, 11)
	activate(s, 9, 90)

	require.NoError(t, s.Dispatch(context.Background(), CommandClearStacks))

	require.Equal(t, []history.WindowID{1, 2}, s.Engine().Store().Windows())
	require.Equal(t, []history.TabID{11}, s.Stacks(1).Back)
	require.Equal(t, []history.TabID{20}, s.Stacks(2).Back)
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := newService(t, hosttest.New())
	err := s.Dispatch(context.Background(), Command("explode"))
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRunRecordsEventsUntilCancelled(t *testing.T) {
	h := hosttest.New(hosttest.Window(1, host.WindowNormal, 10, 10, 11))
	s := New(h, Config{ReconcileInterval: 10 * time.Millisecond, SuppressDelay: 10 * time.Millisecond}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.Engine().Store().Has(1)
	}, time.Second, 5*time.Millisecond)

	h.Emit(host.Event{Kind: host.TabActivated, WindowID: 1, TabID: 11})
	require.Eventually(t, func() bool {
		return len(s.Stacks(1).Back) == 2
	}, time.Second, 5*time.Millisecond)

	h.SetWindows(hosttest.Window(1, host.WindowNormal, 11, 11))
	require.Eventually(t, func() bool {
		back := s.Stacks(1).Back
		return len(back) == 1 && back[0] == 11
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}
