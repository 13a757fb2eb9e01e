package system

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/R3E-Network/bizhub/internal/logging"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}

func quietManager() *Manager {
	return NewManager(logging.NewWithOutput("test", "error", "json", io.Discard))
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := quietManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&fakeService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(&fakeService{name: "late", events: &events}); err == nil {
		t.Fatal("register after start must fail")
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := "start:a,start:b,start:c,stop:c,stop:b,stop:a"
	if got := strings.Join(events, ","); got != want {
		t.Fatalf("events = %s, want %s", got, want)
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	m := quietManager()
	_ = m.Register(&fakeService{name: "a", events: &events})
	_ = m.Register(&fakeService{name: "b", startErr: errors.New("boom"), events: &events})
	_ = m.Register(&fakeService{name: "c", events: &events})

	err := m.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "start b") {
		t.Fatalf("expected start error, got %v", err)
	}
	want := "start:a,start:b,stop:a"
	if got := strings.Join(events, ","); got != want {
		t.Fatalf("events = %s, want %s", got, want)
	}
}

func TestManagerStopJoinsErrors(t *testing.T) {
	var events []string
	m := quietManager()
	_ = m.Register(&fakeService{name: "a", stopErr: errors.New("a failed"), events: &events})
	_ = m.Register(&fakeService{name: "b", stopErr: errors.New("b failed"), events: &events})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := m.Stop(context.Background())
	if err == nil || !strings.Contains(err.Error(), "a failed") || !strings.Contains(err.Error(), "b failed") {
		t.Fatalf("expected both stop errors, got %v", err)
	}
	if got := m.Names(); strings.Join(got, ",") != "a,b" {
		t.Fatalf("names = %v", got)
	}
}

func TestCloser(t *testing.T) {
	closed := false
	c := Closer{ServiceName: "audit-file", Close: func() error { closed = true; return nil }}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil || !closed {
		t.Fatalf("stop err=%v closed=%v", err, closed)
	}
	if err := (Closer{ServiceName: "noop"}).Stop(context.Background()); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
