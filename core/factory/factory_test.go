package factory

import (
	"testing"
	"time"
)

type provider struct {
	minutes int
	timeout time.Duration
}

type providerConf struct {
	Minutes int           `json:"default_minutes"`
	Timeout time.Duration `json:"timeout"`
}

func TestRegistryCreateDecodes(t *testing.T) {
	reg := NewRegistry[*provider]()
	if err := reg.Register("static", func(conf map[string]any) (*provider, error) {
		var c providerConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &provider{minutes: c.Minutes, timeout: c.Timeout}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	p, err := reg.Create(ModuleConfig{Type: "static", Conf: map[string]any{"default_minutes": "15", "timeout": "2s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.minutes != 15 || p.timeout != 2*time.Second {
		t.Fatalf("unexpected decode %+v", p)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "z"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry[string]()
	for _, n := range []string{"redis", "memory", "google"} {
		_ = reg.Register(n, func(map[string]any) (string, error) { return n, nil })
	}
	got := reg.Names()
	want := []string{"google", "memory", "redis"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names %v, want %v", got, want)
		}
	}
}
