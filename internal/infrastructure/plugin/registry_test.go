package plugin

import (
	"context"
	"errors"
	"sort"
	"testing"

	domainplugin "github.com/grimoire-lang/grimoire/internal/domain/plugin"
	"github.com/grimoire-lang/grimoire/internal/ports"
)

type stubAdapter struct {
	meta domainplugin.Metadata
}

func (s *stubAdapter) Metadata() domainplugin.Metadata { return s.meta }
func (s *stubAdapter) Execute(context.Context, ports.ActionRequest) (*ports.ActionResult, error) {
	return &ports.ActionResult{Output: "ok"}, nil
}

func newStubAdapter(venue string, kinds []domainplugin.Kind, deps ...string) *stubAdapter {
	return &stubAdapter{
		meta: domainplugin.Metadata{
			ID:           venue,
			Name:         venue,
			Version:      "1.0.0",
			Kinds:        kinds,
			Dependencies: deps,
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	stub := newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend})

	if err := reg.Register(stub); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	got, err := reg.Get("aave")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if got.Metadata().ID != "aave" {
		t.Fatalf("expected adapter aave, got %s", got.Metadata().ID)
	}
}

func TestRegistryGetForKind(t *testing.T) {
	reg := NewRegistry()
	stub := newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend, domainplugin.KindWithdraw})
	if err := reg.Register(stub); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := reg.GetForKind("aave", domainplugin.KindLend); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.GetForKind("aave", domainplugin.KindSwap); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	venues := []string{"uniswap", "aave", "lido"}
	expected := append([]string(nil), venues...)
	sort.Strings(expected)

	for _, v := range venues {
		stub := newStubAdapter(v, []domainplugin.Kind{domainplugin.KindSwap})
		if err := reg.Register(stub); err != nil {
			t.Fatalf("register %s: %v", v, err)
		}
	}

	adapters := reg.List()
	if len(adapters) != len(venues) {
		t.Fatalf("expected %d adapters, got %d", len(venues), len(adapters))
	}
	for i, a := range adapters {
		if a.Metadata().ID != expected[i] {
			t.Fatalf("expected adapter order %v, got mismatch at %d: %s", expected, i, a.Metadata().ID)
		}
	}
}

func TestRegistryDuplicateRegister(t *testing.T) {
	reg := NewRegistry()
	stub := newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend})

	if err := reg.Register(stub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Register(stub); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("missing")
	if err == nil {
		t.Fatal("expected error for missing adapter")
	}
	assertDomainErrCode(t, err, domainplugin.ErrCodeNotFound)
}

func TestRegistryRegisterInvalidMetadata(t *testing.T) {
	reg := NewRegistry()
	stub := &stubAdapter{meta: domainplugin.Metadata{Name: "invalid", Version: "1.0.0"}}

	if err := reg.Register(stub); err == nil {
		t.Fatal("expected error for invalid metadata")
	}
}

func TestRegistryRegisterFactoryErrors(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterFactory("", func() (ports.ActionExecutor, error) { return nil, nil }); err == nil {
		t.Fatal("expected error for missing venue")
	}

	if err := reg.RegisterFactory("aave", nil); err == nil {
		t.Fatal("expected error for nil factory")
	}

	if err := reg.RegisterFactory("aave", func() (ports.ActionExecutor, error) { return nil, nil }); err == nil {
		t.Fatal("expected error for nil adapter")
	}

	if err := reg.RegisterFactory("aave", func() (ports.ActionExecutor, error) {
		return newStubAdapter("mismatch", []domainplugin.Kind{domainplugin.KindLend}), nil
	}); err == nil {
		t.Fatal("expected error for venue mismatch")
	}

	expected := errors.New("boom")
	if err := reg.RegisterFactory("aave", func() (ports.ActionExecutor, error) { return nil, expected }); err == nil || !errors.Is(err, expected) {
		t.Fatalf("expected wrapped error %v, got %v", expected, err)
	}
}

func TestRegistryValidateDependencies(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend})); err != nil {
		t.Fatalf("register aave: %v", err)
	}
	if err := reg.Register(newStubAdapter("router", []domainplugin.Kind{domainplugin.KindSwap}, "aave")); err != nil {
		t.Fatalf("register router: %v", err)
	}

	if err := reg.ValidateDependencies(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestRegistryValidateDependenciesMissing(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newStubAdapter("router", []domainplugin.Kind{domainplugin.KindSwap}, "ghost")); err != nil {
		t.Fatalf("register router: %v", err)
	}
	err := reg.ValidateDependencies()
	if err == nil {
		t.Fatal("expected dependency validation error")
	}
	assertDomainErrCode(t, err, domainplugin.ErrCodeDependency)
}

func TestRegistryValidateDependenciesCycle(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newStubAdapter("a", []domainplugin.Kind{domainplugin.KindSwap}, "b")); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := reg.Register(newStubAdapter("b", []domainplugin.Kind{domainplugin.KindSwap}, "a")); err != nil {
		t.Fatalf("register b: %v", err)
	}

	err := reg.ValidateDependencies()
	if err == nil {
		t.Fatal("expected cycle validation error")
	}
	assertDomainErrCode(t, err, domainplugin.ErrCodeCycle)
}

func TestRegistryInitializePlugins(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend})); err != nil {
		t.Fatalf("register aave: %v", err)
	}
	if err := reg.Register(newStubAdapter("router", []domainplugin.Kind{domainplugin.KindSwap}, "aave")); err != nil {
		t.Fatalf("register router: %v", err)
	}

	if err := reg.ValidateDependencies(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := reg.InitializePlugins(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
}

func TestRegistryGetForDependent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newStubAdapter("aave", []domainplugin.Kind{domainplugin.KindLend})); err != nil {
		t.Fatalf("register aave: %v", err)
	}
	if err := reg.Register(newStubAdapter("router", []domainplugin.Kind{domainplugin.KindSwap}, "aave")); err != nil {
		t.Fatalf("register router: %v", err)
	}

	adapter, err := reg.GetForDependent("router", "aave")
	if err != nil {
		t.Fatalf("unexpected dependency retrieval error: %v", err)
	}
	if adapter.Metadata().ID != "aave" {
		t.Fatalf("expected aave adapter, got %s", adapter.Metadata().ID)
	}
}

func assertDomainErrCode(t *testing.T, err error, code domainplugin.ErrorCode) {
	t.Helper()
	var derr *domainplugin.DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	if derr.Code != code {
		t.Fatalf("expected error code %s, got %s", code, derr.Code)
	}
}
