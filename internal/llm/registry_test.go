package llm

import (
	"context"
	"testing"
)

type fakeProvider struct {
	name string
	text string
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(_ context.Context, _ *Request) (*Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: []ContentBlock{{Type: "text", Text: f.text}}}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register("claude", &fakeProvider{name: "claude"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("openai", &fakeProvider{name: "openai"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// First registration becomes the default.
	p, err := reg.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if p.Name() != "claude" {
		t.Fatalf("default = %q, want claude", p.Name())
	}

	if err := reg.SetDefault("openai"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	p, err = reg.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if p.Name() != "openai" {
		t.Fatalf("default = %q, want openai", p.Name())
	}

	if _, err := reg.Get("missing"); err == nil {
		t.Fatal("Get(missing): expected error")
	}
	if err := reg.SetDefault("missing"); err == nil {
		t.Fatal("SetDefault(missing): expected error")
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "claude" || names[1] != "openai" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestRegistryEmptyName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register("", &fakeProvider{}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
