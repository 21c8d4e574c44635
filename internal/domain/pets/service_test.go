package pets

import (
	"context"
	"errors"
	"testing"
)

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: make(map[string]Pet)}
}

func (r *testRepo) Create(_ context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(_ context.Context, ownerUserID string) ([]Pet, error) {
	var out []Pet
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		owner string
		in    CreateInput
	}{
		{"sin owner", "", CreateInput{Name: "Firulais", Species: "dog"}},
		{"sin nombre", "owner-1", CreateInput{Species: "dog"}},
		{"especie no soportada", "owner-1", CreateInput{Name: "Coco", Species: "parrot"}},
		{"sexo inválido", "owner-1", CreateInput{Name: "Coco", Species: "cat", Sex: "other"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.owner, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Create_NormalizesAndDefaults(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{
		Name:    "  Firulais ",
		Species: "Dog",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Firulais" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if p.Species != string(SpeciesDog) {
		t.Fatalf("expected normalized species, got %q", p.Species)
	}
	if p.Sex != string(SexUnknown) {
		t.Fatalf("expected default sex unknown, got %q", p.Sex)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestService_OwnerOf(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Michi", Species: "cat", Sex: "female"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	owner, err := svc.OwnerOf(ctx, p.ID)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if owner != "owner-1" {
		t.Fatalf("expected owner-1, got %q", owner)
	}

	if _, err := svc.OwnerOf(ctx, "no-such-pet"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
