package dialog

import (
	"context"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	got, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no state, got %+v", got)
	}

	state := &State{UserID: 42, Scenario: "registration", Step: "step_1"}
	if err := store.Create(ctx, state); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, state); err == nil {
		t.Fatal("duplicate Create must fail")
	}

	state.Step = "step_2"
	state.Context.Name = "Ann"
	if err := store.Update(ctx, state); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err = store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Step != "step_2" || got.Context.Name != "Ann" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// Stored state must be isolated from later caller mutations.
	state.Context.Name = "Bob"
	got, _ = store.Get(ctx, 42)
	if got.Context.Name != "Ann" {
		t.Fatalf("store leaked caller mutation: %+v", got)
	}

	if err := store.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = store.Get(ctx, 42)
	if got != nil {
		t.Fatalf("state survived delete: %+v", got)
	}
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	store := NewMemoryStore()
	err := store.Update(context.Background(), &State{UserID: 7, Scenario: "registration", Step: "step_1"})
	if err == nil {
		t.Fatal("Update of absent state must fail")
	}
}

func TestMemoryStoreRegistrations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.CreateRegistration(ctx, "Ann", "ann@example.com"); err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}
	if err := store.CreateRegistration(ctx, "Bob", "bob@example.com"); err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}

	regs := store.Registrations()
	if len(regs) != 2 {
		t.Fatalf("got %d registrations", len(regs))
	}
	if regs[0].Name != "Ann" || regs[0].Email != "ann@example.com" {
		t.Fatalf("unexpected record: %+v", regs[0])
	}
}
