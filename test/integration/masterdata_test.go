package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/masterdata/masterdata/internal/domain/mapping"
	"github.com/masterdata/masterdata/internal/domain/registry"
	"github.com/masterdata/masterdata/internal/platform/apperr"
	"github.com/masterdata/masterdata/internal/platform/db"
)

func newServices(tdb *testDB) (*registry.Service, *mapping.Service) {
	clients := registry.NewPgClientRepo(tdb.Pool, tdb.Schema)
	practices := registry.NewPgPracticeRepo(tdb.Pool, tdb.Schema)
	providers := registry.NewPgProviderRepo(tdb.Pool, tdb.Schema)
	registrySvc := registry.NewService(clients, practices, providers)

	mappings := mapping.NewPgRepo(tdb.Pool, tdb.Schema)
	withTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, tdb.Pool, fn)
	}
	mappingSvc := mapping.NewService(mappings, clients, practices, withTx)
	return registrySvc, mappingSvc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHierarchyRoundTrip(t *testing.T) {
	tdb := requireDB(t)
	registrySvc, _ := newServices(tdb)
	ctx := context.Background()

	client := &registry.Client{Name: "Integration Health " + uuid.NewString()[:8]}
	if err := registrySvc.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	practice := &registry.Practice{Name: "Main Street Clinic", ClientID: client.ID, IsActive: true}
	if err := registrySvc.CreatePractice(ctx, practice); err != nil {
		t.Fatalf("create practice: %v", err)
	}

	provider := &registry.Provider{Name: "Dr. Rivera", PracticeID: practice.ID, IsActive: true}
	if err := registrySvc.CreateProvider(ctx, provider); err != nil {
		t.Fatalf("create provider: %v", err)
	}

	got, err := registrySvc.GetProvider(ctx, provider.ID)
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	if got.PracticeID != practice.ID {
		t.Errorf("provider practice mismatch: %s != %s", got.PracticeID, practice.ID)
	}

	// Deleting the client cascades through the hierarchy.
	if err := registrySvc.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if _, err := registrySvc.GetProvider(ctx, provider.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected provider gone after cascade, got %v", err)
	}
}

func TestMappingLifecycle(t *testing.T) {
	tdb := requireDB(t)
	registrySvc, mappingSvc := newServices(tdb)
	ctx := context.Background()

	client := &registry.Client{Name: "Mapping Client " + uuid.NewString()[:8]}
	if err := registrySvc.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}
	practice := &registry.Practice{Name: "Override Clinic", ClientID: client.ID, IsActive: true}
	if err := registrySvc.CreatePractice(ctx, practice); err != nil {
		t.Fatalf("create practice: %v", err)
	}

	wide := &mapping.Mapping{
		ClientID:             client.ID,
		SourceCode:           "NPE",
		StandardizedCategory: "New Patient",
		ValidFrom:            date(2024, 1, 1),
	}
	if err := mappingSvc.AddMapping(ctx, wide); err != nil {
		t.Fatalf("add client-wide mapping: %v", err)
	}

	// Overlapping same-scope row is rejected.
	err := mappingSvc.AddMapping(ctx, &mapping.Mapping{
		ClientID:             client.ID,
		SourceCode:           "NPE",
		StandardizedCategory: "Established Patient",
		ValidFrom:            date(2024, 6, 1),
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// A practice-scoped override coexists.
	override := &mapping.Mapping{
		ClientID:             client.ID,
		PracticeID:           &practice.ID,
		SourceCode:           "NPE",
		StandardizedCategory: "Emergency",
		ValidFrom:            date(2024, 6, 1),
		ValidUntil:           func() *time.Time { t := date(2024, 6, 30); return &t }(),
	}
	if err := mappingSvc.AddMapping(ctx, override); err != nil {
		t.Fatalf("add practice override: %v", err)
	}

	got, err := mappingSvc.Resolve(ctx, client.ID, &practice.ID, "NPE", date(2024, 6, 15))
	if err != nil {
		t.Fatalf("resolve inside override: %v", err)
	}
	if got.StandardizedCategory != "Emergency" {
		t.Errorf("expected Emergency, got %q", got.StandardizedCategory)
	}

	got, err = mappingSvc.Resolve(ctx, client.ID, &practice.ID, "NPE", date(2024, 7, 1))
	if err != nil {
		t.Fatalf("resolve after override: %v", err)
	}
	if got.StandardizedCategory != "New Patient" {
		t.Errorf("expected New Patient, got %q", got.StandardizedCategory)
	}

	// Close the client-wide row and insert its successor.
	if _, err := mappingSvc.CloseMapping(ctx, wide.ID, date(2024, 12, 31)); err != nil {
		t.Fatalf("close mapping: %v", err)
	}
	successor := &mapping.Mapping{
		ClientID:             client.ID,
		SourceCode:           "NPE",
		StandardizedCategory: "New Patient Visit",
		ValidFrom:            date(2025, 1, 1),
	}
	if err := mappingSvc.AddMapping(ctx, successor); err != nil {
		t.Fatalf("add successor mapping: %v", err)
	}

	got, err = mappingSvc.Resolve(ctx, client.ID, nil, "NPE", date(2025, 3, 1))
	if err != nil {
		t.Fatalf("resolve successor: %v", err)
	}
	if got.StandardizedCategory != "New Patient Visit" {
		t.Errorf("expected New Patient Visit, got %q", got.StandardizedCategory)
	}
}

func TestMappingRoundTrip(t *testing.T) {
	tdb := requireDB(t)
	registrySvc, mappingSvc := newServices(tdb)
	ctx := context.Background()

	client := &registry.Client{Name: "RoundTrip Client " + uuid.NewString()[:8]}
	if err := registrySvc.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}
	practice := &registry.Practice{Name: "RoundTrip Clinic", ClientID: client.ID, IsActive: true}
	if err := registrySvc.CreatePractice(ctx, practice); err != nil {
		t.Fatalf("create practice: %v", err)
	}

	notes := "imported from legacy scheduling export"
	until := date(2024, 6, 30)
	written := &mapping.Mapping{
		ClientID:             client.ID,
		PracticeID:           &practice.ID,
		SourceCode:           "NPE",
		StandardizedCategory: "Emergency",
		ValidFrom:            date(2024, 6, 1),
		ValidUntil:           &until,
		Notes:                &notes,
	}
	if err := mappingSvc.AddMapping(ctx, written); err != nil {
		t.Fatalf("add mapping: %v", err)
	}

	got, err := mappingSvc.GetMapping(ctx, written.ID)
	if err != nil {
		t.Fatalf("get mapping: %v", err)
	}
	if got.ClientID != client.ID {
		t.Errorf("client_id changed: %s", got.ClientID)
	}
	if got.PracticeID == nil || *got.PracticeID != practice.ID {
		t.Errorf("practice_id changed: %v", got.PracticeID)
	}
	if got.SourceCode != "NPE" || got.StandardizedCategory != "Emergency" {
		t.Errorf("code or category changed: %q -> %q", got.SourceCode, got.StandardizedCategory)
	}
	if !sameDay(got.ValidFrom, written.ValidFrom) {
		t.Errorf("valid_from changed: %v", got.ValidFrom)
	}
	if got.ValidUntil == nil || !sameDay(*got.ValidUntil, until) {
		t.Errorf("valid_until changed: %v", got.ValidUntil)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("notes changed: %v", got.Notes)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected generated timestamps")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func TestActiveMappingsView(t *testing.T) {
	tdb := requireDB(t)
	registrySvc, mappingSvc := newServices(tdb)
	ctx := context.Background()

	client := &registry.Client{Name: "View Client " + uuid.NewString()[:8]}
	if err := registrySvc.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	today := time.Now().UTC()
	current := &mapping.Mapping{
		ClientID:             client.ID,
		SourceCode:           "CUR",
		StandardizedCategory: "Current",
		ValidFrom:            today.AddDate(-1, 0, 0),
	}
	expired := &mapping.Mapping{
		ClientID:             client.ID,
		SourceCode:           "EXP",
		StandardizedCategory: "Expired",
		ValidFrom:            today.AddDate(-2, 0, 0),
		ValidUntil:           func() *time.Time { t := today.AddDate(-1, 0, -1); return &t }(),
	}
	for _, m := range []*mapping.Mapping{current, expired} {
		if err := mappingSvc.AddMapping(ctx, m); err != nil {
			t.Fatalf("add mapping %s: %v", m.SourceCode, err)
		}
	}

	active, total, err := mappingSvc.ListActive(ctx, &client.ID, nil, 20, 0)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if total != 1 || len(active) != 1 {
		t.Fatalf("expected exactly one active mapping, got %d (total %d)", len(active), total)
	}
	if active[0].SourceCode != "CUR" {
		t.Errorf("expected CUR to be active, got %q", active[0].SourceCode)
	}
	if active[0].ClientName != client.Name {
		t.Errorf("view should carry the client name, got %q", active[0].ClientName)
	}
}
