// Demonstrates a full cascade round trip without a browser or a lookup
// server: an in-memory surface stands in for the form, a catalog-backed
// fetcher stands in for the remote, and the program walks one user through
// state -> brand -> form -> product type, printing what each select shows.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/onceinteractive/cascade/internal/catalog"
	"github.com/onceinteractive/cascade/internal/fetch"
	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/internal/persist"
	"github.com/onceinteractive/cascade/internal/render"
	"github.com/onceinteractive/cascade/pkg/cascade"
	"github.com/onceinteractive/cascade/pkg/types"
)

func demoCatalog() *catalog.Catalog {
	return catalog.New(map[string][]catalog.Row{
		fieldgraph.OpStates: {
			{Value: "Texas"}, {Value: "New York"},
		},
		fieldgraph.OpStores: {
			{Filters: map[string]string{"state": "Texas"}, Value: "Mega Mart"},
			{Filters: map[string]string{"state": "Texas"}, Value: "Corner Shop"},
			{Filters: map[string]string{"state": "New York"}, Value: "City Store"},
		},
		fieldgraph.OpBrands: {
			{Filters: map[string]string{"state": "Texas"}, Value: "Acme"},
			{Filters: map[string]string{"state": "Texas"}, Value: "Globex"},
			{Filters: map[string]string{"state": "New York"}, Value: "Initech"},
		},
		fieldgraph.OpManufacturedBy: {
			{Filters: map[string]string{"state": "Texas"}, Value: "Plant A"},
			{Filters: map[string]string{"state": "New York"}, Value: "Plant B"},
		},
		fieldgraph.OpForms: {
			{Filters: map[string]string{"brand": "Acme", "state": "Texas"}, Value: "ModelX"},
			{Filters: map[string]string{"brand": "Globex", "state": "Texas"}, Value: "Basic"},
		},
		fieldgraph.OpProductTypes: {
			{Filters: map[string]string{"brand": "Acme", "state": "Texas", "form": "ModelX"}, Value: "Widget"},
		},
		fieldgraph.OpReturnReasons: {
			{Filters: map[string]string{"form": "ModelX"}, Value: "Damaged"},
			{Filters: map[string]string{"form": "ModelX"}, Value: "Wrong Item"},
		},
		fieldgraph.OpProductDetails: {
			{Filters: map[string]string{"brand": "Acme", "state": "Texas", "form": "ModelX", "productType": "Widget"}, Value: "Widget-1"},
		},
	})
}

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

	cat := demoCatalog()
	fetcher := fetch.Func(func(_ context.Context, operation string, filters map[string]string) []types.Choice {
		return cat.Resolve(operation, filters)
	})

	surface := render.NewFakeSurface()
	surface.SeedOptions(fieldgraph.FieldState, append([]types.Choice{types.Placeholder()}, cat.States()...), "")

	ctrl, err := cascade.New(surface, fetcher,
		cascade.WithFormID("returns-demo"),
		cascade.WithPersistence(persist.NewMemory()),
		cascade.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("controller", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ctrl.Run(ctx) }()

	steps := []struct {
		field types.FieldID
		value string
	}{
		{fieldgraph.FieldState, "Texas"},
		{fieldgraph.FieldBrand, "Acme"},
		{fieldgraph.FieldForm, "ModelX"},
		{fieldgraph.FieldProductType, "Widget"},
	}

	graph := fieldgraph.Default()
	for _, step := range steps {
		fmt.Printf("\n== user selects %s = %q\n", step.field, step.value)
		ctrl.FieldChanged(step.field, step.value)
		waitSettled(surface, graph)
		printForm(surface, graph)
	}

	fmt.Println("\n== submission succeeds, persisted selections are dropped")
	ctrl.SubmissionSucceeded()
	time.Sleep(50 * time.Millisecond)

	fmt.Println("final selections:")
	for id, v := range ctrl.Selections() {
		if v != "" {
			fmt.Printf("  %-16s %s\n", id, v)
		}
	}
}

// waitSettled waits for every in-flight refetch to finish rendering. The
// initial sleep gives the controller loop time to pick the edit up and flip
// the targets into loading.
func waitSettled(surface *render.FakeSurface, graph *fieldgraph.Graph) {
	time.Sleep(20 * time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		busy := false
		for _, id := range graph.TopDown() {
			if surface.Loading(id) {
				busy = true
				break
			}
		}
		if !busy {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func printForm(surface *render.FakeSurface, graph *fieldgraph.Graph) {
	for _, id := range graph.TopDown() {
		opts := surface.Options(id)
		fmt.Printf("  %-16s selected=%-10q options=%d\n", id, surface.Value(id), len(opts))
	}
}
