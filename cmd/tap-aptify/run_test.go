package main

import (
	"testing"

	"github.com/queuebridge/tap-aptify/pkg/catalog"
)

func testCatalog() *catalog.Catalog {
	selectedFalse := []catalog.Metadata{{
		Breadcrumb: []string{},
		Metadata:   map[string]any{"selected": false},
	}}
	return &catalog.Catalog{Streams: []*catalog.Entry{
		{TapStreamID: "dbo-ssPerson"},
		{TapStreamID: "dbo-ssOrders"},
		{TapStreamID: "dbo-ssArchive", Metadata: selectedFalse},
	}}
}

func TestSelectStreamsHonorsCatalogSelection(t *testing.T) {
	selected := selectStreams(testCatalog(), "")

	if len(selected) != 2 {
		t.Fatalf("selected %d streams, want 2", len(selected))
	}
	for _, e := range selected {
		if e.TapStreamID == "dbo-ssArchive" {
			t.Error("deselected stream was included")
		}
	}
}

func TestSelectStreamsFilterOverride(t *testing.T) {
	selected := selectStreams(testCatalog(), "dbo-ssArchive, dbo-ssPerson")

	if len(selected) != 2 {
		t.Fatalf("selected %d streams, want 2", len(selected))
	}
	// --select bypasses catalog selection metadata.
	var ids []string
	for _, e := range selected {
		ids = append(ids, e.TapStreamID)
	}
	want := map[string]bool{"dbo-ssPerson": true, "dbo-ssArchive": true}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected stream %s", id)
		}
	}
}
