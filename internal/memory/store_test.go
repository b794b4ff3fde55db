package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAndRecall(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.StoreAnalysis(ctx, "AAPL",
		"high volatility after earnings miss with heavy selling pressure",
		"avoid adding size into post-earnings volatility")
	if err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}
	err = store.StoreAnalysis(ctx, "AAPL",
		"quiet sideways consolidation on low volume",
		"patience pays in consolidation ranges")
	if err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}

	matches, err := store.QuerySimilar(ctx,
		"heavy selling and high volatility following an earnings miss",
		"AAPL", 2, 0.1)
	if err != nil {
		t.Fatalf("QuerySimilar: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Lesson != "avoid adding size into post-earnings volatility" {
		t.Errorf("best match lesson = %q", matches[0].Lesson)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Error("matches not sorted by similarity")
		}
	}
}

func TestQuerySimilarScopedByTicker(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.StoreAnalysis(ctx, "TSLA", "deep drawdown on recall news", "recalls hit sentiment hard"); err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}

	matches, err := store.QuerySimilar(ctx, "deep drawdown on recall news", "AAPL", 3, 0)
	if err != nil {
		t.Fatalf("QuerySimilar: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no cross-ticker matches, got %d", len(matches))
	}
}

func TestStoreAnalysisRejectsEmptySituation(t *testing.T) {
	store := openTestStore(t)
	if err := store.StoreAnalysis(context.Background(), "AAPL", "  ", "lesson"); err == nil {
		t.Fatal("expected error for empty situation")
	}
}

func TestCosineIdenticalTexts(t *testing.T) {
	a := embed("bullish momentum with strong fundamentals")
	b := embed("bullish momentum with strong fundamentals")
	if sim := cosine(a, b); sim < 0.999 {
		t.Errorf("cosine of identical texts = %v, want ~1", sim)
	}
}
