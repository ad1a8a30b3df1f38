package timing

import (
	"math"
	"strings"
	"testing"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

func asset(id, category string) domain.UploadedAsset {
	return domain.UploadedAsset{ID: id, FileName: id + ".jpg", Category: category}
}

func realEstateVocab() domain.Vocabulary {
	return domain.VocabularyFor(domain.NicheRealEstate)
}

func TestEstimateSpeechSeconds(t *testing.T) {
	script := strings.Repeat("x", 450)
	if got := EstimateSpeechSeconds(script); got != 30 {
		t.Fatalf("450 chars at 15 cps: expected 30s, got %v", got)
	}
	if got := EstimateSpeechSeconds(""); got != 0 {
		t.Fatalf("empty script: expected 0, got %v", got)
	}
	if got := EstimateSpeechSeconds("abc"); got != 1 {
		t.Fatalf("3 chars: expected ceil to 1s, got %v", got)
	}
}

func TestAllocateOrdersByFirstMention(t *testing.T) {
	assets := []domain.UploadedAsset{asset("a", "kitchen"), asset("b", "bedroom")}
	script := "Our beautiful kitchen features granite counters. The bedroom is a peaceful retreat."

	plan := Allocate(assets, script, realEstateVocab())
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if len(plan.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(plan.Items))
	}
	if plan.Items[0].Asset.Category != "kitchen" || plan.Items[1].Asset.Category != "bedroom" {
		t.Fatalf("expected kitchen before bedroom, got %s then %s",
			plan.Items[0].Asset.Category, plan.Items[1].Asset.Category)
	}
}

func TestAllocateUnmentionedCategoryGoesLast(t *testing.T) {
	assets := []domain.UploadedAsset{asset("g", "garage"), asset("k", "kitchen")}
	script := "Come cook in this dream kitchen with brand new appliances."

	plan := Allocate(assets, script, realEstateVocab())
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if plan.Items[len(plan.Items)-1].Asset.Category != "garage" {
		t.Fatalf("expected unmentioned garage last, got %s", plan.Items[len(plan.Items)-1].Asset.Category)
	}
}

func TestAllocateIncludesEveryAssetOnceAndSumsToEstimate(t *testing.T) {
	assets := []domain.UploadedAsset{
		asset("a", "kitchen"),
		asset("b", "kitchen"),
		asset("c", "bedroom"),
		asset("d", "backyard"),
		asset("e", "mystery-room"),
	}
	script := "The kitchen has granite countertops. Outside, the backyard patio is perfect " +
		"for entertaining, and the bedroom upstairs is a quiet retreat for the whole family."

	plan := Allocate(assets, script, realEstateVocab())
	if plan == nil {
		t.Fatal("expected a plan")
	}

	seen := map[string]int{}
	var sum float64
	for _, item := range plan.Items {
		seen[item.Asset.ID]++
		sum += item.Seconds
	}
	for _, a := range assets {
		if seen[a.ID] != 1 {
			t.Fatalf("asset %s appears %d times", a.ID, seen[a.ID])
		}
	}

	want := EstimateSpeechSeconds(script)
	if math.Abs(sum-want) > 0.01 {
		t.Fatalf("durations sum %v, expected estimated total %v", sum, want)
	}
	if plan.TotalSeconds != want {
		t.Fatalf("plan total %v, expected %v", plan.TotalSeconds, want)
	}
}

func TestAllocateSplitsCategoryAcrossItsAssets(t *testing.T) {
	assets := []domain.UploadedAsset{asset("a", "kitchen"), asset("b", "kitchen")}
	script := "This kitchen will make you want to cook every single day of the week."

	plan := Allocate(assets, script, realEstateVocab())
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if math.Abs(plan.Items[0].Seconds-plan.Items[1].Seconds) > 0.001 {
		t.Fatalf("same-category assets should split evenly: %v vs %v",
			plan.Items[0].Seconds, plan.Items[1].Seconds)
	}
}

func TestAllocateNilWhenNothingToAllocate(t *testing.T) {
	assets := []domain.UploadedAsset{asset("a", "kitchen")}

	if plan := Allocate(nil, "some script", realEstateVocab()); plan != nil {
		t.Fatal("expected nil plan for empty asset list")
	}
	if plan := Allocate(assets, "   ", realEstateVocab()); plan != nil {
		t.Fatal("expected nil plan for blank script")
	}
	if plan := Allocate(assets, "some script", nil); plan != nil {
		t.Fatal("expected nil plan for missing vocabulary")
	}
}

func TestEqualSplitFallback(t *testing.T) {
	assets := []domain.UploadedAsset{asset("a", "x"), asset("b", "y"), asset("c", "z")}
	script := strings.Repeat("s", 450)

	plan := EqualSplit(assets, script)
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if plan.TotalSeconds != 30 {
		t.Fatalf("expected total 30, got %v", plan.TotalSeconds)
	}
	for i, item := range plan.Items {
		if item.Asset.ID != assets[i].ID {
			t.Fatalf("upload order not preserved at %d", i)
		}
		if math.Abs(item.Seconds-10) > 0.001 {
			t.Fatalf("expected 10s per asset, got %v", item.Seconds)
		}
	}
}

func TestEqualSplitEmptyScriptStillGivesEachAssetTime(t *testing.T) {
	assets := []domain.UploadedAsset{asset("a", "x"), asset("b", "y")}
	plan := EqualSplit(assets, "")
	if plan == nil {
		t.Fatal("expected a plan")
	}
	for _, item := range plan.Items {
		if item.Seconds < MinCategorySeconds {
			t.Fatalf("expected at least %ds per asset, got %v", MinCategorySeconds, item.Seconds)
		}
	}
}
