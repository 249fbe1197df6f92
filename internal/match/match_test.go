package match

import (
	"testing"

	"bankmerge/internal/schema"
)

func testTemplate() *schema.Template {
	return &schema.Template{
		Name: "t",
		Fields: []schema.Field{
			{Name: "记账日期", Type: schema.TypeDate, Synonyms: []string{"交易日期", "日期"}},
			{Name: "交易金额", Type: schema.TypeFloat, Synonyms: []string{"金额", "amount"}},
			{Name: "余额", Type: schema.TypeFloat, Synonyms: []string{"balance"}},
		},
	}
}

func TestBestExactFieldName(t *testing.T) {
	field, score := Best("交易金额", testTemplate())
	if field != "交易金额" || score != 1.0 {
		t.Errorf("Best = %q, %v", field, score)
	}
}

func TestBestExactSynonym(t *testing.T) {
	field, score := Best("日期", testTemplate())
	if field != "记账日期" || score != 1.0 {
		t.Errorf("Best = %q, %v", field, score)
	}
}

func TestBestFuzzy(t *testing.T) {
	// One character off a synonym of 交易金额.
	field, score := Best("交易金鱼", testTemplate())
	if field != "交易金额" {
		t.Errorf("Best = %q, want 交易金额", field)
	}
	if score >= 1.0 || score <= 0 {
		t.Errorf("fuzzy score = %v, want in (0,1)", score)
	}
}

func TestBestBelowThreshold(t *testing.T) {
	_, score := Best("completely unrelated column", testTemplate())
	if score > DefaultThreshold {
		t.Errorf("score = %v, want <= %v", score, DefaultThreshold)
	}
}

func TestBestTieBreaksByDeclarationOrder(t *testing.T) {
	tmpl := &schema.Template{
		Name: "t",
		Fields: []schema.Field{
			{Name: "aaab", Type: schema.TypeText},
			{Name: "aaac", Type: schema.TypeText},
		},
	}
	field, _ := Best("aaaz", tmpl)
	if field != "aaab" {
		t.Errorf("tie broke to %q, want first-declared aaab", field)
	}
}

func TestBestCaseSensitiveExact(t *testing.T) {
	tmpl := &schema.Template{
		Name:   "t",
		Fields: []schema.Field{{Name: "Amount", Type: schema.TypeFloat}},
	}
	_, score := Best("amount", tmpl)
	if score == 1.0 {
		t.Error("lowercase should not be an exact match")
	}
}
