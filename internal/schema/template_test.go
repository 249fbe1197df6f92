package schema

import (
	"errors"
	"testing"
)

func testTemplate() *Template {
	return &Template{
		Name: "t",
		Fields: []Field{
			{Name: "交易日期", Type: TypeDate, Synonyms: []string{"日期"}},
			{Name: "金额", Type: TypeFloat, Synonyms: []string{"交易金额"}},
			{Name: "ID", Type: TypeInt, Identifier: true},
		},
	}
}

func TestTemplateField(t *testing.T) {
	tmpl := testTemplate()
	if f, ok := tmpl.Field("金额"); !ok || f.Type != TypeFloat {
		t.Errorf("Field(金额) = %+v, %v", f, ok)
	}
	if _, ok := tmpl.Field("missing"); ok {
		t.Error("Field(missing) should not exist")
	}
}

func TestTemplateIdentifier(t *testing.T) {
	if got := testTemplate().Identifier(); got != "ID" {
		t.Errorf("Identifier() = %q, want ID", got)
	}
	none := &Template{Name: "n", Fields: []Field{{Name: "a", Type: TypeText}}}
	if got := none.Identifier(); got != "" {
		t.Errorf("Identifier() = %q, want empty", got)
	}
}

func TestSetSynonyms(t *testing.T) {
	tmpl := testTemplate()
	if err := tmpl.SetSynonyms("金额", []string{"发生额"}); err != nil {
		t.Fatalf("SetSynonyms: %v", err)
	}
	f, _ := tmpl.Field("金额")
	if len(f.Synonyms) != 1 || f.Synonyms[0] != "发生额" {
		t.Errorf("synonyms = %v", f.Synonyms)
	}
	if err := tmpl.SetSynonyms("missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := testTemplate()
	cp := orig.Clone()
	cp.Fields[0].Synonyms[0] = "mutated"
	cp.Fields[1].Name = "renamed"
	if orig.Fields[0].Synonyms[0] != "日期" || orig.Fields[1].Name != "金额" {
		t.Error("Clone shares state with original")
	}
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		wantErr bool
	}{
		{"ok", *testTemplate(), false},
		{"empty", Template{Name: "e"}, true},
		{"dup field", Template{Name: "d", Fields: []Field{
			{Name: "a", Type: TypeText}, {Name: "a", Type: TypeText},
		}}, true},
		{"bad type", Template{Name: "b", Fields: []Field{{Name: "a", Type: "decimal"}}}, true},
		{"empty name", Template{Name: "n", Fields: []Field{{Name: "", Type: TypeText}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
