package schema

import (
	"os"
	"path/filepath"
	"testing"
)

const tradeIdeaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Trade Idea",
  "description": "Single trade idea with levels",
  "type": "object",
  "required": ["ticker", "direction", "confidence", "duration", "levels"],
  "properties": {
    "ticker": {"type": "string", "description": "Instrument symbol"},
    "direction": {"type": "string", "enum": ["LONG", "SHORT"]},
    "confidence": {"type": "string", "enum": ["BIG_IDEA", "HIGH", "MEDIUM", "LOW"], "default": "MEDIUM"},
    "duration": {"type": "string", "enum": ["CASHFLOW", "SWING", "LONGTERM", "LOTTO"]},
    "levels": {"type": "object"},
    "notes": {"type": "array"}
  }
}`

func writeSchema(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
}

func TestRegistryGetCaches(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "trade-idea", tradeIdeaSchema)

	reg := NewRegistry(dir)
	doc, err := reg.Get("trade-idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Trade Idea" {
		t.Fatalf("expected title Trade Idea, got %s", doc.Title)
	}

	// delete the file; cached entry must still be served
	if err := os.Remove(filepath.Join(dir, "trade-idea.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := reg.Get("trade-idea"); err != nil {
		t.Fatalf("expected cached schema, got error: %v", err)
	}

	reg.Invalidate("trade-idea")
	if _, err := reg.Get("trade-idea"); err == nil {
		t.Fatalf("expected error after invalidate with file removed")
	}
}

func TestRegistryMissingSchema(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	if _, err := reg.Get("nope"); err == nil {
		t.Fatalf("expected error for missing schema")
	}
}

func TestDocumentValidate(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "trade-idea", tradeIdeaSchema)
	reg := NewRegistry(dir)
	doc, err := reg.Get("trade-idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid := map[string]interface{}{
		"ticker":     "SPX",
		"direction":  "LONG",
		"confidence": "HIGH",
		"duration":   "CASHFLOW",
		"levels":     map[string]interface{}{"entry": 6100.0},
	}
	res := doc.Validate(valid)
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}

	invalid := map[string]interface{}{
		"ticker":    "SPX",
		"direction": "SIDEWAYS",
	}
	res = doc.Validate(invalid)
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) == 0 {
		t.Fatalf("expected issues")
	}
	for _, issue := range res.Errors {
		if issue.Path == "" {
			t.Fatalf("issue missing path: %+v", issue)
		}
	}
}

func TestDefaultObject(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "trade-idea", tradeIdeaSchema)
	reg := NewRegistry(dir)
	doc, err := reg.Get("trade-idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obj := doc.DefaultObject()
	if obj["ticker"] != "" {
		t.Fatalf("expected empty string ticker, got %v", obj["ticker"])
	}
	if obj["confidence"] != "MEDIUM" {
		t.Fatalf("expected declared default MEDIUM, got %v", obj["confidence"])
	}
	if _, ok := obj["levels"].(map[string]interface{}); !ok {
		t.Fatalf("expected object zero for levels, got %T", obj["levels"])
	}
	if _, ok := obj["notes"]; ok {
		t.Fatalf("optional field must not appear in default object")
	}
}

func TestExtractRequired(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "trade-idea", tradeIdeaSchema)
	reg := NewRegistry(dir)
	doc, err := reg.Get("trade-idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := map[string]interface{}{
		"ticker":    "TSLA",
		"direction": "SHORT",
		"extra":     true,
	}
	out := doc.ExtractRequired(data)
	if out["ticker"] != "TSLA" {
		t.Fatalf("expected ticker kept")
	}
	if _, ok := out["extra"]; ok {
		t.Fatalf("unexpected extra field in projection")
	}
	if _, ok := out["levels"]; ok {
		t.Fatalf("absent required field must not be invented")
	}
}

func TestDefinition(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "trade-idea", tradeIdeaSchema)
	reg := NewRegistry(dir)
	doc, err := reg.Get("trade-idea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := doc.Definition()
	if def.Title != "Trade Idea" {
		t.Fatalf("expected title, got %s", def.Title)
	}
	if len(def.RequiredFields) != 5 {
		t.Fatalf("expected 5 required fields, got %d", len(def.RequiredFields))
	}
	var found bool
	for _, p := range def.Properties {
		if p.Name == "direction" {
			found = true
			if !p.Required {
				t.Fatalf("direction must be required")
			}
			if len(p.Enum) != 2 {
				t.Fatalf("expected 2 enum values, got %d", len(p.Enum))
			}
		}
	}
	if !found {
		t.Fatalf("direction property missing from definition")
	}
}
