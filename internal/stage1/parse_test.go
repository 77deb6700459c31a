package stage1

import "testing"

func TestExtractJSONObject_PlainJSON(t *testing.T) {
	got, err := extractJSONObject(`{"a":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_FencedMarkdown(t *testing.T) {
	src := "Hier ist das Ergebnis:\n```json\n{\"a\":1,\"b\":{\"c\":2}}\n```\nEnde."
	got, err := extractJSONObject(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":1,"b":{"c":2}}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_NestedBraces(t *testing.T) {
	src := `prefix {"a":{"b":{"c":1}},"d":2} suffix`
	got, err := extractJSONObject(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":{"b":{"c":1}},"d":2}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_BraceInsideString(t *testing.T) {
	src := `{"text":"contains } a brace","n":1}`
	got, err := extractJSONObject(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != src {
		t.Errorf("got %q, want %q", got, src)
	}
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	if _, err := extractJSONObject("no json here"); err == nil {
		t.Fatal("expected ParseError")
	}
}
