package domain

import "testing"

func TestTruthy(t *testing.T) {
	falsy := []any{nil, false, 0, int64(0), float64(0), "", "0", " ", []any{}, map[string]any{}}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("Truthy(%#v) = true, want false", v)
		}
	}

	truthy := []any{true, 1, int64(-1), float64(0.5), "x", "1", []any{1}, map[string]any{"k": 1}}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("Truthy(%#v) = false, want true", v)
		}
	}
}

func TestRecordCoercion(t *testing.T) {
	rec := Record{Fields: map[string]any{
		"float_id":  float64(42),
		"string_id": "43",
		"padded":    " 44 ",
		"flag":      "0",
		"amount":    "19.99",
	}}

	if got := rec.String("float_id"); got != "42" {
		t.Errorf("String(float_id) = %q", got)
	}
	if got, ok := rec.Int64("string_id"); !ok || got != 43 {
		t.Errorf("Int64(string_id) = %d, %v", got, ok)
	}
	if got, ok := rec.Int64("padded"); !ok || got != 44 {
		t.Errorf("Int64(padded) = %d, %v", got, ok)
	}
	if rec.Bool("flag") {
		t.Error("Bool(\"0\") should be false")
	}
	if got, ok := rec.Float64("amount"); !ok || got != 19.99 {
		t.Errorf("Float64(amount) = %v, %v", got, ok)
	}
	if _, ok := rec.Int64("missing"); ok {
		t.Error("Int64(missing) should not be ok")
	}
}

func TestCollectionUpsert(t *testing.T) {
	c := Collection{
		{Key: "a", Fields: map[string]any{"v": 1}},
		{Key: "b", Fields: map[string]any{"v": 2}},
	}

	c = c.Upsert(Record{Key: "b", Fields: map[string]any{"v": 20}})
	if len(c) != 2 {
		t.Fatalf("upsert of existing key grew the collection to %d", len(c))
	}
	rec, _ := c.FindRecord("b")
	if v, _ := rec.Int64("v"); v != 20 {
		t.Errorf("upsert did not replace record, v=%d", v)
	}

	c = c.Upsert(Record{Key: "c", Fields: map[string]any{"v": 3}})
	if len(c) != 3 || c[2].Key != "c" {
		t.Error("upsert of new key should append in collection order")
	}
}
