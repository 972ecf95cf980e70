package validation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateAccumulatesAcrossFieldsAndStopsWithinField(t *testing.T) {
	body := Body{
		"title":     "  ",
		"pageCount": json.Number("-5"),
	}
	errs := Validate(body,
		Field("title", Required(""), Length(3, 255, "Title must be between 3 and 255 characters long")),
		Field("pageCount", PositiveInt("Page count must be a positive integer")).Optional(),
	)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %+v", len(errs), errs)
	}
	if errs[0].Field != "title" || errs[0].Message != MsgNotEmpty {
		t.Fatalf("unexpected title error: %+v", errs[0])
	}
	if errs[1].Field != "pageCount" || errs[1].Message != "Page count must be a positive integer" {
		t.Fatalf("unexpected pageCount error: %+v", errs[1])
	}
}

func TestOptionalFieldSkippedWhenBlank(t *testing.T) {
	for _, v := range []any{nil, "", "   "} {
		body := Body{"narrator": v}
		errs := Validate(body, Field("narrator", MaxLength(3, "too long")).Optional())
		if len(errs) != 0 {
			t.Fatalf("value %#v: expected no errors, got %+v", v, errs)
		}
	}
	errs := Validate(Body{}, Field("narrator", MaxLength(3, "too long")).Optional())
	if len(errs) != 0 {
		t.Fatalf("absent optional field should pass, got %+v", errs)
	}
	errs = Validate(Body{"narrator": "abcd"}, Field("narrator", MaxLength(3, "too long")).Optional())
	if len(errs) != 1 {
		t.Fatalf("present optional field should be checked")
	}
}

func TestDateRule(t *testing.T) {
	rule := Date("bad date")
	cases := []struct {
		value any
		want  bool
	}{
		{"2024-02-29", true},
		{"1999-12-31", true},
		{"2024-13-40", false},
		{"2023-02-29", false},
		{"2024-1-01", false},
		{"01-01-2024", false},
		{20240101, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := rule.Check(tc.value); got != tc.want {
			t.Fatalf("Date(%#v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestIntRules(t *testing.T) {
	positive := PositiveInt("bad")
	cases := []struct {
		value any
		want  bool
	}{
		{json.Number("1"), true},
		{json.Number("0"), false},
		{json.Number("-5"), false},
		{json.Number("2.5"), false},
		{"7", true},
		{"seven", false},
		{true, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := positive.Check(tc.value); got != tc.want {
			t.Fatalf("PositiveInt(%#v) = %v, want %v", tc.value, got, tc.want)
		}
	}
	rating := IntBetween(1, 5, "bad")
	if rating.Check(json.Number("6")) || !rating.Check(json.Number("5")) || rating.Check(json.Number("0")) {
		t.Fatalf("IntBetween bounds are not inclusive of [1,5]")
	}
}

func TestOneOfTrimsValue(t *testing.T) {
	rule := OneOf("bad", "decimal", "roman")
	if !rule.Check(" roman ") {
		t.Fatalf("expected trimmed value to match")
	}
	if rule.Check("arabic") {
		t.Fatalf("expected unknown value to fail")
	}
}

func TestBooleanAndEmail(t *testing.T) {
	b := Boolean("bad")
	for _, ok := range []any{true, false, "true", "FALSE", "1", "0", json.Number("1")} {
		if !b.Check(ok) {
			t.Fatalf("Boolean(%#v) should pass", ok)
		}
	}
	for _, bad := range []any{"yes", json.Number("2"), nil} {
		if b.Check(bad) {
			t.Fatalf("Boolean(%#v) should fail", bad)
		}
	}
	e := Email("bad")
	if !e.Check("reader@example.com") {
		t.Fatalf("expected valid email")
	}
	if e.Check("Reader <reader@example.com>") || e.Check("not-an-email") {
		t.Fatalf("expected invalid email to fail")
	}
}

func TestDecodeAndAccessors(t *testing.T) {
	body, err := Decode(strings.NewReader(`{"title":"  Dune  ","pageCount":412,"wasRead":"false","narrator":" "}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := body.String("title"); got != "Dune" {
		t.Fatalf("title = %q, want trimmed", got)
	}
	if got := body.OptionalInt64("pageCount"); got == nil || *got != 412 {
		t.Fatalf("pageCount = %v, want 412", got)
	}
	if body.OptionalString("narrator") != nil {
		t.Fatalf("blank narrator should be nil")
	}
	if body.Bool("wasRead") {
		t.Fatalf("wasRead should be false")
	}

	if _, err := Decode(strings.NewReader(`[1,2]`)); err == nil {
		t.Fatalf("expected array body to be rejected")
	}
	empty, err := Decode(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty body should decode to empty object, got %v %v", empty, err)
	}
}

func TestDecodeRejectsTrailingContent(t *testing.T) {
	for _, raw := range []string{
		`{"name":"Fantasy"} garbage`,
		`{"name":"Fantasy"}{"name":"Horror"}`,
		`{"name":"Fantasy"} 1`,
	} {
		if _, err := Decode(strings.NewReader(raw)); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
	body, err := Decode(strings.NewReader("{\"name\":\"Fantasy\"}\n\t "))
	if err != nil || body.String("name") != "Fantasy" {
		t.Fatalf("trailing whitespace should be accepted, got %v %v", body, err)
	}
}
