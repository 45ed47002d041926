package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsNotFound_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("dataset %q: %w", "X", ErrNotFound)
	if !IsNotFound(err) {
		t.Error("IsNotFound(wrapped ErrNotFound) = false, want true")
	}
	if IsNotFound(errors.New("something else")) {
		t.Error("IsNotFound(unrelated error) = true, want false")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) = true, want false")
	}
}

func TestFormatError_MessageParts(t *testing.T) {
	cause := errors.New("boom")
	fe := &FormatError{
		Path:            "/data/b.xlsx",
		Reason:          `required sheet "RESUMO" not found`,
		AvailableSheets: []string{"Dados", "Extra"},
		Err:             cause,
	}

	msg := fe.Error()
	for _, want := range []string{"/data/b.xlsx", "required sheet", "Dados", "Extra", "boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
	if !errors.Is(fe, cause) {
		t.Error("FormatError does not unwrap to its cause")
	}
	if !IsFormatError(fmt.Errorf("refresh: %w", fe)) {
		t.Error("IsFormatError(wrapped *FormatError) = false, want true")
	}
	if IsFormatError(errors.New("plain")) {
		t.Error("IsFormatError(plain error) = true, want false")
	}
}

func TestIOError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("permission denied")
	ioe := &IOError{Path: "/data/x.csv", Op: "read", Err: cause}

	msg := ioe.Error()
	if !strings.HasPrefix(msg, "io error: read") {
		t.Errorf("error %q does not start with %q", msg, "io error: read")
	}
	if !strings.Contains(msg, "/data/x.csv") || !strings.Contains(msg, "permission denied") {
		t.Errorf("error %q omits the path or the cause", msg)
	}
	if !errors.Is(ioe, cause) {
		t.Error("IOError does not unwrap to its cause")
	}
}

// MapError relies on the exact Error() texts of the taxonomy, so pin the
// code each kind maps to.
func TestMapError_TaxonomyCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unknown dataset", fmt.Errorf("dataset %q: %w", "X", ErrNotFound), "DS001"},
		{"missing required sheet", &FormatError{Reason: `required sheet "RESUMO" not found`, AvailableSheets: []string{"Dados"}}, "FMT001"},
		{"malformed row", &FormatError{Reason: "malformed row at line 4"}, "FMT002"},
		{"bad charset", &FormatError{Reason: "cannot decode as ISO-8859-1"}, "FMT003"},
		{"bad workbook", &FormatError{Reason: "cannot open workbook"}, "FMT004"},
		{"read failure", &IOError{Path: "/x", Op: "read", Err: errors.New("gone")}, "FILE001"},
		{"hash failure", &IOError{Path: "/x", Op: "hash", Err: errors.New("gone")}, "FILE002"},
		{"fallback", errors.New("something nobody anticipated"), "ERR000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MapError(tc.err).Code; got != tc.want {
				t.Errorf("MapError(%v).Code = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}
