package geo

import "testing"

func TestFixMojibake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ZÃ¼rich", want: "Zürich"},
		{in: "GraubÃ¼nden / Grigioni / Grischun", want: "Graubünden / Grigioni / Grischun"},
		{in: "NeuchÃ¢tel", want: "Neuchâtel"},
		{in: "Zürich", want: "Zürich"},
		{in: "Genève", want: "Genève"},
		{in: "Bern", want: "Bern"},
		{in: "", want: ""},
		{in: "Ã alone", want: "Ã alone"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FixMojibake(tt.in); got != tt.want {
				t.Errorf("FixMojibake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanAttribute(t *testing.T) {
	if got := CleanAttribute("  Bern\x00\x00"); got != "Bern" {
		t.Errorf("CleanAttribute() = %q, want %q", got, "Bern")
	}
}
