package catalog

import "testing"

func TestExtractTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Movie.Name.2025.1080p.mkv", "Movie Name (2025)"},
		{"@CineHub Amaran (2024) Tamil 720p HDRip.mkv", "Amaran (2024)"},
		{"Jailer_2023_1080p.mp4", "Jailer (2023)"},
		{"Vikram-HDRip-720p.mkv", "Vikram"},
		{"Leo.mkv", "Leo"},
		{"[Group] Some Film [2021].mkv", "Group Some Film (2021)"},
		{"2024.mkv", ""},
	}
	for _, tc := range cases {
		if got := ExtractTitle(tc.in); got != tc.want {
			t.Fatalf("ExtractTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractTitleNormalizesToAdminKey(t *testing.T) {
	t.Parallel()

	got := Normalize(ExtractTitle("Movie.Name.2025.1080p.mkv"))
	if got != "movie name (2025)" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestVariantFromFilename(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   Variant
		wantOK bool
	}{
		{"Movie.Name.2025.1080p.mkv", Variant1080p, true},
		{"movie_720p_x264.mp4", Variant720p, true},
		{"Movie 480P.mkv", Variant480p, true},
		{"movie.2160p.mkv", "", false},
		{"movie.mkv", "", false},
	}
	for _, tc := range cases {
		got, ok := VariantFromFilename(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("VariantFromFilename(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, v := range Variants {
		got, ok := ParseVariant(string(v))
		if !ok || got != v {
			t.Fatalf("ParseVariant(%q) = (%q, %v)", v, got, ok)
		}
	}
	if _, ok := ParseVariant("4k"); ok {
		t.Fatal("expected 4k to be rejected")
	}
}
