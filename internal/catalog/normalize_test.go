package catalog

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  The   Matrix (1999) ", "the matrix (1999)"},
		{"punctuation dropped", "Spider-Man: No Way Home!", "spiderman no way home"},
		{"emoji dropped", "🎬 Jailer", "jailer"},
		{"latin diacritics folded", "Amélie", "amelie"},
		{"tabs and newlines", "leo\t\n2023", "leo 2023"},
		{"underscore kept", "movie_name", "movie_name"},
		{"tamil marks kept", "அமரன்", "அமரன்"},
		{"empty", "", ""},
		{"only symbols", "!!! ★ ???", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Amaran (2024)",
		"Pokémon: The Movie",
		"  ＡＢＣ  ",
		"é́x",
		"a★́b",
		"விக்ரம் 2022",
		"@Handle Movie.Name",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeJoinsAdminAndQueryForms(t *testing.T) {
	t.Parallel()

	admin := Normalize("Movie Name (2025)")
	query := Normalize("  movie   NAME (2025)")
	if admin != query {
		t.Fatalf("expected equal keys, got %q and %q", admin, query)
	}
}

func TestDisplayTitle(t *testing.T) {
	t.Parallel()

	if got := DisplayTitle("movie name (2025)"); got != "Movie Name (2025)" {
		t.Fatalf("unexpected display title: %q", got)
	}
	if got := (Entry{Key: "amaran"}).DisplayTitle(); got != "Amaran" {
		t.Fatalf("unexpected entry display title: %q", got)
	}
}
