package poetry

import "testing"

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Café, N°2", "cafe,_nno2"},
		{"  Élan Vital  ", "elan_vital"},
		{"Document égaré N°2", "document_egare_nno2"},
		{"Blue Hour", "blue_hour"},
		{"Straße", "strae"},
		{"naïve 🌙 night", "naive__night"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"Café, N°2", "Ünter den Linden", "A  B", "already_a_slug", "Ça°"} {
		once := NormalizeTitle(title)
		if twice := NormalizeTitle(once); twice != once {
			t.Fatalf("NormalizeTitle(%q)=%q, again=%q", title, once, twice)
		}
	}
}

func TestNormalizeTitle_CollisionsAreSilent(t *testing.T) {
	t.Parallel()

	if a, b := NormalizeTitle("Rêve"), NormalizeTitle("reve"); a != b {
		t.Fatalf("expected collision, got %q and %q", a, b)
	}
}
