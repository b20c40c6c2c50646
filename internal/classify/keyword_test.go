package classify

import "testing"

func TestByKeywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"Le président réunit le conseil des ministres", "Politique"},
		{"Victoire des Étalons: le match au stade municipal", "Sport"},
		{"Campagne de vaccination contre le paludisme dans les centres de santé", "Santé"},
		{"La rentrée scolaire et les enseignants du primaire", "Éducation"},
		{"Le festival de cinéma ouvre avec un concert", "Culture"},
		{"La banque centrale relève ses taux face à l'inflation", "Économie"},
		{"Attaque contre un détachement militaire dans le nord", "Sécurité"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			if got := ByKeywords(tc.text); got != tc.want {
				t.Fatalf("ByKeywords(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestByKeywordsFallback(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "xyzzy quux", "les nuages passent"} {
		if got := ByKeywords(text); got != FallbackCategory {
			t.Fatalf("ByKeywords(%q) = %s, want %s", text, got, FallbackCategory)
		}
	}
}
