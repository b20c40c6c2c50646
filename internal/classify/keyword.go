// Package classify assigns topical categories to content items. The
// primary path is a remote model service; this package also provides the
// keyword fallback used when the service is unreachable.
package classify

import "strings"

// FallbackCategory is returned when no category can be determined.
const FallbackCategory = "Autres"

// Categories lists every category the classifier can produce, in the
// order used to break scoring ties.
var Categories = []string{
	"Politique", "Économie", "Sécurité", "Santé",
	"Culture", "Sport", "Éducation", FallbackCategory,
}

var keywordSets = map[string][]string{
	"Politique": {
		"président", "gouvernement", "ministre", "ministère", "parti", "politique",
		"élection", "député", "assemblée", "vote", "parlement", "sénat",
		"conseil des ministres", "cabinet", "pouvoir", "opposition",
	},
	"Économie": {
		"économie", "économique", "entreprise", "commerce", "commercial",
		"banque", "investissement", "budget", "fiscal", "finance", "financier",
		"franc cfa", "bceao", "monnaie", "inflation", "croissance",
		"import", "export", "douane", "marchandise", "marché",
		"startup", "pme", "industrie", "emploi", "chômage", "travail",
		"agriculture", "coton", "élevage", "mine", "orpaillage",
	},
	"Sécurité": {
		"terrorisme", "terroriste", "djihadiste", "jihadiste", "extrémiste",
		"attentat", "attaque", "assaut", "offensive", "incursion",
		"armée", "militaire", "soldat", "gendarme", "gendarmerie",
		"police", "sécurité", "insécurité",
		"conflit", "violence", "affrontement", "combats", "bataille",
		"groupe armé", "rebelle", "milice", "embuscade", "raid",
		"déplacés", "réfugiés", "victime", "tué", "mort", "blessé",
		"opération militaire", "couvre-feu", "état urgence",
	},
	"Sport": {
		"football", "foot", "ballon", "sport", "sportif",
		"championnat", "coupe", "trophée", "tournoi", "compétition",
		"éliminatoires", "qualification", "équipe nationale",
		"match", "rencontre", "victoire", "défaite", "score", "but",
		"entraîneur", "coach", "sélectionneur", "joueur", "athlète",
		"stade", "terrain", "cyclisme", "basketball", "handball", "athlétisme",
	},
	"Culture": {
		"culture", "culturel", "patrimoine", "tradition", "identité",
		"festival", "musique", "musicien", "artiste", "concert", "spectacle",
		"cinéma", "film", "réalisateur", "acteur", "projection",
		"théâtre", "danse", "chorégraphie", "scène",
		"artisan", "artisanat", "sculpture", "peinture", "exposition", "galerie",
		"livre", "littérature", "écrivain", "auteur", "poète", "roman",
		"musée", "monument", "conte", "griot", "mode", "photographie",
	},
	"Santé": {
		"santé", "sanitaire", "médical", "soins",
		"hôpital", "clinique", "centre santé",
		"médecin", "infirmier", "docteur",
		"maladie", "épidémie", "pandémie",
		"covid", "coronavirus", "vaccin", "vaccination",
		"paludisme", "malaria", "méningite", "tuberculose",
		"patient", "malade", "consultation", "diagnostic", "traitement",
		"médicament", "pharmacie", "nutrition", "malnutrition",
	},
	"Éducation": {
		"école", "éducation", "éducatif", "scolaire",
		"université", "étudiant", "enseignant", "professeur", "instituteur",
		"formation", "examen", "baccalauréat",
		"classe", "cours", "leçon", "programme",
		"élève", "apprenant", "apprentissage", "scolarité",
		"rentrée", "année scolaire", "diplôme", "licence", "master", "doctorat",
		"alphabétisation",
	},
}

// ByKeywords scores the text against each category's keyword list and
// returns the best match, or FallbackCategory when nothing matched.
func ByKeywords(text string) string {
	lower := strings.ToLower(text)

	best := FallbackCategory
	bestScore := 0
	for _, category := range Categories {
		words := keywordSets[category]
		score := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}
