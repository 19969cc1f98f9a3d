package mockapi

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ptscope/ptscope/pkg/model"
)

// seedSource fixes the generator stream. The same count always produces
// the same portfolio, so demos and tests see stable data.
const seedSource = 1807

var seedSponsors = []string{
	"Novarex", "Boreal Therapeutics", "Genodyne", "Axion Biosciences",
	"Helix Pharma", "Meridian Labs", "CervoMed", "Atlas Oncology",
	"PioneerRx", "Veritas Clinical",
}

var seedCompounds = []string{
	"ABX-201", "Velorimab", "Cintrafenib", "Neurolide", "Cardiostat",
	"Immunex-7", "Lumivastin", "Protexa", "Zenovir", "Raltegrast",
	"Oncovita", "Medrafil",
}

var seedIndications = map[string][]string{
	"Oncology":           {"advanced solid tumors", "metastatic melanoma", "acute myeloid leukemia", "NSCLC maintenance", "triple-negative breast cancer"},
	"Cardiology":         {"chronic heart failure", "post-MI remodeling", "resistant hypertension"},
	"Neurology":          {"relapsing multiple sclerosis", "Parkinson's disease", "treatment-resistant epilepsy"},
	"Immunology":         {"rheumatoid arthritis", "severe asthma", "ulcerative colitis"},
	"Endocrinology":      {"type 2 diabetes", "severe obesity"},
	"Infectious Disease": {"chronic hepatitis B", "complicated UTI"},
}

var seedAreas = []string{
	"Oncology", "Cardiology", "Neurology", "Immunology",
	"Endocrinology", "Infectious Disease",
}

// Seed generates n deterministic pseudo-random trials. PTS leans on
// enrollment so the correlation panel has signal to find, and terminated
// trials score lower than the rest.
func Seed(n int) []model.Trial {
	if n < 1 {
		n = 1
	}
	r := rand.New(rand.NewSource(seedSource))

	trials := make([]model.Trial, n)
	for i := range trials {
		area := seedAreas[r.Intn(len(seedAreas))]
		indications := seedIndications[area]
		phase := fmt.Sprintf("Phase %d", 1+r.Intn(3))
		enrollment := 20 + r.Intn(1180)

		var status model.Status
		switch pick := r.Intn(10); {
		case pick < 3:
			status = model.StatusRecruiting
		case pick < 7:
			status = model.StatusActive
		case pick < 9:
			status = model.StatusCompleted
		default:
			status = model.StatusTerminated
		}

		pts := 25 + r.NormFloat64()*18 + float64(enrollment)/1200*30
		if status == model.StatusTerminated {
			pts -= 15
		}
		pts = math.Round(clampFloat(pts, 1, 99)*10) / 10

		ep := model.Endpoints{
			OS:  r.Float64() < 0.55,
			PFS: r.Float64() < 0.5,
			ORR: r.Float64() < 0.45,
		}
		if !ep.OS && !ep.PFS && !ep.ORR {
			ep.ORR = true
		}

		trials[i] = model.Trial{
			ID:              fmt.Sprintf("NCT%08d", 10000000+i),
			Title:           fmt.Sprintf("%s in %s", seedCompounds[r.Intn(len(seedCompounds))], indications[r.Intn(len(indications))]),
			Sponsor:         seedSponsors[r.Intn(len(seedSponsors))],
			TherapeuticArea: area,
			Phase:           phase,
			Status:          status,
			PTS:             pts,
			Enrollment:      enrollment,
			Countries:       1 + enrollment/150 + r.Intn(5),
			DurationDays:    120 + r.Intn(1500),
			Endpoints:       ep,
		}
	}
	return trials
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
