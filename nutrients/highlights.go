package nutrients

// Nutrient is a single displayed value.
type Nutrient struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

var keyNutrients = []string{
	"Energy",
	"Protein",
	"Total lipid (fat)",
	"Carbohydrate, by difference",
	"Fiber, total dietary",
	"Iron, Fe",
	"Calcium, Ca",
	"Potassium, K",
	"Magnesium, Mg",
	"Zinc, Zn",
	"Vitamin C, total ascorbic acid",
	"Vitamin A, RAE",
	"Folate, total",
}

// Highlights returns the key nutrients present in p, in a fixed display order.
func Highlights(p Profile) []Nutrient {
	out := make([]Nutrient, 0, len(keyNutrients))
	for _, name := range keyNutrients {
		v, ok := p.Nutrients[name]
		if !ok {
			continue
		}
		out = append(out, Nutrient{Name: name, Value: v, Unit: p.Units[name]})
	}
	return out
}
