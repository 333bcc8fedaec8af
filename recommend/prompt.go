package recommend

import (
	"fmt"
	"strings"

	"nutrisyn/dataset"
)

// MaxPromptCrops is the number of reference crops included in a prompt.
const MaxPromptCrops = 3

// CropNote is a reference crop offered to the model as context.
type CropNote struct {
	Crop            string
	NutrientSummary string
	Benefits        string
}

// NotesFromRows returns one note per distinct crop, in first-seen order.
func NotesFromRows(rows []dataset.Row) []CropNote {
	seen := make(map[string]bool, len(rows))
	notes := make([]CropNote, 0, len(rows))
	for _, r := range rows {
		if seen[r.Crop] {
			continue
		}
		seen[r.Crop] = true
		notes = append(notes, CropNote{Crop: r.Crop, NutrientSummary: r.NutrientSummary, Benefits: r.Benefits})
	}
	return notes
}

// BuildPrompt renders the instruction sent to the model. It is deterministic
// and uses at most the first MaxPromptCrops notes, in the order given.
func BuildPrompt(q dataset.Query, crops []CropNote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the health condition \"%s\" in %s for %s, provide exactly 3 specific crop recommendations. ", q.Condition, q.Region, q.AgeGroup)
	b.WriteString("For each crop, explain its nutritional benefits and why it's suitable for this condition.\n\n")

	if len(crops) > MaxPromptCrops {
		crops = crops[:MaxPromptCrops]
	}
	if len(crops) > 0 {
		b.WriteString("Consider these crops from the reference dataset:\n")
		for _, c := range crops {
			b.WriteString("- ")
			b.WriteString(c.Crop)
			if c.NutrientSummary != "" {
				fmt.Fprintf(&b, " (%s)", c.NutrientSummary)
			}
			if c.Benefits != "" {
				fmt.Fprintf(&b, ": %s", c.Benefits)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Format your response as:\n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, "%d. [Crop Name]: [Detailed explanation]\n", i)
	}
	b.WriteString("\nRecommendations:")

	return b.String()
}
