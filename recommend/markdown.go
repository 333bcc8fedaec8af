package recommend

import (
	"fmt"
	"strconv"
	"strings"
)

// Markdown renders rec the way the web page lays it out.
func Markdown(rec Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s in %s (%s)\n\n", rec.Query.Condition, rec.Query.Region, rec.Query.AgeGroup)

	b.WriteString("## Static Recommendations from Dataset\n\n")
	if !rec.HasMatches() {
		b.WriteString(NoMatchMessage + "\n")
	}
	for _, crop := range rec.Crops {
		fmt.Fprintf(&b, "- %s\n", crop)
	}

	if len(rec.Enrichment) > 0 {
		b.WriteString("\n## Nutrient Data (USDA FoodData Central)\n\n")
		for _, e := range rec.Enrichment {
			if len(e.Highlights) == 0 {
				fmt.Fprintf(&b, "- **%s**: no data\n", e.Crop)
				continue
			}
			parts := make([]string, 0, len(e.Highlights))
			for _, n := range e.Highlights {
				parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %s %s", n.Name, strconv.FormatFloat(n.Value, 'g', 4, 64), strings.ToLower(n.Unit))))
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", e.Crop, strings.Join(parts, ", "))
		}
	}

	b.WriteString("\n## AI Agent Recommendation\n\n")
	b.WriteString(rec.Text())
	b.WriteString("\n\n**Note:** " + Disclaimer + "\n")

	return b.String()
}
