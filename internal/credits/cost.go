package credits

import (
	"strings"

	"server/internal/domain"
)

// Generation costs per media kind and model. Fixed table, matching the
// storefront pricing.
const (
	CostImage     = 525
	CostVideoSora = 1310
	CostVideoVeo  = 1500
)

// CostFor maps (kind, model) to the credit cost of one generation.
// Unknown video models price as Sora; model is ignored for images.
func CostFor(kind domain.Kind, model string) int {
	switch kind {
	case domain.KindVideo:
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "veo") {
			return CostVideoVeo
		}
		return CostVideoSora
	default:
		return CostImage
	}
}
