package moderation

import (
	"strings"

	"github.com/digkill/futurepro/internal/models"
)

var imageNegatives = []string{
	"lowres",
	"blurry",
	"jpeg artifacts",
	"bad anatomy",
	"bad hands",
	"extra fingers",
	"missing fingers",
	"extra limbs",
	"deformed face",
	"watermark",
	"text",
	"logo",
}

var videoNegatives = []string{
	"flicker",
	"jitter",
	"frame stutter",
	"morphing",
	"warping",
	"bad anatomy",
	"extra limbs",
	"deformed face",
	"watermark",
	"text",
}

var safetyNegatives = []string{
	"minor",
	"child",
	"teen",
	"underage",
	"young-looking",
	"real person",
	"celebrity",
	"deepfake",
	"non-consensual",
}

// NegativePrompt joins the fixed negatives for kind, the fixed safety list and the
// caller's extra text. The fixed parts cannot be removed by the caller.
func NegativePrompt(kind models.MediaKind, extra string) string {
	base := imageNegatives
	if kind == models.MediaVideo {
		base = videoNegatives
	}

	parts := make([]string, 0, len(base)+len(safetyNegatives)+1)
	parts = append(parts, base...)
	parts = append(parts, safetyNegatives...)
	// blank extras are dropped; anything else is appended exactly as given
	if strings.TrimSpace(extra) != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, ", ")
}
