package vision

import (
	"fmt"
	"strings"
)

// PromptVersion identifies the prompt template revision stamped onto every
// grade report. Bump when either template changes in a way that could shift
// scores.
const PromptVersion = "gt-grade-v1"

const analyzeSystemPrompt = `You are a garment condition inspector for a
resale grading service. You examine a single photograph of a garment and
report observable condition facts. Respond with only a JSON object of the
form:
{"image_type": string, "detected_issues": [string], "condition_signals": [string]}
detected_issues lists concrete flaws (stains, pilling, holes, fading,
missing buttons, broken zippers, loose seams). condition_signals lists
neutral or positive observations (crisp print, intact stitching, original
tags). Report only what is visible. Do not guess at areas the photo does
not show.`

const compositeSystemPrompt = `You are the head grader for a garment resale
service. You receive per-photo condition analyses of one garment and produce
its final grade. Respond with only a JSON object of the form:
{"overall_score": number, "factor_scores": {"fabric_condition": number,
"construction_integrity": number, "color_fidelity": number,
"hardware_trim": number, "cleanliness": number}, "ai_summary": string,
"confidence_score": number, "defects_found": [string]}
All scores are on a 0 to 10 scale. confidence_score is 0 to 1 and reflects
photo coverage and clarity. ai_summary is two or three sentences a buyer
would read. defects_found lists only confirmed defects.`

func analyzeUserPrompt(imageType string, garment GarmentInfo) string {
	return fmt.Sprintf(
		"Inspect this %s photo of a %s (category: %s, brand: %s). Set image_type to %q.",
		imageType,
		orUnknown(garment.GarmentType),
		orUnknown(garment.Category),
		orUnknown(garment.Brand),
		imageType,
	)
}

func compositeUserPrompt(analysesJSON string, garment GarmentInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Garment: %s, category: %s, brand: %s, title: %s.\n",
		orUnknown(garment.GarmentType),
		orUnknown(garment.Category),
		orUnknown(garment.Brand),
		orUnknown(garment.Title),
	)
	if garment.Description != "" {
		fmt.Fprintf(&b, "Seller description: %s\n", garment.Description)
	}
	fmt.Fprintf(&b, "Per-photo analyses:\n%s\nProduce the final grade.", analysesJSON)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// TierForScore maps an overall score to its grade tier band.
func TierForScore(score float64) string {
	switch {
	case score >= 9.5:
		return "Pristine"
	case score >= 8.5:
		return "Excellent"
	case score >= 7.0:
		return "Very Good"
	case score >= 5.5:
		return "Good"
	case score >= 4.0:
		return "Fair"
	default:
		return "Poor"
	}
}
