package scheduler

import (
	"math"
	"strings"
)

// Print time heuristic constants.
const (
	// baseMinutesPerMB is the print minutes per megabyte of g-code at the
	// reference layer height with the baseline material.
	baseMinutesPerMB = 45.0

	// referenceLayerHeightMm anchors the layer-height scaling; thinner
	// layers print proportionally longer.
	referenceLayerHeightMm = 0.2

	bytesPerMB = 1 << 20
)

// materialMultipliers scales the estimate per material. PLA is the 1.0
// baseline; flexibles and engineering materials print slower.
var materialMultipliers = map[string]float64{
	"PLA":   1.0,
	"PETG":  1.15,
	"ABS":   1.1,
	"ASA":   1.1,
	"NYLON": 1.25,
	"PC":    1.3,
	"TPU":   1.6,
}

// EstimatePrintTime gives a rough print duration in minutes from file size,
// layer height, and material. Unknown materials use the PLA baseline; a
// non-positive layer height falls back to the 0.2mm reference.
//
// The estimate is advisory and used only for queue-depth forecasting. It is
// never surfaced as a user-facing ETA.
func EstimatePrintTime(fileSizeBytes int64, layerHeightMm float64, material string) int {
	if layerHeightMm <= 0 {
		layerHeightMm = referenceLayerHeightMm
	}

	multiplier, ok := materialMultipliers[strings.ToUpper(material)]
	if !ok {
		multiplier = 1.0
	}

	sizeMB := float64(fileSizeBytes) / bytesPerMB
	minutes := sizeMB * baseMinutesPerMB * multiplier * (referenceLayerHeightMm / layerHeightMm)
	if minutes < 1 {
		return 1
	}
	return int(math.Round(minutes))
}
