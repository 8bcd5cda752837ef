package fields

import (
	"time"

	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
)

// Parse runs every extractor over text and assembles the record. now is only
// consulted when no date is present.
func Parse(text string, now time.Time) domain.ExtractedRecord {
	qty, unit := Quantity(text)

	return domain.ExtractedRecord{
		Date:        Date(text, now),
		VehicleNo:   VehicleNo(text),
		Description: Description(text),
		Qty:         qty,
		Unit:        unit,
	}
}
