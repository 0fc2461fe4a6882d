package enums

// AlertLevel grades how far below its threshold an item has fallen.
type AlertLevel string

const (
	AlertLevelLow        AlertLevel = "low"
	AlertLevelCritical   AlertLevel = "critical"
	AlertLevelOutOfStock AlertLevel = "out_of_stock"
)

var validAlertLevels = []AlertLevel{
	AlertLevelLow,
	AlertLevelCritical,
	AlertLevelOutOfStock,
}

// String implements fmt.Stringer.
func (l AlertLevel) String() string {
	return string(l)
}

// IsValid reports whether the value is a known AlertLevel.
func (l AlertLevel) IsValid() bool {
	for _, candidate := range validAlertLevels {
		if candidate == l {
			return true
		}
	}
	return false
}

// DeriveAlertLevel grades a quantity that is already at or below the threshold.
func DeriveAlertLevel(quantity, minQuantity int) AlertLevel {
	switch {
	case quantity <= 0:
		return AlertLevelOutOfStock
	case 2*quantity <= minQuantity:
		return AlertLevelCritical
	default:
		return AlertLevelLow
	}
}
