package model

// ClampProgress keeps a progress percentage within [0,100].
func ClampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Valid reports whether p is a known project priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Valid reports whether c is a known project category.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryClient, CategoryPersonal:
		return true
	}
	return false
}

// Valid reports whether s is a known project status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusReview, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// ValidLevel reports whether n is a 1–5 todo priority or energy level.
func ValidLevel(n int) bool {
	return n >= 1 && n <= 5
}
