package prompt

// DefaultTemperature applies when the selected version stores no model
// temperature.
const DefaultTemperature = 0.7

// ResolveSystemPrompt picks the effective system prompt for one chat turn.
// Precedence, highest first:
//  1. an explicit system message on the request, used verbatim;
//  2. the teaching-mode override, used verbatim with no suffix;
//  3. the stored compiled prompt plus the few-shot suffix;
//  4. the few-shot suffix alone.
//
// Pure decision function; all I/O happens before this is called.
func ResolveSystemPrompt(requestSystem, teachingOverride, storedPrompt, fewShotSuffix string) string {
	if requestSystem != "" {
		return requestSystem
	}
	if teachingOverride != "" {
		return teachingOverride
	}
	if storedPrompt != "" {
		return storedPrompt + fewShotSuffix
	}
	return fewShotSuffix
}

// ResolveTemperature returns the stored optimized temperature, or the fixed
// default when absent. Explicit system messages and teaching mode never
// influence temperature.
func ResolveTemperature(stored *float64) float64 {
	if stored != nil {
		return *stored
	}
	return DefaultTemperature
}
