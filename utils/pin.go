package utils

// PINLength is the number of digits in a profile PIN.
const PINLength = 4

// ValidatePIN checks if a string is a valid 4-digit PIN.
func ValidatePIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}

	// Check if all characters are digits
	for _, char := range pin {
		if char < '0' || char > '9' {
			return false
		}
	}

	return true
}

// SanitizePINInput drops everything but digits, the way the PIN field filters keystrokes.
func SanitizePINInput(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			out = append(out, raw[i])
		}
	}
	return string(out)
}
