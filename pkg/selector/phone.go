// Package selector picks the youngest people reachable on a US phone number.
package selector

// usDigits is the length of a North American number without country code.
const usDigits = 10

// IsUSPhoneNumber reports whether s holds exactly ten digits once every
// non-digit character is removed. Seven-digit local numbers are rejected.
func IsUSPhoneNumber(s string) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
			if n > usDigits {
				return false
			}
		}
	}
	return n == usDigits
}
