package domain

// Owned reports whether a record whose owner field is owner may be accessed by
// the verified subject. Every owner-scoped read and mutation goes through it.
func Owned(owner, subject string) bool {
	return subject != "" && owner == subject
}
