package librus

import (
	"fmt"
)

// Prefix lengths bounding the free-text part of a fingerprint. Long comments
// and announcement bodies still differentiate near-duplicates within the
// prefix; anything beyond it does not affect identity.
const (
	gradeCommentPrefixLen        = 50
	announcementContentPrefixLen = 100
)

// fingerprintHash is a 32-bit shift-and-subtract rolling hash
// (hash = hash*31 + char, in two's complement). It is deliberately not
// collision-resistant: ids persisted by earlier runs were produced by this
// exact function, so changing it would make every known entity reappear as
// new. Do not swap the algorithm without remapping stored snapshots.
func fingerprintHash(s string) int32 {
	var hash int32
	for _, r := range s {
		hash = (hash << 5) - hash + int32(r)
	}
	return hash
}

func absHash(h int32) uint32 {
	if h < 0 {
		// Matches abs() on a 32-bit value, MinInt32 wraps to itself.
		return uint32(-int64(h))
	}
	return uint32(h)
}

// truncate cuts s to at most n characters, never splitting a rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ResolveGradeID returns the native id when present, otherwise a synthetic
// id derived from the grade's defining fields, formatted "custom_<hash>".
// Identical content always yields the identical id.
func ResolveGradeID(nativeID string, g Grade) string {
	if nativeID != "" {
		return nativeID
	}
	fingerprint := fmt.Sprintf("%s-%s-%s-%s-%s",
		g.Subject, g.Value, g.Date, g.Teacher, truncate(g.Comment, gradeCommentPrefixLen))
	return fmt.Sprintf("custom_%d", absHash(fingerprintHash(fingerprint)))
}

// ResolveAnnouncementID returns the native id when present, otherwise a
// synthetic id formatted "ann_<hash>".
func ResolveAnnouncementID(nativeID string, a Announcement) string {
	if nativeID != "" {
		return nativeID
	}
	fingerprint := fmt.Sprintf("%s-%s-%s-%s",
		a.Title, a.Date, a.Author, truncate(a.Content, announcementContentPrefixLen))
	return fmt.Sprintf("ann_%d", absHash(fingerprintHash(fingerprint)))
}
