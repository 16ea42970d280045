package catalog

import "strings"

// Article codes arrive in several spellings of the same part number:
// "AG 01007", "ag01007", "CUK18000-2", "CUK 18000/2". Lookups therefore go
// through up to three keys, from least to most aggressive cleaning.

// CleanArticle removes whitespace and uppercases the code ("AG 01007" ->
// "AG01007").
func CleanArticle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// NormalizeArticle additionally strips the separator characters vendors are
// inconsistent about. It is idempotent.
func NormalizeArticle(s string) string {
	s = CleanArticle(s)
	for _, sep := range []string{"-", "/", "_"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// ArticleVariants returns the lookup keys registered for an article code:
// as written, cleaned, and fully normalized. Duplicates are collapsed.
func ArticleVariants(s string) []string {
	raw := strings.TrimSpace(s)
	clean := CleanArticle(raw)
	norm := NormalizeArticle(raw)

	variants := make([]string, 0, 3)
	for _, v := range []string{raw, clean, norm} {
		if v == "" {
			continue
		}
		seen := false
		for _, prev := range variants {
			if prev == v {
				seen = true
				break
			}
		}
		if !seen {
			variants = append(variants, v)
		}
	}
	return variants
}
