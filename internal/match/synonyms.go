package match

// synonymGroups is the maintained table of domain synonyms, consulted
// before falling to fuzzy matching so common business abbreviations do not
// produce false negatives. Entries are compared in normalized form.
var synonymGroups = [][]string{
	{"fullname", "full name", "holder name", "name of holder"},
	{"ifsc", "ifsc code"},
	{"pan", "pan number", "permanent account number"},
	{"gstin", "gst number", "gstin number"},
	{"account number", "bank account number", "acct number"},
	{"dob", "date of birth"},
	{"msme", "udyam number", "msme number"},
	{"mobile", "mobile number", "phone number", "contact number"},
	{"email", "email id", "email address"},
}

// normalizedSynonyms maps each normalized synonym to its group index.
var normalizedSynonyms = func() map[string]int {
	m := make(map[string]int)
	for i, group := range synonymGroups {
		for _, s := range group {
			m[Normalize(s)] = i
		}
	}
	return m
}()

// Synonymous reports whether two names belong to the same synonym group
// after normalization.
func Synonymous(a, b string) bool {
	ga, ok := normalizedSynonyms[Normalize(a)]
	if !ok {
		return false
	}
	gb, ok := normalizedSynonyms[Normalize(b)]
	return ok && ga == gb
}
