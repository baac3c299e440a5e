package compliance

import (
	"encoding/json"
	"regexp"
	"strings"

	"hisba-ai/mizan/pkg/facts"
)

// PII detection patterns. These run over the raw JSON rendering of the
// input so they catch identifiers wherever they appear in the tree.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Emirates ID: 784 (UAE ISO code) - birth year - serial - check digit.
	emiratesIDPattern = regexp.MustCompile(`784-?\d{4}-?\d{7}-?\d`)

	// UAE phone numbers: +971 / 00971 international prefixes or a local 0
	// prefix, followed by a mobile (5x) or area code and subscriber number.
	uaePhonePattern = regexp.MustCompile(`(\+971|00971|\b0)(5\d{8}|[234679]\d{7})\b`)

	passportPattern = regexp.MustCompile(`\b[A-Z]\d{6,8}\b`)
)

// piiType labels a detected personal-data category.
type piiType string

const (
	piiEmail      piiType = "email"
	piiEmiratesID piiType = "emirates_id"
	piiPhone      piiType = "phone"
	piiPassport   piiType = "passport"
)

// Marker token lists. Detection is substring matching against the
// lowercased JSON rendering of the input, so these deliberately match key
// names as well as values.
var (
	consentMarkers = []string{"consent", "optin", "opt_in", "agreedtoterms", "agreed_to_terms"}

	sensitiveDataMarkers = []string{
		"health", "medical", "diagnosis", "biometric", "genetic",
		"religion", "religious", "ethnicity", "criminal", "political",
	}

	sensitiveConsentMarkers = []string{"sensitivedataconsent", "sensitive_data_consent", "explicitconsent", "explicit_consent"}

	dataSubjectRightsMarkers = []string{
		"datasubjectrights", "data_subject_rights", "righttoaccess",
		"right_to_access", "righttoerasure", "right_to_erasure", "rectification",
	}

	purposeMarkers = []string{"purpose", "action", "usecase", "use_case"}

	breachMarkers = []string{
		"breachnotification", "breach_notification", "dpocontact",
		"dpo_contact", "dataprotectionofficer", "data_protection_officer",
	}

	secretMarkers = []string{
		"api_key", "apikey", "password", "private_key", "privatekey",
		"secret", "token=", "-----begin",
	}

	biasMarkers = []string{
		"race", "ethnicity", "religion", "gender", "nationality",
		"disability", "sexual_orientation", "tribal",
	}

	oversightMarkers = []string{
		"humanoversight", "human_oversight", "humaninloop", "human_in_loop",
		"humanintheloop", "human_in_the_loop", "reviewer", "approver",
	}

	explanationMarkers = []string{"explanation", "explainable", "explainability"}

	accessControlMarkers = []string{"role", "userrole", "user_role", "authenticated", "authorization", "accesslevel", "access_level"}

	encryptionMarkers = []string{"encrypted", "encryption", "aes", "kms"}

	prohibitedUseMarkers = []string{
		"deepfake", "deep_fake", "social scoring", "social_scoring",
		"socialscoring", "mass surveillance", "mass_surveillance",
		"subliminal", "manipulation", "exploit vulnerable",
	}

	highRiskMarkers = []string{
		"medical diagnosis", "medical_diagnosis", "healthcare", "credit scoring",
		"credit_scoring", "creditscoring", "recruitment", "hiring",
		"law enforcement", "law_enforcement", "critical infrastructure",
		"critical_infrastructure", "autonomous vehicle", "biometric identification",
	}

	registrationMarkers = []string{"airegistrationid", "ai_registration_id", "conformityid", "conformity_id"}

	disclosureMarkers = []string{"aidisclosure", "ai_disclosure", "disclosedasai", "disclosed_as_ai", "aigenerated", "ai_generated"}

	governanceMarkers = []string{"datagovernance", "data_governance", "datapolicy", "data_policy", "retentionpolicy", "retention_policy"}
)

// inputScan is the shared per-evaluation view of the input: the raw and
// lowercased JSON renderings plus the detected PII types. Building it once
// per checker invocation keeps the substring scans cheap.
type inputScan struct {
	raw     string
	lowered string
	pii     []piiType
}

func scanInput(input facts.Map) *inputScan {
	data, err := json.Marshal(input)
	if err != nil {
		data = []byte("{}")
	}
	s := &inputScan{
		raw:     string(data),
		lowered: strings.ToLower(string(data)),
	}
	s.pii = detectPII(s.raw)
	return s
}

func detectPII(blob string) []piiType {
	var types []piiType
	if emailPattern.MatchString(blob) {
		types = append(types, piiEmail)
	}
	if emiratesIDPattern.MatchString(blob) {
		types = append(types, piiEmiratesID)
	}
	if uaePhonePattern.MatchString(blob) {
		types = append(types, piiPhone)
	}
	if passportPattern.MatchString(blob) {
		types = append(types, piiPassport)
	}
	return types
}

func (s *inputScan) hasPII() bool {
	return len(s.pii) > 0
}

func (s *inputScan) piiNames() []string {
	names := make([]string, len(s.pii))
	for i, t := range s.pii {
		names[i] = string(t)
	}
	return names
}

// containsAny reports whether the lowered input rendering contains any of
// the given tokens.
func (s *inputScan) containsAny(tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s.lowered, tok) {
			return true
		}
	}
	return false
}

// firstMatch returns the first token found in the lowered rendering.
func (s *inputScan) firstMatch(tokens []string) (string, bool) {
	for _, tok := range tokens {
		if strings.Contains(s.lowered, tok) {
			return tok, true
		}
	}
	return "", false
}
