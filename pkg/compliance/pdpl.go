package compliance

import (
	"fmt"
	"strings"

	"hisba-ai/mizan/pkg/facts"
)

// PDPLChecker evaluates the UAE Personal Data Protection Law
// (Federal Decree-Law No. 45 of 2021) controls.
type PDPLChecker struct{}

// NewPDPLChecker returns a PDPL checker.
func NewPDPLChecker() *PDPLChecker { return &PDPLChecker{} }

// Framework implements Checker.
func (c *PDPLChecker) Framework() Framework { return FrameworkPDPL }

// Check implements Checker. It produces up to seven checks covering
// data-subject rights, purpose limitation, consent, minimisation, residency,
// sensitive-data consent, and breach-notification readiness.
func (c *PDPLChecker) Check(input facts.Map, decision DecisionInfo, entry EntryInfo, cfg *Config) []Check {
	scan := scanInput(input)
	return c.check(scan, cfg)
}

// check is the scan-level implementation shared with the AI-Ethics privacy
// principle, which re-runs PDPL on the same scan.
func (c *PDPLChecker) check(scan *inputScan, cfg *Config) []Check {
	var checks []Check
	full := cfg.AuditLevel != AuditBasic

	// Art. 3, data-subject rights. Informational; omitted at basic depth.
	if full {
		checks = append(checks, c.checkSubjectRights(scan))
	}

	checks = append(checks,
		c.checkPurpose(scan),
		c.checkConsent(scan),
		c.checkMinimisation(scan),
	)

	if cfg.DataResidency == ResidencyUAE {
		checks = append(checks, c.checkResidency(scan))
	}

	checks = append(checks, c.checkSensitiveData(scan))

	// Art. 18, breach notification. Informational; omitted at basic depth.
	if full {
		checks = append(checks, c.checkBreachReadiness(scan))
	}

	return checks
}

func (c *PDPLChecker) checkSubjectRights(scan *inputScan) Check {
	status := StatusCompliant
	details := "no personal data detected"

	if scan.hasPII() {
		if scan.containsAny(dataSubjectRightsMarkers) {
			details = "data-subject rights marker present"
		} else {
			status = StatusReviewRequired
			details = "personal data present without a data-subject rights marker"
		}
	}

	return newCheck(FrameworkPDPL, "Art. 3", status,
		"Data subjects must be able to exercise access, rectification, and erasure rights.",
		"يجب أن يتمكن أصحاب البيانات من ممارسة حقوق الوصول والتصحيح والمحو.",
		details,
		"Record how data-subject rights requests are honoured for this processing.",
		"سجِّل كيفية الاستجابة لطلبات حقوق أصحاب البيانات لهذه المعالجة.")
}

func (c *PDPLChecker) checkPurpose(scan *inputScan) Check {
	status := StatusCompliant
	details := "explicit processing purpose declared"

	if marker, ok := scan.firstMatch(purposeMarkers); ok {
		details = fmt.Sprintf("purpose marker %q present", marker)
	} else {
		status = StatusReviewRequired
		details = "no purpose, action, or useCase key found in the input"
	}

	return newCheck(FrameworkPDPL, "Art. 4", status,
		"Personal data must be processed for a specific and explicit purpose.",
		"يجب معالجة البيانات الشخصية لغرض محدد وصريح.",
		details,
		"Declare the processing purpose in the request (purpose, action, or useCase).",
		"صرِّح بغرض المعالجة في الطلب.")
}

func (c *PDPLChecker) checkConsent(scan *inputScan) Check {
	status := StatusCompliant
	details := "no personal data detected"

	if scan.hasPII() {
		if scan.containsAny(consentMarkers) {
			details = fmt.Sprintf("personal data (%s) with consent marker",
				strings.Join(scan.piiNames(), ", "))
		} else {
			status = StatusNonCompliant
			details = fmt.Sprintf("personal data (%s) without a consent marker",
				strings.Join(scan.piiNames(), ", "))
		}
	}

	return newCheck(FrameworkPDPL, "Art. 6", status,
		"Processing of personal data requires the data subject's consent.",
		"تتطلب معالجة البيانات الشخصية موافقة صاحب البيانات.",
		details,
		"Obtain and record consent before processing personal data.",
		"احصل على الموافقة وسجِّلها قبل معالجة البيانات الشخصية.")
}

func (c *PDPLChecker) checkMinimisation(scan *inputScan) Check {
	status := StatusCompliant
	details := fmt.Sprintf("%d personal-data categories detected", len(scan.pii))

	if len(scan.pii) >= 3 {
		status = StatusReviewRequired
		details = fmt.Sprintf("input carries %d personal-data categories (%s)",
			len(scan.pii), strings.Join(scan.piiNames(), ", "))
	}

	return newCheck(FrameworkPDPL, "Art. 10", status,
		"Collection must be limited to data necessary for the stated purpose.",
		"يجب أن يقتصر الجمع على البيانات اللازمة للغرض المعلن.",
		details,
		"Reduce the personal-data categories sent to the model.",
		"قلِّل فئات البيانات الشخصية المرسلة إلى النموذج.")
}

func (c *PDPLChecker) checkResidency(scan *inputScan) Check {
	status := StatusCompliant
	details := "no conflicting residency indicator found"

	// A residency indicator outside the UAE while residency is pinned to
	// the UAE is a transfer violation.
	if scan.containsAny([]string{"residency\":\"", "region\":\"", "storagelocation\":\""}) {
		if !scan.containsAny([]string{"\"uae\"", "\"ae\"", "united arab emirates"}) {
			status = StatusNonCompliant
			details = "input declares a storage region outside the UAE while residency is pinned to UAE"
		}
	}

	return newCheck(FrameworkPDPL, "Art. 14", status,
		"Cross-border transfer of personal data requires an adequate jurisdiction or explicit safeguards.",
		"يتطلب نقل البيانات الشخصية عبر الحدود ولاية قضائية ملائمة أو ضمانات صريحة.",
		details,
		"Keep processing within the UAE or document the transfer safeguard.",
		"أبقِ المعالجة داخل الإمارات أو وثِّق ضمانات النقل.")
}

func (c *PDPLChecker) checkSensitiveData(scan *inputScan) Check {
	status := StatusCompliant
	details := "no sensitive-data markers detected"

	if marker, ok := scan.firstMatch(sensitiveDataMarkers); ok {
		if scan.containsAny(sensitiveConsentMarkers) {
			details = fmt.Sprintf("sensitive marker %q with explicit separate consent", marker)
		} else {
			status = StatusNonCompliant
			details = fmt.Sprintf("sensitive marker %q without explicit separate consent", marker)
		}
	}

	return newCheck(FrameworkPDPL, "Art. 16", status,
		"Sensitive personal data requires explicit consent obtained separately from general consent.",
		"تتطلب البيانات الشخصية الحساسة موافقة صريحة منفصلة عن الموافقة العامة.",
		details,
		"Collect explicit separate consent (sensitiveDataConsent) before processing sensitive data.",
		"احصل على موافقة صريحة منفصلة قبل معالجة البيانات الحساسة.")
}

func (c *PDPLChecker) checkBreachReadiness(scan *inputScan) Check {
	status := StatusCompliant
	details := "breach-notification or DPO contact marker present"

	if !scan.containsAny(breachMarkers) {
		status = StatusReviewRequired
		details = "no breach-notification or DPO contact marker found"
	}

	return newCheck(FrameworkPDPL, "Art. 18", status,
		"Controllers must be able to notify the regulator and the data subject of breaches.",
		"يجب أن يكون المتحكمون قادرين على إخطار الجهة الرقابية وصاحب البيانات بالاختراقات.",
		details,
		"Register a DPO contact or breach-notification channel for this processing.",
		"سجِّل جهة اتصال مسؤول حماية البيانات أو قناة الإخطار بالاختراقات.")
}

// newCheck builds a Check, deriving Passed from the status and attaching
// remediation text only on failure.
func newCheck(fw Framework, article string, status Status, req, reqAr, details, rem, remAr string) Check {
	check := Check{
		Framework:     fw,
		Article:       article,
		Status:        status,
		Requirement:   req,
		RequirementAr: reqAr,
		Passed:        status == StatusCompliant,
		Details:       details,
	}
	if !check.Passed {
		check.Remediation = rem
		check.RemediationAr = remAr
	}
	return check
}
