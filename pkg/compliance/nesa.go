package compliance

import (
	"fmt"
	"regexp"

	"hisba-ai/mizan/pkg/facts"
)

// incidentLevel classifies a decision for incident-response purposes.
type incidentLevel string

const (
	incidentCritical incidentLevel = "CRITICAL"
	incidentHigh     incidentLevel = "HIGH"
	incidentMedium   incidentLevel = "MEDIUM"
	incidentLow      incidentLevel = "LOW"
)

// dataClass labels the sensitivity of the processed input.
type dataClass string

const (
	classSecret       dataClass = "SECRET"
	classConfidential dataClass = "CONFIDENTIAL"
	classInternal     dataClass = "INTERNAL"
	classPublic       dataClass = "PUBLIC"
)

var hexHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// NESAChecker evaluates the UAE Information Assurance Regulation controls
// against the audit entry and the processed input.
type NESAChecker struct{}

// NewNESAChecker returns a NESA checker.
func NewNESAChecker() *NESAChecker { return &NESAChecker{} }

// Framework implements Checker.
func (c *NESAChecker) Framework() Framework { return FrameworkNESA }

// Check implements Checker. Five controls: audit integrity, incident
// classification, data classification, access control, and cryptography.
func (c *NESAChecker) Check(input facts.Map, decision DecisionInfo, entry EntryInfo, cfg *Config) []Check {
	scan := scanInput(input)
	class := classify(scan)

	return []Check{
		c.checkAuditIntegrity(entry),
		c.checkIncidentClassification(decision),
		c.checkDataClassification(class),
		c.checkAccessControl(scan),
		c.checkCryptography(scan, class),
	}
}

func (c *NESAChecker) checkAuditIntegrity(entry EntryInfo) Check {
	status := StatusCompliant
	details := "audit entry carries well-formed chain hashes"

	if !hexHashPattern.MatchString(entry.Hash) || !hexHashPattern.MatchString(entry.PreviousHash) {
		status = StatusNonCompliant
		details = "audit entry is missing a well-formed hash or previousHash"
	}

	return newCheck(FrameworkNESA, "AU-01", status,
		"Audit records must be chained with cryptographic integrity hashes.",
		"يجب ربط سجلات التدقيق بسلسلة تجزئة تشفيرية لضمان السلامة.",
		details,
		"Repair the audit pipeline so every entry is hash-chained.",
		"أصلح مسار التدقيق بحيث تُربط كل السجلات بسلسلة التجزئة.")
}

// checkIncidentClassification derives an incident level from the decision.
// Critical and high incidents fail the check so they surface for handling.
func (c *NESAChecker) checkIncidentClassification(decision DecisionInfo) Check {
	level := classifyIncident(decision)

	status := StatusCompliant
	if level == incidentCritical || level == incidentHigh {
		status = StatusReviewRequired
	}

	return newCheck(FrameworkNESA, "IR-02", status,
		"Security-relevant decisions must be classified for incident response.",
		"يجب تصنيف القرارات ذات الصلة بالأمن لأغراض الاستجابة للحوادث.",
		fmt.Sprintf("incident level %s (result %s, score %d)", level, decision.Result, decision.Score),
		"Route the incident to the response process for its level.",
		"وجِّه الحادث إلى إجراء الاستجابة المناسب لمستواه.")
}

func classifyIncident(decision DecisionInfo) incidentLevel {
	switch {
	case decision.Result == "REJECTED" && decision.Score <= 20:
		return incidentCritical
	case decision.Result == "REJECTED" || decision.Score < 40:
		return incidentHigh
	case decision.Result == "REVIEW" || decision.Score < 70:
		return incidentMedium
	default:
		return incidentLow
	}
}

func (c *NESAChecker) checkDataClassification(class dataClass) Check {
	// SECRET-class input fails the check: key material must never reach
	// the model in the first place.
	status := StatusCompliant
	if class == classSecret {
		status = StatusReviewRequired
	}

	return newCheck(FrameworkNESA, "DS-01", status,
		"Processed data must be classified and handled per its class.",
		"يجب تصنيف البيانات المعالجة والتعامل معها وفق تصنيفها.",
		fmt.Sprintf("data classified %s", class),
		"Review why secret-class material reached the pipeline.",
		"راجع سبب وصول مواد سرية التصنيف إلى خط المعالجة.")
}

func classify(scan *inputScan) dataClass {
	switch {
	case scan.containsAny(secretMarkers):
		return classSecret
	case scan.hasPII():
		return classConfidential
	case scan.raw != "{}" && scan.raw != "null":
		return classInternal
	default:
		return classPublic
	}
}

func (c *NESAChecker) checkAccessControl(scan *inputScan) Check {
	status := StatusCompliant
	details := "role or authentication marker present"

	if !scan.containsAny(accessControlMarkers) {
		status = StatusReviewRequired
		details = "no role or authentication marker found in the input"
	}

	return newCheck(FrameworkNESA, "AC-01", status,
		"Requests must carry the caller's role or authentication context.",
		"يجب أن تحمل الطلبات دور المستدعي أو سياق المصادقة.",
		details,
		"Attach the caller's role or authentication context to the request.",
		"أرفق دور المستدعي أو سياق المصادقة بالطلب.")
}

func (c *NESAChecker) checkCryptography(scan *inputScan, class dataClass) Check {
	status := StatusCompliant
	details := fmt.Sprintf("encryption not mandated for %s data", class)

	if class == classConfidential || class == classSecret {
		if scan.containsAny(encryptionMarkers) {
			details = fmt.Sprintf("%s data with an encryption marker", class)
		} else {
			status = StatusNonCompliant
			details = fmt.Sprintf("%s data without an encryption marker", class)
		}
	}

	return newCheck(FrameworkNESA, "CR-01", status,
		"Confidential and secret data must be protected with encryption.",
		"يجب حماية البيانات السرية وعالية الحساسية بالتشفير.",
		details,
		"Encrypt confidential data at rest and in transit and record the control.",
		"شفِّر البيانات السرية أثناء التخزين والنقل وسجِّل ذلك.")
}
