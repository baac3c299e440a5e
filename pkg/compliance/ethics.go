package compliance

import (
	"fmt"

	"hisba-ai/mizan/pkg/facts"
)

// Confidence thresholds used by the reliability and accountability
// principles.
const (
	reliabilityThreshold    = 0.60
	accountabilityThreshold = 0.75
)

// AIEthicsChecker evaluates the six UAE AI Ethics principles:
// inclusiveness, reliability, transparency, security, accountability,
// and privacy.
type AIEthicsChecker struct {
	pdpl *PDPLChecker
}

// NewAIEthicsChecker returns an AI-Ethics checker. The privacy principle
// delegates to the PDPL checker and aggregates its verdicts.
func NewAIEthicsChecker() *AIEthicsChecker {
	return &AIEthicsChecker{pdpl: NewPDPLChecker()}
}

// Framework implements Checker.
func (c *AIEthicsChecker) Framework() Framework { return FrameworkAIEthics }

// Check implements Checker.
func (c *AIEthicsChecker) Check(input facts.Map, decision DecisionInfo, entry EntryInfo, cfg *Config) []Check {
	scan := scanInput(input)

	return []Check{
		c.checkInclusiveness(scan),
		c.checkReliability(decision),
		c.checkTransparency(scan, decision),
		c.checkSecurity(scan),
		c.checkAccountability(scan, decision),
		c.checkPrivacy(scan, cfg),
	}
}

func (c *AIEthicsChecker) checkInclusiveness(scan *inputScan) Check {
	status := StatusCompliant
	details := "no bias-sensitive demographic tokens detected"

	if marker, ok := scan.firstMatch(biasMarkers); ok {
		status = StatusReviewRequired
		details = fmt.Sprintf("bias-sensitive token %q present in the input", marker)
	}

	return newCheck(FrameworkAIEthics, "Inclusiveness", status,
		"AI systems must not discriminate on protected demographic attributes.",
		"يجب ألا تميّز أنظمة الذكاء الاصطناعي على أساس السمات الديموغرافية المحمية.",
		details,
		"Review the use of demographic attributes in this request for disparate impact.",
		"راجع استخدام السمات الديموغرافية في هذا الطلب لتجنب الأثر التمييزي.")
}

func (c *AIEthicsChecker) checkReliability(decision DecisionInfo) Check {
	confidence := decision.EffectiveConfidence()
	status := StatusCompliant
	details := fmt.Sprintf("decision confidence %.2f", confidence)

	if confidence < reliabilityThreshold {
		status = StatusReviewRequired
		details = fmt.Sprintf("decision confidence %.2f below the %.2f reliability threshold",
			confidence, reliabilityThreshold)
	}

	return newCheck(FrameworkAIEthics, "Reliability", status,
		"AI decisions must meet a minimum confidence level to be relied upon.",
		"يجب أن تحقق قرارات الذكاء الاصطناعي حداً أدنى من الثقة ليُعتمد عليها.",
		details,
		"Route low-confidence decisions to manual review.",
		"وجِّه القرارات منخفضة الثقة إلى المراجعة اليدوية.")
}

func (c *AIEthicsChecker) checkTransparency(scan *inputScan, decision DecisionInfo) Check {
	status := StatusCompliant
	details := "decision is traceable and explained"

	switch {
	case decision.AuditID == "":
		status = StatusReviewRequired
		details = "decision carries no audit identifier"
	case !scan.containsAny(explanationMarkers) && len(decision.Reason) <= 10:
		status = StatusReviewRequired
		details = "no explanation marker and the decision reason is too short to explain the outcome"
	}

	return newCheck(FrameworkAIEthics, "Transparency", status,
		"AI decisions must be traceable and carry a meaningful explanation.",
		"يجب أن تكون قرارات الذكاء الاصطناعي قابلة للتتبع ومصحوبة بتفسير واضح.",
		details,
		"Attach an explanation or a substantive reason to the decision.",
		"أرفق تفسيراً أو سبباً جوهرياً بالقرار.")
}

func (c *AIEthicsChecker) checkSecurity(scan *inputScan) Check {
	status := StatusCompliant
	details := "no credential-like tokens detected"

	if marker, ok := scan.firstMatch(secretMarkers); ok {
		status = StatusNonCompliant
		details = fmt.Sprintf("credential-like token %q present in the input", marker)
	}

	return newCheck(FrameworkAIEthics, "Security", status,
		"Credentials and key material must not flow through model prompts.",
		"يجب ألا تمر بيانات الاعتماد والمفاتيح السرية عبر مدخلات النموذج.",
		details,
		"Strip credentials from the request before invoking the model.",
		"أزل بيانات الاعتماد من الطلب قبل استدعاء النموذج.")
}

func (c *AIEthicsChecker) checkAccountability(scan *inputScan, decision DecisionInfo) Check {
	confidence := decision.EffectiveConfidence()
	needsOversight := decision.Result != "APPROVED" || confidence < accountabilityThreshold

	status := StatusCompliant
	details := "human oversight not required for this decision"

	if needsOversight {
		if scan.containsAny(oversightMarkers) {
			details = "human-oversight marker present"
		} else {
			status = StatusReviewRequired
			details = fmt.Sprintf(
				"decision %s with confidence %.2f requires a human-oversight marker",
				decision.Result, confidence)
		}
	}

	return newCheck(FrameworkAIEthics, "Accountability", status,
		"Non-approved or low-confidence decisions require designated human oversight.",
		"تتطلب القرارات غير المعتمدة أو منخفضة الثقة إشرافاً بشرياً معيّناً.",
		details,
		"Assign a human reviewer for this class of decision.",
		"عيِّن مراجعاً بشرياً لهذه الفئة من القرارات.")
}

// checkPrivacy re-runs the PDPL checker over the same scan and aggregates:
// the principle passes only when every PDPL check passed.
func (c *AIEthicsChecker) checkPrivacy(scan *inputScan, cfg *Config) Check {
	pdplChecks := c.pdpl.check(scan, cfg)

	failed := 0
	worst := StatusCompliant
	for _, check := range pdplChecks {
		if check.Passed {
			continue
		}
		failed++
		if check.Status == StatusNonCompliant {
			worst = StatusNonCompliant
		} else if worst == StatusCompliant {
			worst = StatusReviewRequired
		}
	}

	status := StatusCompliant
	details := fmt.Sprintf("all %d PDPL checks passed", len(pdplChecks))
	if failed > 0 {
		status = worst
		details = fmt.Sprintf("%d of %d PDPL checks failed", failed, len(pdplChecks))
	}

	return newCheck(FrameworkAIEthics, "Privacy", status,
		"AI processing must satisfy the personal-data protection controls.",
		"يجب أن تستوفي معالجة الذكاء الاصطناعي ضوابط حماية البيانات الشخصية.",
		details,
		"Resolve the failing PDPL checks for this request.",
		"عالج فحوصات حماية البيانات غير المستوفاة لهذا الطلب.")
}
