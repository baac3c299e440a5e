package compliance

import (
	"fmt"

	"hisba-ai/mizan/pkg/facts"
)

// DubaiAILawChecker evaluates Dubai Law No. 9 of 2023 on the regulation of
// artificial intelligence systems in the Emirate of Dubai.
type DubaiAILawChecker struct{}

// NewDubaiAILawChecker returns a Dubai AI Law checker.
func NewDubaiAILawChecker() *DubaiAILawChecker { return &DubaiAILawChecker{} }

// Framework implements Checker.
func (c *DubaiAILawChecker) Framework() Framework { return FrameworkDubaiAILaw }

// Check implements Checker. Five articles: prohibited uses, registration of
// high-risk systems, AI disclosure, human oversight, and data governance.
func (c *DubaiAILawChecker) Check(input facts.Map, decision DecisionInfo, entry EntryInfo, cfg *Config) []Check {
	scan := scanInput(input)
	_, highRisk := scan.firstMatch(highRiskMarkers)

	checks := []Check{
		c.checkProhibitedUses(scan),
		c.checkRegistration(scan, highRisk),
		c.checkDisclosure(scan),
		c.checkHumanOversight(scan, highRisk),
	}

	// Art. 12 is informational; omitted at basic depth.
	if cfg.AuditLevel != AuditBasic {
		checks = append(checks, c.checkDataGovernance(scan))
	}

	return checks
}

func (c *DubaiAILawChecker) checkProhibitedUses(scan *inputScan) Check {
	status := StatusCompliant
	details := "no prohibited-use tokens detected"

	if marker, ok := scan.firstMatch(prohibitedUseMarkers); ok {
		status = StatusNonCompliant
		details = fmt.Sprintf("prohibited-use token %q present in the input", marker)
	}

	return newCheck(FrameworkDubaiAILaw, "Art. 3", status,
		"AI systems must not be used for prohibited purposes such as deepfakes, social scoring, or mass surveillance.",
		"يُحظر استخدام أنظمة الذكاء الاصطناعي لأغراض محظورة مثل التزييف العميق أو التقييم الاجتماعي أو المراقبة الجماعية.",
		details,
		"Stop the prohibited use; this category cannot be remediated by controls.",
		"أوقف الاستخدام المحظور؛ لا يمكن معالجة هذه الفئة بالضوابط.")
}

func (c *DubaiAILawChecker) checkRegistration(scan *inputScan, highRisk bool) Check {
	status := StatusCompliant
	details := "no high-risk category detected"

	if highRisk {
		if scan.containsAny(registrationMarkers) {
			details = "high-risk category with a registration or conformity identifier"
		} else {
			status = StatusReviewRequired
			details = "high-risk category without an aiRegistrationId or conformityId marker"
		}
	}

	return newCheck(FrameworkDubaiAILaw, "Art. 5", status,
		"High-risk AI systems must be registered and carry a conformity identifier.",
		"يجب تسجيل أنظمة الذكاء الاصطناعي عالية المخاطر وحملها لمعرّف مطابقة.",
		details,
		"Register the system and attach its conformity identifier to requests.",
		"سجِّل النظام وأرفق معرّف المطابقة بالطلبات.")
}

func (c *DubaiAILawChecker) checkDisclosure(scan *inputScan) Check {
	status := StatusCompliant
	details := "AI-disclosure marker present"

	if !scan.containsAny(disclosureMarkers) {
		status = StatusReviewRequired
		details = "no AI-disclosure marker found in the input"
	}

	return newCheck(FrameworkDubaiAILaw, "Art. 8", status,
		"Users must be informed when they interact with an AI system.",
		"يجب إبلاغ المستخدمين عند تفاعلهم مع نظام ذكاء اصطناعي.",
		details,
		"Disclose the AI nature of the interaction to the end user.",
		"أفصح للمستخدم النهائي عن الطبيعة الآلية للتفاعل.")
}

func (c *DubaiAILawChecker) checkHumanOversight(scan *inputScan, highRisk bool) Check {
	status := StatusCompliant
	details := "no high-risk category detected"

	if highRisk {
		if scan.containsAny(oversightMarkers) {
			details = "high-risk category with a human-in-the-loop marker"
		} else {
			status = StatusNonCompliant
			details = "high-risk category without a human-in-the-loop marker"
		}
	}

	return newCheck(FrameworkDubaiAILaw, "Art. 10", status,
		"High-risk AI decisions require a human in the loop.",
		"تتطلب قرارات الذكاء الاصطناعي عالية المخاطر وجود إنسان في حلقة القرار.",
		details,
		"Add human review before high-risk decisions take effect.",
		"أضف مراجعة بشرية قبل نفاذ القرارات عالية المخاطر.")
}

func (c *DubaiAILawChecker) checkDataGovernance(scan *inputScan) Check {
	status := StatusCompliant
	details := "data-governance reference present"

	if !scan.containsAny(governanceMarkers) {
		status = StatusReviewRequired
		details = "no data-governance reference found in the input"
	}

	return newCheck(FrameworkDubaiAILaw, "Art. 12", status,
		"AI systems must operate under a documented data-governance framework.",
		"يجب أن تعمل أنظمة الذكاء الاصطناعي ضمن إطار موثق لحوكمة البيانات.",
		details,
		"Reference the applicable data-governance or retention policy.",
		"أشر إلى سياسة حوكمة البيانات أو الاحتفاظ المعمول بها.")
}
