package classify

import (
	"regexp"
	"strings"
)

// DocumentType is the coarse category driving which analysis sections apply.
type DocumentType string

const (
	ResearchPaper   DocumentType = "research_paper"
	StudyMaterial   DocumentType = "study_material"
	Essay           DocumentType = "essay"
	Report          DocumentType = "report"
	GeneralAcademic DocumentType = "general_academic"
)

// Types lists every document type in a stable order.
func Types() []DocumentType {
	return []DocumentType{ResearchPaper, StudyMaterial, Essay, Report, GeneralAcademic}
}

// Valid reports whether t is a known document type.
func Valid(t DocumentType) bool {
	switch t {
	case ResearchPaper, StudyMaterial, Essay, Report, GeneralAcademic:
		return true
	}
	return false
}

var (
	citationPattern  = regexp.MustCompile(`\[\d+\]|\(\w+(?: et al\.?)?,? \d{4}\)`)
	numberedHeading  = regexp.MustCompile(`(?m)^\s*\d+(\.\d+)*\.?\s+[A-Z]`)
	chapterHeading   = regexp.MustCompile(`(?mi)^\s*(chapter|unit|lesson|module)\s+\d+`)
	exercisePattern  = regexp.MustCompile(`(?i)\b(exercise|quiz|worksheet|practice problem)s?\b`)
	execSummary      = regexp.MustCompile(`(?i)\bexecutive summary\b`)
	recommendPattern = regexp.MustCompile(`(?i)\brecommendation(s)?\b`)
	findingsPattern  = regexp.MustCompile(`(?i)\b(key )?findings\b`)
	thesisPattern    = regexp.MustCompile(`(?i)\b(in this essay|i will argue|this essay (argues|examines|explores)|in conclusion)\b`)
	firstPerson      = regexp.MustCompile(`(?i)\b(i believe|in my (view|opinion)|my argument)\b`)
)

// researchSections are headings typical of a paper. Each hit scores once.
var researchSections = []string{
	"abstract", "introduction", "methodology", "methods", "related work",
	"literature review", "results", "discussion", "conclusion", "references",
	"acknowledgments",
}

// studyPhrases are instructional markers in teaching material.
var studyPhrases = []string{
	"learning objectives", "key concepts", "definition:", "for example",
	"remember that", "note that", "in other words", "study guide",
	"review questions",
}

// Classify infers the document type from extracted text using lexical and
// structural heuristics. It is deterministic and always returns a value;
// GeneralAcademic is the fallback when no signal is strong enough.
func Classify(text string) DocumentType {
	lower := strings.ToLower(text)

	scores := map[DocumentType]int{}

	// Research paper signals.
	for _, section := range researchSections {
		if containsHeading(lower, section) {
			scores[ResearchPaper]++
		}
	}
	if hits := len(citationPattern.FindAllString(text, 6)); hits >= 3 {
		scores[ResearchPaper] += 2
	} else if hits > 0 {
		scores[ResearchPaper]++
	}
	if strings.Contains(lower, "doi:") || strings.Contains(lower, "arxiv") {
		scores[ResearchPaper] += 2
	}

	// Study material signals.
	for _, phrase := range studyPhrases {
		if strings.Contains(lower, phrase) {
			scores[StudyMaterial]++
		}
	}
	if chapterHeading.MatchString(text) {
		scores[StudyMaterial] += 2
	}
	if exercisePattern.MatchString(text) {
		scores[StudyMaterial] += 2
	}

	// Essay signals.
	if thesisPattern.MatchString(text) {
		scores[Essay] += 3
	}
	if firstPerson.MatchString(text) {
		scores[Essay] += 2
	}
	if !numberedHeading.MatchString(text) && paragraphCount(text) >= 4 {
		scores[Essay]++
	}

	// Report signals.
	if execSummary.MatchString(text) {
		scores[Report] += 3
	}
	if findingsPattern.MatchString(text) {
		scores[Report]++
	}
	if recommendPattern.MatchString(text) {
		scores[Report]++
	}
	if numberedHeading.MatchString(text) {
		scores[Report]++
	}

	best := GeneralAcademic
	bestScore := 0
	// Fixed iteration order keeps ties deterministic.
	for _, t := range []DocumentType{ResearchPaper, StudyMaterial, Report, Essay} {
		if s := scores[t]; s > bestScore {
			best = t
			bestScore = s
		}
	}
	if bestScore < 3 {
		return GeneralAcademic
	}
	return best
}

// containsHeading looks for the section name at the start of a line, which
// separates real headings from incidental mentions.
func containsHeading(lower, section string) bool {
	if strings.HasPrefix(lower, section) {
		return true
	}
	return strings.Contains(lower, "\n"+section)
}

func paragraphCount(text string) int {
	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}
