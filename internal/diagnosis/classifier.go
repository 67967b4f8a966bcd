package diagnosis

import (
	"fmt"
	"strings"

	"github.com/abhisek/laesemaskine/internal/match"
)

// Classifier is a rule-based error classifier. It returns the error type and
// a detail message, or ("", "") if the rule doesn't apply.
type Classifier interface {
	Name() string
	Classify(input *ClassifyInput) (ErrorType, string)
}

// DefaultClassifiers returns classifiers in priority order.
func DefaultClassifiers() []Classifier {
	return []Classifier{
		&MissingEndingClassifier{},
		&ExtraEndingClassifier{},
		&NearMatchClassifier{},
		&VowelSwapClassifier{},
		&ClusterClassifier{},
	}
}

// RunClassifiers executes classifiers in order and returns the first match.
func RunClassifiers(classifiers []Classifier, input *ClassifyInput) (ErrorType, string, string) {
	for _, c := range classifiers {
		et, detail := c.Classify(input)
		if et != "" {
			return et, detail, c.Name()
		}
	}
	return "", "", ""
}

// Diagnose compares the expected word with what was recognized.
func Diagnose(expected, recognized string) Diagnosis {
	return DiagnoseWith(DefaultClassifiers(), expected, recognized)
}

// DiagnoseWith is Diagnose with an explicit classifier chain.
func DiagnoseWith(classifiers []Classifier, expected, recognized string) Diagnosis {
	in := &ClassifyInput{Expected: NormalizeWord(expected), Recognized: NormalizeWord(recognized)}
	if in.Expected == "" || in.Recognized == "" {
		return Diagnosis{}
	}
	if in.Expected == in.Recognized {
		return Diagnosis{Correct: true, MessageShort: "Korrekt", MessageDetail: "Udtalen ser korrekt ud."}
	}

	et, detail, name := RunClassifiers(classifiers, in)
	if et == "" {
		et, detail, name = ErrorOther, "Udtalen matcher ikke ordet helt.", "fallback"
	}
	return Diagnosis{
		ErrorType:     et,
		MessageShort:  et.Short(),
		MessageDetail: detail,
		Classifier:    name,
	}
}

// NormalizeWord lowercases s and strips leading and trailing characters that
// are not Danish letters.
func NormalizeWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimFunc(s, func(r rune) bool { return !isDanishLetter(r) })
}

func isDanishLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == 'æ' || r == 'ø' || r == 'å'
}

// Endings are checked longest first.
var Endings = []string{"ende", "ene", "ede", "er", "et", "en", "e", "r"}

// MissingEndingClassifier flags a dropped inflectional ending, or an ending
// whose final letter was swallowed.
type MissingEndingClassifier struct{}

func (c *MissingEndingClassifier) Name() string { return "missing-ending" }

func (c *MissingEndingClassifier) Classify(in *ClassifyInput) (ErrorType, string) {
	for _, end := range Endings {
		if !strings.HasSuffix(in.Expected, end) {
			continue
		}
		stem := strings.TrimSuffix(in.Expected, end)
		if in.Recognized == stem {
			return ErrorMissingEnding, fmt.Sprintf("Du mangler endelsen -%s.", end)
		}
		if len(end) > 1 && in.Recognized == stem+end[:len(end)-1] {
			return ErrorMissingEnding, fmt.Sprintf("Endelsen -%s er ikke helt tydelig.", end)
		}
	}
	return "", ""
}

// ExtraEndingClassifier flags an ending added to a correct stem.
type ExtraEndingClassifier struct{}

func (c *ExtraEndingClassifier) Name() string { return "extra-ending" }

func (c *ExtraEndingClassifier) Classify(in *ClassifyInput) (ErrorType, string) {
	for _, end := range Endings {
		if strings.HasSuffix(in.Recognized, end) && in.Expected == strings.TrimSuffix(in.Recognized, end) {
			return ErrorExtraEnding, fmt.Sprintf("Der kom en ekstra endelse -%s.", end)
		}
	}
	return "", ""
}

// NearMatchClassifier flags words one edit away.
type NearMatchClassifier struct{}

func (c *NearMatchClassifier) Name() string { return "near-match" }

func (c *NearMatchClassifier) Classify(in *ClassifyInput) (ErrorType, string) {
	if match.Levenshtein(in.Expected, in.Recognized) <= 1 {
		return ErrorNearMatch, "Det var næsten rigtigt, et lille lyd/bogstav skiller."
	}
	return "", ""
}

const vowels = "aeiouyæøå"

// VowelSwapClassifier flags words of equal length whose consonants agree.
type VowelSwapClassifier struct{}

func (c *VowelSwapClassifier) Name() string { return "vowel-swap" }

func (c *VowelSwapClassifier) Classify(in *ClassifyInput) (ErrorType, string) {
	if len([]rune(in.Expected)) != len([]rune(in.Recognized)) {
		return "", ""
	}
	if consonants(in.Expected) == consonants(in.Recognized) {
		return ErrorVowelSwap, "Vokalen lyder anderledes end forventet."
	}
	return "", ""
}

func consonants(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(vowels, r) {
			return -1
		}
		return r
	}, s)
}

// Clusters are initial consonant clusters, longest first.
var Clusters = []string{
	"str", "skr", "spr", "spl", "skl",
	"sk", "sp", "st", "tr", "dr", "br", "bl", "kl", "kr", "gr", "gl", "pl", "pr",
}

// ClusterClassifier flags a dropped first consonant of an initial cluster.
type ClusterClassifier struct{}

func (c *ClusterClassifier) Name() string { return "cluster" }

func (c *ClusterClassifier) Classify(in *ClassifyInput) (ErrorType, string) {
	for _, cl := range Clusters {
		if strings.HasPrefix(in.Expected, cl) && strings.HasPrefix(in.Recognized, cl[1:]) {
			return ErrorClusterIssue, fmt.Sprintf("Konsonantklyngen '%s-' kan være svær her.", cl)
		}
	}
	return "", ""
}
