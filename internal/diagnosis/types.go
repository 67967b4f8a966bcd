package diagnosis

// ErrorType classifies a misread word.
type ErrorType string

const (
	ErrorMissingEnding ErrorType = "missing_ending"
	ErrorExtraEnding   ErrorType = "extra_ending"
	ErrorNearMatch     ErrorType = "near_match"
	ErrorVowelSwap     ErrorType = "vowel_swap"
	ErrorClusterIssue  ErrorType = "cluster_issue"
	ErrorOther         ErrorType = "other"
)

// ErrorTypes lists every error type in classification order.
var ErrorTypes = []ErrorType{
	ErrorMissingEnding,
	ErrorExtraEnding,
	ErrorNearMatch,
	ErrorVowelSwap,
	ErrorClusterIssue,
	ErrorOther,
}

// Valid reports whether t is a known error type.
func (t ErrorType) Valid() bool {
	for _, et := range ErrorTypes {
		if t == et {
			return true
		}
	}
	return false
}

// Short returns the short Danish label shown to the learner.
func (t ErrorType) Short() string {
	switch t {
	case ErrorMissingEnding:
		return "Mangler endelse"
	case ErrorExtraEnding:
		return "Ekstra endelse"
	case ErrorNearMatch:
		return "Næsten"
	case ErrorVowelSwap:
		return "Vokal"
	case ErrorClusterIssue:
		return "Konsonantklynge"
	default:
		return "Forkert"
	}
}

// ClassifyInput holds the normalized expected and recognized words.
type ClassifyInput struct {
	Expected   string
	Recognized string
}

// Diagnosis is the outcome of comparing what was read with what was heard.
type Diagnosis struct {
	Correct       bool      `json:"correct"`
	ErrorType     ErrorType `json:"error_type,omitempty"`
	MessageShort  string    `json:"message_short"`
	MessageDetail string    `json:"message_detail"`
	// Classifier names the rule that produced ErrorType.
	Classifier string `json:"-"`
}
