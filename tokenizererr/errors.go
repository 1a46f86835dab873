// Package tokenizererr defines the uniform error category raised by every
// subtok package, mirroring TokenizerException from the C++ original while
// fitting Go's error idiom (errors.Is/errors.As plus github.com/pkg/errors
// wrapping for stack context, as the teacher's hub package does for I/O
// failures).
package tokenizererr

import "fmt"

// Kind discriminates the error categories from the spec's error-handling
// design. It is a closed set; callers should switch on it rather than on
// error strings.
type Kind int

const (
	// EmptyCorpus: training was invoked with zero input lines.
	EmptyCorpus Kind = iota
	// InvalidParameter: a zero vocab size, zero min-frequency, or empty save path.
	InvalidParameter
	// IoFailure: file open/read/write failures and short reads during deserialization.
	IoFailure
	// MalformedModelFile: unexpected section, length mismatch, truncated record.
	MalformedModelFile
	// DuplicateID: id collision during vocabulary merge or load.
	DuplicateID
	// MalformedTemplate: unparseable placeholder in a chat template.
	MalformedTemplate
	// UnknownTemplateVariable: template references a variable other than "message".
	UnknownTemplateVariable
	// UnsupportedAlgorithm: asked to train an algorithm whose trainer isn't implemented.
	UnsupportedAlgorithm
	// ModelNotLoaded: encode/decode called before a model is installed.
	ModelNotLoaded
	// InvalidUTF8: input bytes are not valid UTF-8.
	InvalidUTF8
)

func (k Kind) String() string {
	switch k {
	case EmptyCorpus:
		return "empty_corpus"
	case InvalidParameter:
		return "invalid_parameter"
	case IoFailure:
		return "io_failure"
	case MalformedModelFile:
		return "malformed_model_file"
	case DuplicateID:
		return "duplicate_id"
	case MalformedTemplate:
		return "malformed_template"
	case UnknownTemplateVariable:
		return "unknown_template_variable"
	case UnsupportedAlgorithm:
		return "unsupported_algorithm"
	case ModelNotLoaded:
		return "model_not_loaded"
	case InvalidUTF8:
		return "invalid_utf8"
	default:
		return "unknown"
	}
}

// Error is the single uniform error type surfaced by subtok (spec's
// TokenizerError). It carries a Kind discriminant and a message.
type Error struct {
	kind Kind
	msg  string
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the error's discriminant, for errors.As-based dispatch.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is lets errors.Is(err, tokenizererr.New(kind, "")) match on Kind alone,
// ignoring message text, so a caller can check "this call fails with
// kind X" without pinning down wording.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.kind == e.kind
}
