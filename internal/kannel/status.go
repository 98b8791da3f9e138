// Package kannel reads the XML status page of a Kannel SMS gateway and judges
// whether its SMSC connections are online.
package kannel

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/jandubois/check-kannel/internal/probe"
)

const (
	rootTag      = "gateway"
	deniedText   = "Denied"
	onlinePrefix = "online"
	smscPath     = "//smsc"
)

var (
	ErrInvalidDocument = errors.New("invalid XML document")
	ErrInvalidRoot     = errors.New("invalid root element")
	ErrDenied          = errors.New("access denied")
	ErrInvalidPattern  = errors.New("invalid id pattern")
)

// PatternError reports an SMSC id pattern that is not a valid regular
// expression. It matches ErrInvalidPattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid id pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

// SMSC is one connection entry of the status page.
type SMSC struct {
	ID     string
	Status string
}

// Online reports whether the gateway considers the connection up.
func (s SMSC) Online() bool {
	return strings.HasPrefix(s.Status, onlinePrefix)
}

// Verdict is the outcome of evaluating a status page.
type Verdict struct {
	Status  probe.Status
	Message string

	// SMSCs holds the evaluated entries in document order, one per id.
	SMSCs []SMSC
	// Offline lists the ids of entries that are not online.
	Offline []string
	// Duplicates lists ids that appeared more than once. The first
	// occurrence fixes the position, the last one the status.
	Duplicates []string
}

// Total returns the number of evaluated entries.
func (v *Verdict) Total() int {
	return len(v.SMSCs)
}

// CompilePattern compiles an SMSC id filter. The pattern is a regular
// expression searched anywhere in the id; special characters are not
// escaped. An empty pattern yields a nil filter that keeps every entry.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// Evaluate compiles pattern and evaluates body with it. The only error is a
// *PatternError; problems with the document itself are reported in the
// verdict.
func Evaluate(body []byte, pattern string) (*Verdict, error) {
	filter, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return EvaluateWith(body, filter), nil
}

// EvaluateWith judges a status page. Entries whose id does not match filter
// are ignored; a nil filter keeps all of them.
func EvaluateWith(body []byte, filter *regexp.Regexp) *Verdict {
	entries, err := ParseStatus(body)
	if err != nil {
		return &Verdict{
			Status:  probe.StatusCritical,
			Message: documentMessage(err),
		}
	}

	if filter != nil {
		kept := entries[:0]
		for _, e := range entries {
			if filter.MatchString(e.ID) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	v := &Verdict{}
	v.SMSCs, v.Duplicates = dedupe(entries)
	for _, s := range v.SMSCs {
		if !s.Online() {
			v.Offline = append(v.Offline, s.ID)
		}
	}

	if len(v.Offline) > 0 {
		v.Status = probe.StatusCritical
		v.Message = "Offline: " + strings.Join(v.Offline, ", ")
	} else {
		v.Status = probe.StatusOK
		v.Message = fmt.Sprintf("Online: %d", v.Total())
	}
	return v
}

// ParseStatus extracts every smsc entry from a status page, in document
// order and including duplicates. It fails with ErrInvalidDocument,
// ErrInvalidRoot or ErrDenied, checked in that order.
func ParseStatus(body []byte) ([]SMSC, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, errors.Wrap(ErrInvalidDocument, err.Error())
	}
	if err := checkTopLevel(doc); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root.Tag != rootTag {
		return nil, errors.Wrapf(ErrInvalidRoot, "got <%s>", root.Tag)
	}
	if strings.TrimSpace(directText(root)) == deniedText {
		return nil, ErrDenied
	}

	var entries []SMSC
	for _, el := range doc.FindElements(smscPath) {
		entries = append(entries, SMSC{
			ID:     childText(el, "id"),
			Status: childText(el, "status"),
		})
	}
	return entries, nil
}

// checkTopLevel rejects what the parser tolerates outside the root element:
// a missing or second root, and text before or after it.
func checkTopLevel(doc *etree.Document) error {
	roots := 0
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if !t.IsWhitespace() {
				return errors.Wrap(ErrInvalidDocument, "text outside root element")
			}
		}
	}
	switch roots {
	case 0:
		return ErrInvalidDocument
	case 1:
		return nil
	default:
		return errors.Wrapf(ErrInvalidDocument, "%d root elements", roots)
	}
}

func documentMessage(err error) string {
	switch {
	case errors.Is(err, ErrDenied):
		return "Denied"
	case errors.Is(err, ErrInvalidRoot):
		return "Invalid root element"
	default:
		return "Invalid XML document"
	}
}

// directText concatenates the character data that sits directly inside el,
// skipping the text of child elements.
func directText(el *etree.Element) string {
	var sb strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}

func dedupe(entries []SMSC) (unique []SMSC, duplicates []string) {
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		i, seen := index[e.ID]
		if !seen {
			index[e.ID] = len(unique)
			unique = append(unique, e)
			continue
		}
		if !slices.Contains(duplicates, e.ID) {
			duplicates = append(duplicates, e.ID)
		}
		unique[i].Status = e.Status
	}
	return unique, duplicates
}
