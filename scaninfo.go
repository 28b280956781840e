package objmap

import (
	"fmt"
	"strings"
)

// ScanInfo records how a type's strategy was chosen: which
// candidates were considered, which were discarded and why, and what
// was picked.
type ScanInfo struct {
	Type TypeID
	// Serializer and Deserializer describe the chosen strategies, or
	// are empty if that direction was not requested or failed.
	Serializer   string
	Deserializer string
	// SerializationReasons and DeserializationReasons are the reason
	// chains that explain why each capability was requested.
	SerializationReasons   []string
	DeserializationReasons []string
	// Ignored are the candidates that disambiguation discarded.
	Ignored []Ignored
	// Problems are the problems reported by detectors.
	Problems []string
	// Failure is the reason detection failed, if it did.
	Failure string
}

// Ignored is a candidate strategy that was discarded during
// disambiguation.
type Ignored struct {
	Candidate string
	Reasons   []string
}

func (s *ScanInfo) ignore(candidate string, reasons ...string) {
	s.Ignored = append(s.Ignored, Ignored{candidate, reasons})
}

func (s *ScanInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", s.Type)
	if s.Serializer != "" {
		fmt.Fprintf(&b, "  serializer: %s\n", s.Serializer)
	}
	if s.Deserializer != "" {
		fmt.Fprintf(&b, "  deserializer: %s\n", s.Deserializer)
	}
	if s.Failure != "" {
		fmt.Fprintf(&b, "  failure: %s\n", indent(s.Failure, "    "))
	}
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "  %s:\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "    %s\n", it)
		}
	}
	writeList("serialization because", s.SerializationReasons)
	writeList("deserialization because", s.DeserializationReasons)
	writeList("problems", s.Problems)
	if len(s.Ignored) > 0 {
		b.WriteString("  ignored:\n")
		for _, ig := range s.Ignored {
			fmt.Fprintf(&b, "    %s: %s\n", ig.Candidate, strings.Join(ig.Reasons, "; "))
		}
	}
	return b.String()
}

// indent prefixes every line of s but the first with prefix.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
