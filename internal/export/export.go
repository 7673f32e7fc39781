// Package export renders inspection results as JSON, grouped text, or
// clipboard-sized snippets. Formatting only; the canonical model stays in
// the com package.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mberetvas/comspect/internal/catalog"
	"github.com/mberetvas/comspect/internal/com"
	"github.com/mberetvas/comspect/internal/typelib"
)

// Record is the wire form of one inspection result.
type Record struct {
	ProgramID      string         `json:"program_id"`
	ClassID        string         `json:"class_id"`
	Description    string         `json:"description"`
	ResolutionPath string         `json:"resolution_path"`
	Error          string         `json:"error,omitempty"`
	Members        []MemberRecord `json:"members,omitempty"`
}

type MemberRecord struct {
	Kind       string        `json:"kind"`
	Name       string        `json:"name"`
	Access     string        `json:"access,omitempty"`
	Parameters []ParamRecord `json:"parameters"`
	ReturnType string        `json:"return_type,omitempty"`
}

type ParamRecord struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	ByRef    bool   `json:"by_ref"`
}

// Records converts results preserving their order.
func Records(results []com.InspectionResult) []Record {
	records := make([]Record, 0, len(results))
	for _, result := range results {
		records = append(records, toRecord(result))
	}
	return records
}

func toRecord(result com.InspectionResult) Record {
	record := Record{
		ProgramID:      result.Identity.ProgID,
		ClassID:        result.Identity.BracedClassID(),
		Description:    result.Identity.Description,
		ResolutionPath: result.Path.String(),
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
		return record
	}
	if result.Surface == nil {
		return record
	}
	for _, member := range result.Surface.Members {
		mr := MemberRecord{
			Kind:       member.Kind.String(),
			Name:       member.Name,
			Parameters: []ParamRecord{},
		}
		switch member.Kind {
		case com.MemberMethod:
			mr.ReturnType = member.Return
			for _, p := range member.Params {
				mr.Parameters = append(mr.Parameters, ParamRecord(p))
			}
		case com.MemberProperty:
			mr.Access = member.Access.String()
			mr.ReturnType = member.Type
		}
		record.Members = append(record.Members, mr)
	}
	return record
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, results []com.InspectionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Records(results))
}

// WriteText writes one human-readable block per component, grouped by
// ProgID prefix the same way the interactive browser groups them.
func WriteText(w io.Writer, results []com.InspectionResult) error {
	byClass := make(map[string]com.InspectionResult, len(results))
	identities := make([]com.ComponentIdentity, 0, len(results))
	for _, result := range results {
		identities = append(identities, result.Identity)
		byClass[result.Identity.ClassID.String()] = result
	}

	for _, group := range catalog.GroupByPrefix(identities) {
		if _, err := fmt.Fprintf(w, "[%s]\n", group.Name); err != nil {
			return err
		}
		for _, identity := range group.Items {
			result := byClass[identity.ClassID.String()]
			if err := writeComponent(w, result); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func writeComponent(w io.Writer, result com.InspectionResult) error {
	identity := result.Identity
	if _, err := fmt.Fprintf(w, "  %s (%s) - %s\n", identity.ProgID, identity.BracedClassID(), identity.Description); err != nil {
		return err
	}
	if result.Err != nil {
		_, err := fmt.Fprintf(w, "    ! %s\n", result.Err)
		return err
	}
	if result.Surface == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "    resolved: %s\n", result.Path); err != nil {
		return err
	}
	for _, member := range result.Surface.Members {
		if _, err := fmt.Fprintf(w, "    %s\n", MemberLine(member)); err != nil {
			return err
		}
	}
	return nil
}

// MemberLine is the one-line listing form of a member, also used for
// single-member clipboard copy.
func MemberLine(member com.MemberDescriptor) string {
	switch member.Kind {
	case com.MemberMethod:
		return "M " + typelib.Signature(member, typelib.StyleManaged)
	case com.MemberProperty:
		return fmt.Sprintf("P [%s] %s: %s", member.Access.Badge(), member.Name, member.Type)
	default:
		return "? " + member.Name
	}
}

// SurfaceText is the whole-surface clipboard form: header plus one line per
// member.
func SurfaceText(identity com.ComponentIdentity, surface *com.InterfaceDescription) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", surface.Name)
	fmt.Fprintf(&b, "ClassID: %s\n", identity.BracedClassID())
	fmt.Fprintf(&b, "Description: %s\n\n", identity.Description)
	for _, member := range surface.Members {
		b.WriteString(MemberLine(member))
		b.WriteByte('\n')
	}
	return b.String()
}
