package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vulntor/lac/pkg/detect"
	"github.com/vulntor/lac/pkg/signature"
	"github.com/vulntor/lac/pkg/stringutil"
)

// maxDescriptionWidth keeps result rows on one terminal line. JSON is never cut.
const maxDescriptionWidth = 60

// PrintResults writes detection results in catalog order. An empty set is
// "[]" in JSON mode and a summary line otherwise.
func (f *formatter) PrintResults(results []detect.Result) error {
	if f.mode == ModeJSON {
		if results == nil {
			results = []detect.Result{}
		}
		return f.PrintJSON(results)
	}
	if len(results) == 0 {
		return f.PrintSummary("No services identified")
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Host,
			strconv.Itoa(int(r.Port)),
			r.Service,
			orDash(r.Version),
			stringutil.Ellipsis(orDash(r.Description), maxDescriptionWidth),
		})
	}
	return f.table([]string{"Host", "Port", "Service", "Version", "Description"}, rows)
}

type definitionView struct {
	Name     string   `json:"name"`
	Protocol string   `json:"protocol"`
	Ports    []uint16 `json:"ports"`
	Strategy string   `json:"strategy,omitempty"`
	Versions int      `json:"versions"`
	Log      bool     `json:"log"`
}

func viewDefinition(def signature.Definition) definitionView {
	v := definitionView{Name: def.Name, Protocol: def.Protocol, Ports: def.Ports, Log: def.LogOnMatch}
	if v.Ports == nil {
		v.Ports = []uint16{}
	}
	switch s := def.Strategy.(type) {
	case *signature.SemverStrategy:
		v.Strategy, v.Versions = "semver", len(s.Ranges)
	case *signature.TableStrategy:
		v.Strategy, v.Versions = "regex", len(s.Entries)
	}
	return v
}

// PrintDefinitions lists the catalog's definitions followed by their count.
func (f *formatter) PrintDefinitions(catalog *signature.Catalog) error {
	defs := catalog.Definitions()
	views := make([]definitionView, len(defs))
	for i, def := range defs {
		views[i] = viewDefinition(def)
	}

	if f.mode == ModeJSON {
		if err := f.PrintJSON(views); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			rows = append(rows, []string{v.Name, v.Protocol, joinPorts(v.Ports), describeVersions(v), strconv.FormatBool(v.Log)})
		}
		if err := f.table([]string{"Name", "Protocol", "Ports", "Versions", "Log"}, rows); err != nil {
			return err
		}
	}
	return f.PrintSummary(fmt.Sprintf("%d definitions", len(views)))
}

func describeVersions(v definitionView) string {
	switch v.Strategy {
	case "semver":
		return fmt.Sprintf("semver (%d ranges)", v.Versions)
	case "regex":
		return fmt.Sprintf("regex (%d entries)", v.Versions)
	default:
		return "-"
	}
}

func joinPorts(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
