package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var povToken = regexp.MustCompile(`(?i)\b(S|Y|P|E|V|Vw|A|I|C([1-9]|1[0-2]))#([^.]+)`)

// POV is a parsed point-of-view string such as S#Actual.Y#2025.P#Jan.E#E1.
type POV struct {
	Raw      string
	Scenario string
	Year     string
	Periods  []string
	Entity   string
	Value    string
	View     string
	Account  string
	ICP      string
	Customs  map[int]string
}

func ParsePOV(raw string) POV {
	pov := POV{Raw: raw, Customs: map[int]string{}}
	for _, match := range povToken.FindAllStringSubmatch(raw, -1) {
		tag := strings.ToUpper(match[1])
		member := strings.TrimSpace(match[3])
		switch {
		case tag == "S":
			pov.Scenario = member
		case tag == "Y":
			pov.Year = member
		case tag == "P":
			pov.Periods = splitList(member, ";")
		case tag == "E":
			pov.Entity = member
		case tag == "V":
			pov.Value = member
		case tag == "VW":
			pov.View = member
		case tag == "A":
			pov.Account = member
		case tag == "I":
			pov.ICP = member
		case strings.HasPrefix(tag, "C"):
			index, err := strconv.Atoi(match[2])
			if err == nil {
				pov.Customs[index] = member
			}
		}
	}
	return pov
}

// Missing lists the required dimension tags absent from the POV.
func (p POV) Missing() []string {
	var missing []string
	if p.Scenario == "" {
		missing = append(missing, "S#")
	}
	if p.Year == "" {
		missing = append(missing, "Y#")
	}
	if len(p.Periods) == 0 {
		missing = append(missing, "P#")
	}
	if p.Entity == "" {
		missing = append(missing, "E#")
	}
	return missing
}

// CustomGaps lists custom dimension indexes skipped below the highest one
// present, e.g. C1 and C3 set leaves 2 as a gap.
func (p POV) CustomGaps() []int {
	highest := 0
	for index := range p.Customs {
		if index > highest {
			highest = index
		}
	}
	var gaps []int
	for index := 1; index < highest; index++ {
		if _, ok := p.Customs[index]; !ok {
			gaps = append(gaps, index)
		}
	}
	return gaps
}

func (p POV) Validate() error {
	if missing := p.Missing(); len(missing) > 0 {
		return fmt.Errorf("POV %q is missing required dimensions: %s", p.Raw, strings.Join(missing, ", "))
	}
	return nil
}

// Dimensions renders the parsed members keyed by dimension tag.
func (p POV) Dimensions() map[string]string {
	out := map[string]string{}
	set := func(tag, value string) {
		if value != "" {
			out[tag] = value
		}
	}
	set("S", p.Scenario)
	set("Y", p.Year)
	set("P", strings.Join(p.Periods, ";"))
	set("E", p.Entity)
	set("V", p.Value)
	set("Vw", p.View)
	set("A", p.Account)
	set("I", p.ICP)

	indexes := make([]int, 0, len(p.Customs))
	for index := range p.Customs {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		set("C"+strconv.Itoa(index), p.Customs[index])
	}
	return out
}

func splitList(raw string, separators string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
