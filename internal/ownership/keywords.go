package ownership

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Family groups spellings of the same ownership signal. Rules count
// distinct matched families, so "no agenzie, no agencies" is one signal,
// not two.
type Family struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
}

// Keywords is the classifier's keyword configuration.
type Keywords struct {
	PrivateLabels      []string `yaml:"private_labels"`
	AgencyLabels       []string `yaml:"agency_labels"`
	PrivateFamilies    []Family `yaml:"private_families"`
	AgencyFamilies     []Family `yaml:"agency_families"`
	LongDescriptionMin int      `yaml:"long_description_min"`
}

// DefaultKeywords returns the embedded keyword configuration.
func DefaultKeywords() Keywords {
	kw, err := parseKeywords(defaultRulesYAML)
	if err != nil {
		// The embedded file is validated by tests; reaching this is a bug.
		panic("ownership: embedded rules.yaml invalid: " + err.Error())
	}
	return kw
}

// LoadKeywords reads keyword configuration from path, falling back to the
// embedded defaults when path is empty.
func LoadKeywords(path string) (Keywords, error) {
	if path == "" {
		return DefaultKeywords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read ownership rules: %w", err)
	}
	return parseKeywords(data)
}

func parseKeywords(data []byte) (Keywords, error) {
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse ownership rules: %w", err)
	}
	if len(kw.PrivateLabels) == 0 || len(kw.AgencyLabels) == 0 {
		return Keywords{}, fmt.Errorf("ownership rules: label lists must not be empty")
	}
	if kw.LongDescriptionMin <= 0 {
		kw.LongDescriptionMin = 400
	}
	return kw, nil
}

// matchedFamilies returns the names of families with at least one term
// present in text, preserving configuration order.
func matchedFamilies(families []Family, text string) []string {
	var matched []string
	for _, fam := range families {
		for _, term := range fam.Terms {
			if strings.Contains(text, term) {
				matched = append(matched, fam.Name)
				break
			}
		}
	}
	return matched
}

func labelMatches(labels []string, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, l := range labels {
		if v == l || strings.Contains(v, l) {
			return true
		}
	}
	return false
}
