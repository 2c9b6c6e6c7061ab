package filter

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Plan is an operator-authored, ordered filter plan file.
//
//	filters:
//	  - name: require_email
//	  - name: require_country
//	    values: ["Latvia"]
type Plan struct {
	Filters []Spec `yaml:"filters"`
}

// LoadPlan reads and validates a YAML filter plan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "filter: read plan %s", path)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, eris.Wrap(err, "filter: parse plan")
	}
	if len(plan.Filters) == 0 {
		return nil, eris.New("filter: plan names no filters")
	}
	if _, err := Build(plan.Filters); err != nil {
		return nil, err
	}
	return &plan, nil
}
