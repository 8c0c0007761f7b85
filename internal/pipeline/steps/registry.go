// Package steps defines the pin pipeline's steps, their labels and the
// dependencies each step requires before it may execute.
package steps

import (
	"fmt"
	"sort"
)

// Step names, also used as the step column of ledger logs.
const (
	Started           = "started"
	TopicDiscovery    = "topic_discovery"
	ContentGeneration = "content_generation"
	BlogPublish       = "blog_publish"
	PinCreative       = "pin_creative"
	PinterestPost     = "pinterest_post"
	Finalize          = "finalize"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Label        string
	Order        int
	Dependencies []string
	// SkippedInDryRun steps never execute when the run is a dry run.
	SkippedInDryRun bool
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	Started: {
		Name:  Started,
		Label: "Start",
		Order: 0,
	},
	TopicDiscovery: {
		Name:         TopicDiscovery,
		Label:        "Topic discovery",
		Order:        1,
		Dependencies: []string{Started},
	},
	ContentGeneration: {
		Name:         ContentGeneration,
		Label:        "Content generation",
		Order:        2,
		Dependencies: []string{TopicDiscovery},
	},
	BlogPublish: {
		Name:            BlogPublish,
		Label:           "Blog publish",
		Order:           3,
		Dependencies:    []string{ContentGeneration},
		SkippedInDryRun: true,
	},
	PinCreative: {
		Name:            PinCreative,
		Label:           "Pin creative",
		Order:           4,
		Dependencies:    []string{BlogPublish},
		SkippedInDryRun: true,
	},
	PinterestPost: {
		Name:            PinterestPost,
		Label:           "Pinterest post",
		Order:           5,
		Dependencies:    []string{BlogPublish, PinCreative},
		SkippedInDryRun: true,
	},
	Finalize: {
		Name:         Finalize,
		Label:        "Finalize",
		Order:        6,
		Dependencies: []string{ContentGeneration},
	},
}

// Label returns the human-readable label of a step, or the name itself.
func Label(name string) string {
	if def, ok := StepRegistry[name]; ok {
		return def.Label
	}
	return name
}

// Ordered returns the step names in execution order.
func Ordered() []string {
	names := make([]string, 0, len(StepRegistry))
	for name := range StepRegistry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return StepRegistry[names[i]].Order < StepRegistry[names[j]].Order
	})
	return names
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s is missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every dependency of stepName is in completed.
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}
