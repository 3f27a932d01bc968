package main

import (
	"context"
	"io"
)

// Example defines the interface that all demos must implement.
type Example interface {
	Name() string
	Description() string
	Demo(ctx context.Context, out io.Writer) error
}

// getAllExamples returns all registered demos in a consistent order.
func getAllExamples() []Example {
	return []Example{
		&callLimiterExample{},
		&takesNumbersExample{},
		&returnsExample{},
		&ignoreExample{},
		&typeCheckExample{},
		&predicateExample{},
		&trackerExample{},
		&singletonExample{},
		&reprExample{},
		&limiterExample{},
	}
}

// getExampleByName returns a specific demo by name.
func getExampleByName(name string) (Example, bool) {
	for _, ex := range getAllExamples() {
		if ex.Name() == name {
			return ex, true
		}
	}
	return nil, false
}
