// Package security contains checks for security problems in Python
// code.
package security

import (
	"github.com/pyguard/subprocheck/analysis/lint"
	"github.com/pyguard/subprocheck/security/sec1001"
)

var Analyzers = []*lint.Analyzer{
	sec1001.SCAnalyzer,
}
