package lintcmd

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestFilterAnalyzerNames(t *testing.T) {
	analyzers := []string{
		"S1000", "S1001",
		"SEC1000", "SEC1001",
		"SEC2000", "SEC2001",
		"SUB1000", "SUB1001",
		"PY1000",
	}
	all := make(map[string]bool)
	for _, a := range analyzers {
		all[a] = true
	}
	allMinus := func(minus ...string) map[string]bool {
		m := make(map[string]bool)
		for k := range all {
			m[k] = !slices.Contains(minus, k)
		}
		return m
	}

	tests := []struct {
		in      []string
		want    map[string]bool
		wantErr string
	}{
		{[]string{"all"}, all, ""},
		{[]string{"All"}, all, ""},
		{[]string{"*"}, all, ""},
		{[]string{"inherit", "all"}, all, ""},

		{[]string{"S*"}, map[string]bool{"S1000": true, "S1001": true}, ""},
		{[]string{"SEC1*"}, map[string]bool{"SEC1000": true, "SEC1001": true}, ""},
		{[]string{"SEC2*"}, map[string]bool{"SEC2000": true, "SEC2001": true}, ""},
		{[]string{"SEC*"}, map[string]bool{"SEC1000": true, "SEC1001": true, "SEC2000": true, "SEC2001": true}, ""},

		{[]string{"S1000", "sub1000"}, map[string]bool{"S1000": true, "SUB1000": true}, ""},

		{[]string{"SEC9*"}, nil, "matched no checks"},
		{[]string{"S*", "SEC9*"}, nil, "matched no checks"},
		{[]string{"SEC9*", "all"}, nil, "matched no checks"},

		{[]string{"S9999"}, nil, "unknown check"},
		{[]string{"check"}, nil, "unknown check"},
		{[]string{`!@#'"`}, nil, "unknown check"},

		{[]string{"all", "-S1000"}, allMinus("S1000"), ""},
		{[]string{"all", "-SEC1*"}, allMinus("SEC1000", "SEC1001"), ""},
		{[]string{"-S1000", "all"}, all, ""},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			have, haveErr := filterAnalyzerNames(analyzers, tt.in)
			if !errorContains(haveErr, tt.wantErr) {
				t.Fatalf("wrong error:\nhave: %s\nwant: %s", haveErr, tt.wantErr)
			}
			if !reflect.DeepEqual(have, tt.want) {
				t.Fatalf("\nhave: %v\nwant: %v", have, tt.want)
			}
		})
	}
}

func errorContains(have error, want string) bool {
	if have == nil {
		return want == ""
	}
	if want == "" {
		return false
	}
	return strings.Contains(have.Error(), want)
}
