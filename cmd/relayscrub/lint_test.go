package main

import (
	"testing"

	"mercator-hq/relayscrub/pkg/scrub"
)

func setLintFlags(file, dir string) {
	lintFlags.file = file
	lintFlags.dir = dir
	lintFlags.format = "text"
}

func TestLintRules(t *testing.T) {
	dir := writeRules(t, map[string]string{
		"acme.yaml":   replaceEmailRules,
		"globex.json": `{"applications": {"$string": ["@ip:mask"]}}`,
		"notes.txt":   "ignored",
	})
	broken := writeRules(t, map[string]string{
		"broken.yaml": "applications:\n  user.email: [missing]\n",
	})

	tests := []struct {
		name    string
		file    string
		dir     string
		wantErr bool
	}{
		{"valid directory", "", dir, false},
		{"valid file", dir + "/acme.yaml", "", false},
		{"unknown rule", "", broken, true},
		{"nonexistent file", dir + "/missing.yaml", "", true},
		{"no file or dir", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setLintFlags(tt.file, tt.dir)
			err := lintRules(nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("lintRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRuleFile(t *testing.T) {
	dir := writeRules(t, map[string]string{
		"acme.yaml": "rules:\n  a: {type: pattern, pattern: '('}\n  b: {type: nope}\n",
	})

	result := validateRuleFile(scrub.NewLoader(nil), dir+"/acme.yaml")
	if result.Valid {
		t.Fatal("result is valid, want errors")
	}
	if result.Project != "acme" {
		t.Errorf("Project = %q, want acme", result.Project)
	}
	if len(result.Errors) < 2 {
		t.Errorf("errors = %+v, want every problem reported", result.Errors)
	}
}
