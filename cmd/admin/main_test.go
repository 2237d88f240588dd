package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"set-role", "list"}, names)
}

func TestSetRole_RejectsBadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing role", []string{"set-role", "1"}},
		{"non-numeric id", []string{"set-role", "abc", "admin"}},
		{"zero id", []string{"set-role", "0", "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCommand()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)
			require.Error(t, root.Execute())
		})
	}
}
