package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "import pygame\nprint(1)\n", "import pygame\nprint(1)\n"},
		{"python fence", "```python\nimport pygame\n```", "import pygame\n"},
		{"bare fence", "```\nx = 1\n```\n", "x = 1\n"},
		{"surrounding blanks", "\n\n```py\nx = 1\ny = 2\n```  \n\n", "x = 1\ny = 2\n"},
		{"leading only", "```python\nx = 1\n", "x = 1\n"},
		{"fence only", "```", "\n"},
		{"inner fence kept", "s = '```'\nt = 1", "s = '```'\nt = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCode(tt.in))
		})
	}
}

func TestCleanCode_Idempotent(t *testing.T) {
	for _, in := range []string{"```python\nimport pygame\n```", "x = 1", "```\n```"} {
		once := CleanCode(in)
		assert.Equal(t, once, CleanCode(once))
	}
}
