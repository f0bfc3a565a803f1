package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		bools   []string
		want    []string
	}{
		{
			name:    "short flag with separate value",
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "double dash with equals",
			args:    []string{"--config=alt.json", "-a", "localhost"},
			allowed: []string{"config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "single and double dash are the same flag",
			args:    []string{"--api", "http://x", "-api=http://y"},
			allowed: []string{"-api"},
			want:    []string{"--api", "http://x", "-api=http://y"},
		},
		{
			name:    "unknown flags and positionals ignored",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"c"},
			want:    []string{},
		},
		{
			name:    "flag followed by another flag keeps no value",
			args:    []string{"-c", "-a", "b"},
			allowed: []string{"c"},
			want:    []string{"-c"},
		},
		{
			name:    "bool flag does not swallow next token",
			args:    []string{"-memory", "positional", "-api", "u"},
			allowed: []string{"memory", "api"},
			bools:   []string{"memory"},
			want:    []string{"-memory", "-api", "u"},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: []string{"c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed, tt.bools...))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-c", "a.json"}, want: "a.json"},
		{name: "long with equals", args: []string{"-api", "u", "--config=b.json"}, want: "b.json"},
		{name: "absent", args: []string{"-api", "u"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
