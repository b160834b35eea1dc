package main

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/osbuild/cgpt-layout/internal/gpt"
)

const DefaultConfigPath = "/etc/cgpt-layout/config.toml"

type GPTConfig struct {
	Backend    string `toml:"backend"`
	CgptBinary string `toml:"cgpt_binary"`
}

type LogConfig struct {
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Journal bool   `toml:"journal"`
}

type ToolConfigFile struct {
	GPT GPTConfig `toml:"gpt"`
	Log LogConfig `toml:"log"`
}

func GetDefaultConfig() *ToolConfigFile {
	return &ToolConfigFile{
		GPT: GPTConfig{
			Backend:    gpt.BackendNative,
			CgptBinary: gpt.DefaultCgptBinary,
		},
		Log: LogConfig{
			Level:  "warning",
			Format: "text",
		},
	}
}

func LoadConfig(name string) (*ToolConfigFile, error) {
	c := GetDefaultConfig()
	_, err := toml.DecodeFile(name, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadConfigFromEnv overrides settings that have an environment variable
// set.
func loadConfigFromEnv(c *ToolConfigFile) {
	if binary, ok := os.LookupEnv("CGPT_BINARY"); ok && binary != "" {
		c.GPT.CgptBinary = binary
	}
}

func DumpConfig(c *ToolConfigFile, w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
