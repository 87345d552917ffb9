// Package config reads the compiler settings from the environment.
package config

import (
	"time"

	"github.com/xyproto/env/v2"
)

type Config struct {
	// CC assembles and links the generated file.
	CC string
	// DumpGraphs names the graph dump format, only "vcg" is known.
	DumpGraphs  string
	KeepAsm     bool
	NoLVN       bool
	TestTimeout time.Duration
}

func (this *Config) DumpVCG() bool {
	return this.DumpGraphs == "vcg"
}

// Load rereads the environment on every call.
func Load() *Config {
	env.Load()
	keep := true
	if env.Has("L2C_KEEP_ASM") {
		keep = env.Bool("L2C_KEEP_ASM")
	}
	return &Config{
		CC:          env.Str("L2C_CC", "gcc"),
		DumpGraphs:  env.Str("DUMP_GRAPHS"),
		KeepAsm:     keep,
		NoLVN:       env.Bool("L2C_NO_LVN"),
		TestTimeout: time.Duration(env.Int("L2C_TEST_TIMEOUT", 1)) * time.Second,
	}
}

func Default() *Config {
	return &Config{CC: "gcc", KeepAsm: true, TestTimeout: time.Second}
}
