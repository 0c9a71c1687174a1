package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	if got := getEnv("CFG_TEST_STR", "fallback"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := getEnv("CFG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	if got := getEnvInt("CFG_TEST_INT", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}

	t.Setenv("CFG_TEST_BAD_INT", "forty-two")
	if got := getEnvInt("CFG_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7 on malformed value, got %d", got)
	}
	if got := getEnvInt("CFG_TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("CFG_TEST_BOOL", "true")
	if !getEnvBool("CFG_TEST_BOOL", false) {
		t.Errorf("Expected true")
	}

	t.Setenv("CFG_TEST_BOOL_SPACED", " false ")
	if getEnvBool("CFG_TEST_BOOL_SPACED", true) {
		t.Errorf("Expected surrounding whitespace to be tolerated")
	}

	t.Setenv("CFG_TEST_BOOL_BAD", "yep")
	if !getEnvBool("CFG_TEST_BOOL_BAD", true) {
		t.Errorf("Expected fallback on malformed value")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	if err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if Cfg.DBName == "" {
		t.Errorf("Expected a default database name")
	}
	if Cfg.ImportChunkSize <= 0 {
		t.Errorf("Expected a positive import chunk size, got %d", Cfg.ImportChunkSize)
	}
	if Cfg.ImportMaxBytes <= 0 {
		t.Errorf("Expected a positive import size cap, got %d", Cfg.ImportMaxBytes)
	}
}
