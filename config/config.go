// Package config loads the settings of the accesslog tools from the
// environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/accesslog/store"
)

// Environment variables read by Load.
const (
	EnvPath = "ACCESSLOG_PATH"
	EnvPort = "ACCESSLOG_PORT"
	EnvSeq  = "ACCESSLOG_SEQ"
)

// Config holds the settings shared by the commands.
type Config struct {
	StorePath string
	Port      int // 0 = random
	SeqName   string
}

// Load reads the optional env files (".env" when none is given) into the
// environment, without overriding variables that are already set, and then
// builds a Config from the environment. A missing env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	return FromEnv(), nil
}

// FromEnv builds a Config from the environment. Invalid values fall back to
// the defaults.
func FromEnv() Config {
	return Config{
		StorePath: getenvDefault(EnvPath, store.DefaultPath),
		Port:      getenvInt(EnvPort, 0),
		SeqName:   strings.TrimSpace(os.Getenv(EnvSeq)),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}

	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}

	return n
}
