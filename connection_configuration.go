package gomonetdb

import (
	"errors"
	"os"
	path "path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	toml "github.com/BurntSushi/toml"
)

// LoadConnectionConfig returns connection configs loaded from the toml file.
// By default, MONETDB_HOME (toml file path) is os.home/.monetdb and
// MONETDB_DEFAULT_CONNECTION_NAME (profile name) is 'default'.
func LoadConnectionConfig() (*Config, error) {
	cfg := &Config{
		Host:      "localhost",
		Port:      defaultPort,
		ReplySize: defaultReplySize,
	}
	profile := getConnectionProfile(os.Getenv("MONETDB_DEFAULT_CONNECTION_NAME"))
	configDir, err := getTomlFilePath(os.Getenv("MONETDB_HOME"))
	if err != nil {
		return nil, err
	}
	tomlFilePath := path.Join(configDir, "connections.toml")
	if err = validateFilePermission(tomlFilePath); err != nil {
		return nil, err
	}
	tomlInfo := make(map[string]interface{})
	if _, err = toml.DecodeFile(tomlFilePath, &tomlInfo); err != nil {
		return nil, err
	}
	profileInfo, exist := tomlInfo[profile]
	if !exist {
		return nil, &MonetDBError{
			Number:      ErrCodeProfileNotFound,
			Message:     "profile %v not found in connections.toml",
			MessageArgs: []interface{}{profile},
		}
	}
	connectionConfig, ok := profileInfo.(map[string]interface{})
	if !ok {
		return nil, &MonetDBError{
			Number:      ErrCodeTomlParsingFailed,
			Message:     "profile %v is not a table",
			MessageArgs: []interface{}{profile},
		}
	}
	if err = parseToml(cfg, connectionConfig); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseToml(cfg *Config, connection map[string]interface{}) error {
	var parsingErr error
	for key, value := range connection {
		err := &MonetDBError{
			Number:      ErrCodeTomlParsingFailed,
			Message:     "failed to parse %v value in connections.toml. %v",
			MessageArgs: []interface{}{key, value},
		}
		switch strings.ToLower(key) {
		case "user", "username":
			if cfg.User, parsingErr = parseString(value); parsingErr != nil {
				return err
			}
		case "password":
			if cfg.Password, parsingErr = parseString(value); parsingErr != nil {
				return err
			}
		case "host":
			if cfg.Host, parsingErr = parseString(value); parsingErr != nil {
				return err
			}
		case "port":
			if cfg.Port, parsingErr = parseInt(value); parsingErr != nil {
				return err
			}
		case "database":
			if cfg.Database, parsingErr = parseString(value); parsingErr != nil {
				return err
			}
		case "replysize":
			if cfg.ReplySize, parsingErr = parseInt(value); parsingErr != nil {
				return err
			}
		case "connect_timeout":
			if cfg.ConnectTimeout, parsingErr = parseDuration(value); parsingErr != nil {
				return err
			}
		}
	}
	return nil
}

func parseString(i interface{}) (string, error) {
	v, ok := i.(string)
	if !ok {
		return "", errors.New("failed to parse the value to string")
	}
	return v, nil
}

func parseInt(i interface{}) (int, error) {
	switch v := i.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, errors.New("failed to parse the value to integer")
}

func parseDuration(i interface{}) (time.Duration, error) {
	num, err := parseInt(i)
	if err != nil {
		return 0, err
	}
	return time.Duration(num) * time.Second, nil
}

func getConnectionProfile(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

func getTomlFilePath(filePath string) (string, error) {
	if filePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		filePath = path.Join(homeDir, ".monetdb")
	}
	return path.Abs(filePath)
}

// validateFilePermission fails when the file carrying credentials is readable
// by other users. Skipped on Windows, which has no POSIX permission bits.
func validateFilePermission(filePath string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if fileInfo.Mode().Perm()&0077 != 0 {
		return errors.New("file permissions of connections.toml are too open; expected 0600")
	}
	return nil
}
