package connection

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/models"
)

const serviceName = "ticketq"

// keyringGet is replaced in tests
var keyringGet = keyring.Get

// accountKey identifies a database account in the OS keyring
func accountKey(config models.ConnectionConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", config.User, config.Host, config.Port, config.Database)
}

// ResolvePassword fills in the password when the config does not carry one:
// first from the OS keyring, then from the libpq password file. Finding no
// password is not an error.
func ResolvePassword(config models.ConnectionConfig) (models.ConnectionConfig, error) {
	if config.Password != "" {
		return config, nil
	}
	password, err := keyringGet(serviceName, accountKey(config))
	switch {
	case err == nil:
		config.Password = password
		return config, nil
	case !errors.Is(err, keyring.ErrNotFound):
		return config, fmt.Errorf("failed to read password from keyring: %w", err)
	}

	path, err := pgPassPath()
	if err != nil {
		return config, nil
	}
	entries, err := readPgPass(path)
	if err != nil {
		logger.Warn("ignoring password file", "path", path, "error", err)
		return config, nil
	}
	if password, ok := lookupPgPass(entries, config); ok {
		config.Password = password
	}
	return config, nil
}

// SavePassword stores the password of config in the OS keyring
func SavePassword(config models.ConnectionConfig, password string) error {
	if err := keyring.Set(serviceName, accountKey(config), password); err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}
