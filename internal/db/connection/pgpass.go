package connection

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rebeliceyang/ticketq/internal/models"
)

// pgPassEntry is a line of a libpq password file
type pgPassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// pgPassPath returns $PGPASSFILE, or ~/.pgpass
func pgPassPath() (string, error) {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpass"), nil
}

// readPgPass parses a password file. A missing file yields no entries.
func readPgPass(path string) ([]pgPassEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	// libpq ignores a password file others can read
	if runtime.GOOS != "windows" {
		info, err := file.Stat()
		if err != nil {
			return nil, err
		}
		if info.Mode().Perm()&0o077 != 0 {
			return nil, fmt.Errorf("%s has insecure permissions %v, must be 0600", path, info.Mode().Perm())
		}
	}

	var entries []pgPassEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if entry, ok := parsePgPassLine(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// parsePgPassLine splits hostname:port:database:username:password, honoring
// \: and \\ escapes
func parsePgPassLine(line string) (pgPassEntry, bool) {
	parts := make([]string, 0, 5)
	var current strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			current.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == ':' && len(parts) < 4:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	parts = append(parts, current.String())

	if len(parts) != 5 {
		return pgPassEntry{}, false
	}
	return pgPassEntry{
		Host:     parts[0],
		Port:     parts[1],
		Database: parts[2],
		User:     parts[3],
		Password: parts[4],
	}, true
}

// lookupPgPass returns the first matching password for config
func lookupPgPass(entries []pgPassEntry, config models.ConnectionConfig) (string, bool) {
	port := strconv.Itoa(config.Port)
	for _, e := range entries {
		if matches(e.Host, config.Host) &&
			matches(e.Port, port) &&
			matches(e.Database, config.Database) &&
			matches(e.User, config.User) {
			return e.Password, true
		}
	}
	return "", false
}

// matches checks if pattern matches value (* is wildcard)
func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
