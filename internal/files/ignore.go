package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/varalys/contentguard/internal/ignore"
)

// AppendIgnore ensures the given pattern is present in the ignore file at
// root. It creates the file if missing. Idempotent.
func AppendIgnore(root, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	path := filepath.Join(root, ignore.FileName)
	existing := map[string]bool{}
	endsWithNewline := true
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(b)))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		endsWithNewline = len(b) == 0 || b[len(b)-1] == '\n'
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if !endsWithNewline {
		pattern = "\n" + pattern
	}
	_, err = f.WriteString(pattern + "\n")
	return err
}
