// Package config loads contentguard configuration from local and global YAML
// files. CLI code applies precedence (flags > local > global) and maps the
// result into engine configuration.
package config
