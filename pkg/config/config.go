// Package config reads Klipper style configuration files with access
// tracking:
//
//	[accel travel]
//	accel: 4000
//	accel_to_decel = 2000
//
// Text after '#' or ';' is a comment. Option names are case-insensitive.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Config provides access to the sections of a configuration file.
type Config struct {
	name     string
	sections map[string]*Section
	order    []string // Maintains section order

	accessedSections map[string]struct{}
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a configuration file and returns a Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a configuration from r. name is used in error messages.
func Parse(r io.Reader, name string) (*Config, error) {
	c := New()
	c.name = name

	var currentSection string
	var currentOptions map[string]string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			currentSection = strings.Join(strings.Fields(line[1:len(line)-1]), " ")
			if currentSection == "" {
				return nil, fmt.Errorf("config: empty section header at line %d in %s", lineNum, name)
			}
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			return nil, fmt.Errorf("config: option outside of a section at line %d in %s", lineNum, name)
		}

		// Parse key: value or key = value, whichever separator comes first
		idx := strings.IndexAny(line, ":=")
		if idx <= 0 {
			return nil, fmt.Errorf("config: expected 'option: value' at line %d in %s", lineNum, name)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		currentOptions[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: error reading %s: %w", name, err)
	}

	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return c, nil
}

// Name returns the file name the config was parsed from.
func (c *Config) Name() string {
	return c.name
}

// addSection adds a section, merging options into an existing one of the same name.
func (c *Config) addSection(name string, options map[string]string) {
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or error if not found.
func (c *Config) GetSection(name string) (*Section, error) {
	sec, ok := c.sections[name]
	if !ok {
		return nil, ErrMissingSection(name)
	}
	c.accessedSections[name] = struct{}{}
	return sec, nil
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// GetPrefixSections returns all sections whose name starts with prefix, in
// file order, and marks them accessed.
func (c *Config) GetPrefixSections(prefix string) []*Section {
	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			c.accessedSections[name] = struct{}{}
			result = append(result, c.sections[name])
		}
	}
	return result
}

// GetUnusedSections returns the sections that were never accessed.
func (c *Config) GetUnusedSections() []string {
	var result []string
	for _, name := range c.order {
		if _, ok := c.accessedSections[name]; !ok {
			result = append(result, name)
		}
	}
	return result
}

// CheckUnused returns an error if any section or option was never accessed.
func (c *Config) CheckUnused() error {
	if unused := c.GetUnusedSections(); len(unused) > 0 {
		return NewConfigError("", "", fmt.Sprintf("unused sections: %v", unused))
	}
	var problems []string
	for _, name := range c.order {
		if unused := c.sections[name].GetUnusedOptions(); len(unused) > 0 {
			problems = append(problems, fmt.Sprintf("[%s]: unused options %v", name, unused))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return NewConfigError("", "", strings.Join(problems, "; "))
	}
	return nil
}
