// Package memory is an in-process client directory used in development
// and tests, seeded from a plain text file or a static list.
package memory

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"preventivi/internal/directory"
)

type Store struct {
	mu      sync.Mutex
	clients []directory.Client
}

func New(clients []directory.Client) *Store {
	return &Store{clients: dedupe(clients)}
}

// NewFromFile seeds the store from a semicolon-separated file with one
// "name;email;phone" record per line. A missing file yields a small
// default set.
func NewFromFile(path string) *Store {
	clients := readRecords(path)
	if len(clients) == 0 {
		clients = []directory.Client{
			{Name: "Acme Srl", Email: "ufficio@acme.example", Phone: "02 1234567"},
			{Name: "Zenith Spa", Email: "info@zenith.example", Phone: "06 7654321"},
			{Name: "Blu Edizioni", Email: "redazione@blu.example"},
		}
	}
	return New(clients)
}

var _ directory.Lookup = (*Store)(nil)

// Search filters the seeded clients on any field, case insensitively.
func (s *Store) Search(_ context.Context, query string) ([]directory.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]directory.Client, 0)
	for _, c := range s.clients {
		if query == "" ||
			strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) ||
			strings.Contains(strings.ToLower(c.Phone), query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Add registers a client at runtime; useful for tests.
func (s *Store) Add(c directory.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = dedupe(append(s.clients, c))
}

func readRecords(path string) []directory.Client {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var out []directory.Client
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ";")
		c := directory.Client{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			c.Email = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Phone = strings.TrimSpace(parts[2])
		}
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return dedupe(out)
}

func dedupe(in []directory.Client) []directory.Client {
	seen := map[string]struct{}{}
	out := make([]directory.Client, 0, len(in))
	for _, c := range in {
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
