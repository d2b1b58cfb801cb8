package google

import (
	"fmt"
	"strings"

	"preventivi/internal/directory"
)

// parseClients converts a values matrix (as returned by the Sheets API)
// into client records. Rows without a name are skipped; duplicate names
// keep the first occurrence.
func parseClients(values [][]interface{}) []directory.Client {
	clients := make([]directory.Client, 0, len(values))
	seen := map[string]struct{}{}
	for _, row := range values {
		cols := toStrings(row)
		name := safeGet(cols, 0)
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		clients = append(clients, directory.Client{
			Name:  name,
			Email: safeGet(cols, 1),
			Phone: safeGet(cols, 2),
		})
	}
	return clients
}

// filterClients returns clients matching the query on any field,
// case insensitively. An empty query matches everything.
func filterClients(clients []directory.Client, query string) []directory.Client {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return clients
	}
	out := make([]directory.Client, 0)
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) ||
			strings.Contains(strings.ToLower(c.Phone), query) {
			out = append(out, c)
		}
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
