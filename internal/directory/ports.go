// Package directory defines the client directory the budget form reads
// from: the shared list of customers kept by the sales team.
package directory

import "context"

// Client is one customer record from the directory.
type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Lookup searches the directory. An empty query returns every client.
type Lookup interface {
	Search(ctx context.Context, query string) ([]Client, error)
}
