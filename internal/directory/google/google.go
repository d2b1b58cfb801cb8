// Package google reads the shared client directory from a Google
// spreadsheet and appends approved budgets to a ledger sheet in the
// same document.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"preventivi/internal/cache"
	"preventivi/internal/core"
	"preventivi/internal/directory"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// directoryCacheKey is the single cache slot for the full client list;
// the whole sheet is small enough to fetch and filter in memory.
const directoryCacheKey = "clients"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	clientSheet   string
	ledgerSheet   string
	cache         *cache.TTLCache[[]directory.Client]
}

// Ensure interface conformance
var _ directory.Lookup = (*Client)(nil)

// Options configures the spreadsheet connection. Exactly one of
// CredentialsJSON or CredentialsFile must be set.
type Options struct {
	SpreadsheetID   string
	ClientSheet     string
	LedgerSheet     string
	CredentialsJSON string
	CredentialsFile string
	CacheTTL        time.Duration
	CacheSize       int
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(opts.ClientSheet) == "" {
		return nil, errors.New("missing client sheet name")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		clientSheet:   opts.ClientSheet,
		ledgerSheet:   opts.LedgerSheet,
		cache:         cache.New[[]directory.Client](opts.CacheSize, opts.CacheTTL),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline or from a file.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte

	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Search returns clients whose name, email or phone contains the query,
// case insensitively. The full sheet is fetched at most once per cache
// TTL; filtering happens locally.
func (c *Client) Search(ctx context.Context, query string) ([]directory.Client, error) {
	clients, err := c.allClients(ctx)
	if err != nil {
		return nil, err
	}
	return filterClients(clients, query), nil
}

// CleanExpired lets the cache janitor sweep the directory cache.
func (c *Client) CleanExpired() int {
	return c.cache.CleanExpired()
}

func (c *Client) allClients(ctx context.Context) ([]directory.Client, error) {
	if cached, ok := c.cache.Get(directoryCacheKey); ok {
		return cached, nil
	}

	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	// Header on row 1: Nome, Email, Telefono.
	rng := fmt.Sprintf("%s!A2:C", c.clientSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	clients := parseClients(resp.Values)
	c.cache.Set(directoryCacheKey, clients)

	slog.InfoContext(ctx, "Client directory refreshed",
		"sheet", c.clientSheet, "clients", len(clients))

	return clients, nil
}

// AppendBudget writes an approved budget to the ledger sheet and returns
// the row reference.
func (c *Client) AppendBudget(ctx context.Context, b core.Budget) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(c.ledgerSheet) == "" {
		return "", errors.New("missing ledger sheet name")
	}

	rng := fmt.Sprintf("%s!A:A", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get ledger dimensions for %s: %w", c.ledgerSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", c.ledgerSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		b.PaddedSequence(),
		b.ClientName,
		b.PublicationDate.Format("2006-01-02"),
		b.DesignFee.Float64(),
		b.TotalValue.Float64(),
		b.Status(),
	}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append budget to ledger %s: %w", c.ledgerSheet, err)
	}

	return dataRange, nil
}
