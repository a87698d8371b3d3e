package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/coursechat/internal/domain"
)

// DefaultFeedURL is the provider's public product feed.
const DefaultFeedURL = "https://targetzerotraining.co.uk/wp-json/custom/v1/products"

var ErrFeedUnavailable = errors.New("course feed unavailable")

// Source yields the raw JSON body of the catalog feed.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// NewSource picks a file or HTTP source from a location string. Locations
// starting with http:// or https:// are fetched; file:// and bare paths are
// read from disk.
func NewSource(location string, timeout time.Duration) Source {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return &HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	default:
		return &FileSource{Path: strings.TrimPrefix(location, "file://")}
	}
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFeedUnavailable, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "file://" + s.Path }

func (s *FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return data, nil
}

// feedRecord mirrors one product in the feed. Numeric-looking fields are
// tolerated as either JSON numbers or strings.
type feedRecord struct {
	ID              flexInt    `json:"id"`
	CourseID        flexString `json:"course_id"`
	Name            flexString `json:"name"`
	Price           flexString `json:"price"`
	Venue           flexString `json:"venue"`
	Reference       flexString `json:"reference"`
	StartTime       flexString `json:"start_time"`
	StartDate       flexString `json:"start_date"`
	EndDate         flexString `json:"end_date"`
	DatesList       flexString `json:"dates_list"`
	AvailableSpaces flexString `json:"available_spaces"`
	SessionID       flexString `json:"session_id"`
	Link            flexString `json:"link"`
}

func (r feedRecord) offering() domain.CourseOffering {
	return domain.CourseOffering{
		ID:              int(r.ID),
		CourseID:        string(r.CourseID),
		Name:            string(r.Name),
		Reference:       string(r.Reference),
		Price:           string(r.Price),
		Venue:           string(r.Venue),
		StartDate:       string(r.StartDate),
		StartTime:       string(r.StartTime),
		EndDate:         string(r.EndDate),
		DatesList:       string(r.DatesList),
		AvailableSpaces: string(r.AvailableSpaces),
		SessionID:       string(r.SessionID),
		Link:            string(r.Link),
	}
}

// DecodeFeed accepts either a JSON array of records or an object keyed by
// record id. Object entries come back in key order, numerically when every
// key is a number. Records that fail to decode are logged and skipped; only
// a body of the wrong shape is an error.
func DecodeFeed(raw []byte, logger *slog.Logger) ([]domain.CourseOffering, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode feed: empty body")
	}

	var (
		keys    []string
		records []json.RawMessage
	)
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode feed array: %w", err)
		}
		for i := range records {
			keys = append(keys, strconv.Itoa(i))
		}
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("decode feed object: %w", err)
		}
		keys = sortedFeedKeys(keyed)
		for _, k := range keys {
			records = append(records, keyed[k])
		}
	default:
		return nil, fmt.Errorf("decode feed: expected array or object")
	}

	out := make([]domain.CourseOffering, 0, len(records))
	for i, rec := range records {
		var r feedRecord
		if err := json.Unmarshal(rec, &r); err != nil {
			logger.Warn("skipping malformed feed record", "record", keys[i], "error", err)
			continue
		}
		out = append(out, r.offering())
	}
	return out, nil
}

func sortedFeedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	numeric := true
	for k := range m {
		keys = append(keys, k)
		if _, err := strconv.Atoi(k); err != nil {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
	} else {
		sort.Strings(keys)
	}
	return keys
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		return fmt.Errorf("invalid id %q", string(s))
	}
	*f = flexInt(n)
	return nil
}
