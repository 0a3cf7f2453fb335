package cart

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "agency-hub/pkg/errors"
)

const (
	itemSeparator  = ","
	fieldSeparator = ":"
	siteSeparator  = "|"
)

type Item struct {
	Slug      string   `json:"slug"`
	Quantity  int      `json:"quantity"`
	LicenseID string   `json:"license_id,omitempty"`
	SiteURLs  []string `json:"site_urls,omitempty"`
}

// Encode serializes items as slug:quantity:licenseId:siteUrls entries joined by commas.
// Every field is query escaped so separators inside urls survive the round trip.
func Encode(items []Item) string {
	entries := make([]string, 0, len(items))
	for _, item := range items {
		sites := make([]string, len(item.SiteURLs))
		for i, site := range item.SiteURLs {
			sites[i] = url.QueryEscape(site)
		}
		entries = append(entries, strings.Join([]string{
			url.QueryEscape(item.Slug),
			strconv.Itoa(item.Quantity),
			url.QueryEscape(item.LicenseID),
			strings.Join(sites, siteSeparator),
		}, fieldSeparator))
	}
	return strings.Join(entries, itemSeparator)
}

func Decode(s string) ([]Item, error) {
	if s == "" {
		return nil, nil
	}

	entries := strings.Split(s, itemSeparator)
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		item, err := decodeItem(entry)
		if err != nil {
			return nil, fmt.Errorf("decode cart entry %q: %w", entry, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(entry string) (Item, error) {
	fields := strings.Split(entry, fieldSeparator)
	if len(fields) < 2 || len(fields) > 4 {
		return Item{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}

	var (
		item Item
		err  error
	)
	if item.Slug, err = url.QueryUnescape(fields[0]); err != nil {
		return Item{}, fmt.Errorf("slug: %w", err)
	}
	if item.Quantity, err = strconv.Atoi(fields[1]); err != nil {
		return Item{}, fmt.Errorf("quantity: %w", err)
	}
	if len(fields) > 2 {
		if item.LicenseID, err = url.QueryUnescape(fields[2]); err != nil {
			return Item{}, fmt.Errorf("license id: %w", err)
		}
	}
	if len(fields) > 3 && fields[3] != "" {
		for _, site := range strings.Split(fields[3], siteSeparator) {
			decoded, err := url.QueryUnescape(site)
			if err != nil {
				return Item{}, fmt.Errorf("site url: %w", err)
			}
			item.SiteURLs = append(item.SiteURLs, decoded)
		}
	}
	return item, nil
}

func Validate(item Item) error {
	if item.Slug == "" {
		return &apperrors.ErrValidation{Message: "cart item slug is required"}
	}
	if item.Quantity <= 0 {
		return &apperrors.ErrValidation{Message: "cart item quantity must be positive"}
	}
	// an empty url would encode to nothing and vanish on decode
	for _, site := range item.SiteURLs {
		if strings.TrimSpace(site) == "" {
			return &apperrors.ErrValidation{
				Message: "cart item site urls must not be empty",
				Fields:  map[string]string{"site_urls": item.Slug},
			}
		}
	}
	return nil
}

func index(items []Item, slug, licenseID string) int {
	for i, item := range items {
		if item.Slug == slug && item.LicenseID == licenseID {
			return i
		}
	}
	return -1
}

// Add inserts item, replacing an existing entry for the same slug and license.
func Add(items []Item, item Item) ([]Item, error) {
	if err := Validate(item); err != nil {
		return items, err
	}
	if i := index(items, item.Slug, item.LicenseID); i >= 0 {
		items[i] = item
		return items, nil
	}
	return append(items, item), nil
}

func UpdateQuantity(items []Item, slug, licenseID string, quantity int) ([]Item, error) {
	if quantity <= 0 {
		return Remove(items, slug, licenseID)
	}
	i := index(items, slug, licenseID)
	if i < 0 {
		return items, &apperrors.ErrNotFound{Resource: "cart item", ID: slug}
	}
	items[i].Quantity = quantity
	return items, nil
}

func Remove(items []Item, slug, licenseID string) ([]Item, error) {
	i := index(items, slug, licenseID)
	if i < 0 {
		return items, &apperrors.ErrNotFound{Resource: "cart item", ID: slug}
	}
	return append(items[:i], items[i+1:]...), nil
}
