package catalog

import (
	"fmt"
	"io"
	"os"

	"agency-hub/internal/model"

	"gopkg.in/yaml.v3"
)

type file struct {
	Products []model.Product `yaml:"products"`
}

// Load reads the product catalog seed file.
func Load(path string) ([]model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) ([]model.Product, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Products))
	for _, p := range doc.Products {
		if p.ProductID == 0 || p.Slug == "" {
			return nil, fmt.Errorf("catalog product needs product_id and slug: %+v", p)
		}
		if _, dup := seen[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate catalog slug %q", p.Slug)
		}
		seen[p.Slug] = struct{}{}
	}

	return doc.Products, nil
}
