// Package catalogseed loads the product catalog from YAML or JSON files into
// the policies table.
package catalogseed

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

// FillValue replaces empty catalog fields, matching the spreadsheet exports.
const FillValue = "見條款細節"

// Writer is the storage side of a seed run.
type Writer interface {
	EnsureSchema(ctx domain.Context) error
	ReplaceAll(ctx domain.Context, products []domain.Product, truncate bool) (int, error)
}

type record struct {
	Name            string `yaml:"name"`
	MainRider       string `yaml:"main_rider"`
	Currency        string `yaml:"currency"`
	InsureAge       string `yaml:"insure_age"`
	PayType         string `yaml:"pay_type"`
	PayPeriod       string `yaml:"pay_period"`
	Description     string `yaml:"description"`
	Note            string `yaml:"note"`
	Benefits        string `yaml:"benefits"`
	Source          string `yaml:"source"`
	Departure       string `yaml:"departure"`
	InsurancePeriod string `yaml:"insurance_period"`
	Target          string `yaml:"target"`
	ProductCode     string `yaml:"product_code"`
	Terms           string `yaml:"terms"`
}

type catalogDoc struct {
	Products []record `yaml:"products"`
}

// Options controls a seed run.
type Options struct {
	// AllowAbsPaths permits files outside the working directory.
	AllowAbsPaths bool
	// Replace empties the table before inserting.
	Replace bool
}

// Seed reads path and writes its products. It returns the number of rows inserted.
func Seed(ctx domain.Context, w Writer, path string, opts Options) (int, error) {
	products, err := Load(path, opts.AllowAbsPaths)
	if err != nil {
		return 0, err
	}
	if err := w.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	n, err := w.ReplaceAll(ctx, products, opts.Replace)
	if err != nil {
		return 0, err
	}
	slog.Info("catalog seeded", slog.String("path", path), slog.Int("rows", n), slog.Bool("replace", opts.Replace))
	return n, nil
}

// Load reads a catalog file and returns its cleaned products.
// The file is either a list of product records or a document with a products list.
func Load(path string, allowAbs bool) ([]domain.Product, error) {
	abs, err := resolvePath(path, allowAbs)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog file not found: %s", path)
		}
		return nil, err
	}
	mt := mimetype.Detect(b)
	if !isText(mt) {
		return nil, fmt.Errorf("%w: unsupported catalog file type %s", domain.ErrInvalidArgument, mt.String())
	}
	// JSON is valid YAML, one decoder covers both.
	var recs []record
	if err := yaml.Unmarshal(b, &recs); err != nil {
		var doc catalogDoc
		if err2 := yaml.Unmarshal(b, &doc); err2 != nil {
			return nil, fmt.Errorf("catalog parse (%s): %w", mt.String(), err)
		}
		recs = doc.Products
	}
	products := Clean(recs, filepath.Base(abs))
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products to seed in %s", domain.ErrInvalidArgument, path)
	}
	return products, nil
}

// Clean strips control characters, drops unnamed and repeated names (first wins), tags
// records without a source with the file name and fills empty fields.
func Clean(recs []record, source string) []domain.Product {
	seen := make(map[string]struct{}, len(recs))
	out := make([]domain.Product, 0, len(recs))
	for _, r := range recs {
		name := textx.SanitizeText(r.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(r.Source) == "" {
			r.Source = source
		}
		p := domain.Product{
			Name:            name,
			MainRider:       r.MainRider,
			Currency:        r.Currency,
			InsureAge:       r.InsureAge,
			PayType:         r.PayType,
			PayPeriod:       r.PayPeriod,
			Description:     r.Description,
			Note:            r.Note,
			Benefits:        r.Benefits,
			Source:          r.Source,
			Departure:       r.Departure,
			InsurancePeriod: r.InsurancePeriod,
			Target:          r.Target,
			ProductCode:     r.ProductCode,
			Terms:           r.Terms,
		}
		for _, f := range []*string{
			&p.MainRider, &p.Currency, &p.InsureAge, &p.PayType, &p.PayPeriod, &p.Description, &p.Note,
			&p.Benefits, &p.Departure, &p.InsurancePeriod, &p.Target, &p.ProductCode, &p.Terms,
		} {
			if *f = textx.SanitizeText(*f); *f == "" {
				*f = FillValue
			}
		}
		out = append(out, p)
	}
	return out
}

// resolvePath constrains seed files to the working directory unless allowAbs is set.
func resolvePath(path string, allowAbs bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)
	wd = filepath.Clean(wd)
	if !allowAbs && !strings.HasPrefix(abs, wd+string(os.PathSeparator)) && abs != wd {
		return "", fmt.Errorf("disallowed path: %s", abs)
	}
	return abs, nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
