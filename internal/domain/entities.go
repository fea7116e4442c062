package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream error")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")
)

// QuizType selects which scoring pipeline runs for a submission.
type QuizType string

const (
	QuizInsurance QuizType = "insurance"
	QuizValues    QuizType = "values"
)

// Valid reports whether q is a known quiz type.
func (q QuizType) Valid() bool { return q == QuizInsurance || q == QuizValues }

// Category is an insurance product classification bucket used by the rule engine.
type Category string

const (
	CategoryHealthMedical    Category = "health_medical"
	CategoryCancerMedical    Category = "cancer_medical"
	CategoryLongTermCare     Category = "long_term_care"
	CategoryLifeProtection   Category = "life_protection"
	CategoryAccident         Category = "accident"
	CategoryTravel           Category = "travel"
	CategoryInvestment       Category = "investment"
	CategoryGroup            Category = "group"
	CategorySavingsAnnuity   Category = "savings_annuity"
	CategoryHealthManagement Category = "health_management"
)

// Channel is a sales distribution channel scored alongside categories.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelBank   Channel = "bank"
	ChannelAgent  Channel = "agent"
)

// Product is one row of the flat policies table.
// Invariant: Riders is never nil once a product leaves the retrieval layer.
type Product struct {
	ID              int64     `json:"product_id"`
	Name            string    `json:"product_name"`
	MainRider       string    `json:"main_rider"`
	Currency        string    `json:"currency"`
	InsureAge       string    `json:"insure_age"`
	PayType         string    `json:"pay_type"`
	PayPeriod       string    `json:"pay_period"`
	Description     string    `json:"description"`
	Note            string    `json:"note"`
	Benefits        string    `json:"benefits"`
	Source          string    `json:"source"`
	Departure       string    `json:"departure"`
	InsurancePeriod string    `json:"insurance_period"`
	Target          string    `json:"target"`
	ProductCode     string    `json:"product_code"`
	Terms           string    `json:"terms"`
	GenderLimit     string    `json:"gender_limit"`
	Channel         string    `json:"channel"`
	Riders          []Product `json:"riders"`
}

// Submission is the stored, canonicalized questionnaire input of one user.
type Submission struct {
	UserID  string   `json:"user_id"`
	Quiz    QuizType `json:"quiz_id"`
	Answers Answers  `json:"answers"`
}

// Repositories (ports)

// ProductRepository reads the flat product table.
type ProductRepository interface {
	// SearchByKeywords returns up to limit rows whose name, description or source contains any keyword.
	SearchByKeywords(ctx Context, keywords []string, limit int) ([]Product, error)
	// Latest returns up to limit rows, most recently inserted first.
	Latest(ctx Context, limit int) ([]Product, error)
	Get(ctx Context, id int64) (Product, error)
	Count(ctx Context) (int64, error)
	Tables(ctx Context) ([]string, error)
}

// KVStore keeps submissions and results keyed by user id.
type KVStore interface {
	Put(ctx Context, key string, value []byte) error
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx Context, key string) ([]byte, error)
	Ping(ctx Context) error
}

// TextGenerator (port)

// TextGenerator sends a role instruction and a structured payload to a text-generation model.
// It returns the parsed JSON object, or an error. Output that cannot be parsed as JSON
// is reported with an error wrapping ErrSchemaInvalid; transport failures wrap
// ErrUpstream or ErrUpstreamTimeout.
type TextGenerator interface {
	Generate(ctx Context, systemPrompt string, payload any) (map[string]any, error)
}

// Context is an alias to allow decoupling from std context in domain.
type Context = context.Context
