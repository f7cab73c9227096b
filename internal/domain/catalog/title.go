package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TitleStatus represents the publication status of a title
type TitleStatus string

const (
	TitleStatusDraft     TitleStatus = "DRAFT"
	TitleStatusPublished TitleStatus = "PUBLISHED"
	TitleStatusArchived  TitleStatus = "ARCHIVED"
)

// IsValid checks if the status is a valid TitleStatus
func (s TitleStatus) IsValid() bool {
	return s == TitleStatusDraft || s == TitleStatusPublished || s == TitleStatusArchived
}

// FormatListing is one sellable format of a title with its list price
type FormatListing struct {
	Format    royalty.Format  `json:"format"`
	ListPrice decimal.Decimal `json:"list_price"`
	ISBN      string          `json:"isbn,omitempty"`
}

// FormatListings is the JSONB collection of a title's format listings
type FormatListings []FormatListing

// Value implements driver.Valuer for JSONB storage
func (f FormatListings) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB retrieval
func (f *FormatListings) Scan(value interface{}) error {
	if value == nil {
		*f = FormatListings{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan FormatListings: unsupported type")
	}
	if len(bytes) == 0 {
		*f = FormatListings{}
		return nil
	}
	return json.Unmarshal(bytes, f)
}

// AuthorOwnership is one co-author's contractual stake in a title. The
// first-listed owner is the primary author and absorbs rounding remainders
// when royalties are split.
type AuthorOwnership struct {
	AuthorID   uuid.UUID       `json:"author_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

// AuthorOwnerships is the JSONB collection of a title's ownership stakes
type AuthorOwnerships []AuthorOwnership

// Value implements driver.Valuer for JSONB storage
func (a AuthorOwnerships) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *AuthorOwnerships) Scan(value interface{}) error {
	if value == nil {
		*a = AuthorOwnerships{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AuthorOwnerships: unsupported type")
	}
	if len(bytes) == 0 {
		*a = AuthorOwnerships{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Percentages returns the ownership percentages in listing order
func (a AuthorOwnerships) Percentages() []decimal.Decimal {
	percentages := make([]decimal.Decimal, len(a))
	for i, o := range a {
		percentages[i] = o.Percentage
	}
	return percentages
}

// IndexOf returns the position of an author in the ownership listing, or -1
func (a AuthorOwnerships) IndexOf(authorID uuid.UUID) int {
	for i, o := range a {
		if o.AuthorID == authorID {
			return i
		}
	}
	return -1
}

var hundred = decimal.NewFromInt(100)

// Validate enforces the ownership invariants: at least one owner, each stake
// in (0, 100], no duplicate authors, and stakes summing to exactly 100.
func (a AuthorOwnerships) Validate() error {
	if len(a) == 0 {
		return shared.NewValidationError("MISSING_OWNERSHIP", "Title requires at least one author ownership stake")
	}

	seen := make(map[uuid.UUID]bool, len(a))
	total := decimal.Zero
	for _, o := range a {
		if o.AuthorID == uuid.Nil {
			return shared.NewValidationError("INVALID_OWNER", "Ownership stake requires an author ID")
		}
		if seen[o.AuthorID] {
			return shared.NewValidationError("DUPLICATE_OWNER", fmt.Sprintf("Author %s listed more than once", o.AuthorID))
		}
		seen[o.AuthorID] = true
		if !o.Percentage.IsPositive() || o.Percentage.GreaterThan(hundred) {
			return shared.NewValidationError("INVALID_OWNERSHIP_PERCENTAGE", fmt.Sprintf("Ownership percentage must be in (0, 100], got %s", o.Percentage))
		}
		total = total.Add(o.Percentage)
	}

	if !total.Equal(hundred) {
		return shared.NewValidationError("OWNERSHIP_SUM_MISMATCH", fmt.Sprintf("Ownership percentages must sum to 100, got %s", total))
	}

	return nil
}

// Title is the catalog aggregate for one published work: its sellable
// formats with list prices and the co-author ownership stakes that drive
// royalty splitting.
type Title struct {
	shared.TenantAggregateRoot
	Name       string
	Subtitle   string
	Formats    FormatListings
	Ownerships AuthorOwnerships
	Status     TitleStatus
}

// NewTitle creates a draft title with its ownership stakes
func NewTitle(tenantID uuid.UUID, name string, ownerships AuthorOwnerships) (*Title, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_TITLE_NAME", "Title name cannot be empty")
	}
	if len(name) > 500 {
		return nil, shared.NewValidationError("INVALID_TITLE_NAME", "Title name cannot exceed 500 characters")
	}
	if err := ownerships.Validate(); err != nil {
		return nil, err
	}

	title := &Title{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Formats:             FormatListings{},
		Ownerships:          ownerships,
		Status:              TitleStatusDraft,
	}

	title.AddDomainEvent(NewTitleCreatedEvent(title))

	return title, nil
}

// IsCoAuthored returns true when more than one author holds a stake
func (t *Title) IsCoAuthored() bool {
	return len(t.Ownerships) > 1
}

// AddFormat adds a sellable format with its list price
func (t *Title) AddFormat(format royalty.Format, listPrice decimal.Decimal) error {
	if !format.IsValid() {
		return shared.NewValidationError("INVALID_FORMAT", fmt.Sprintf("Unknown format %q", string(format)))
	}
	if listPrice.IsNegative() {
		return shared.NewValidationError("INVALID_LIST_PRICE", "List price cannot be negative")
	}
	for _, f := range t.Formats {
		if f.Format == format {
			return shared.NewDomainError("DUPLICATE_FORMAT", fmt.Sprintf("Title already lists format %s", format))
		}
	}

	t.Formats = append(t.Formats, FormatListing{Format: format, ListPrice: listPrice.Round(2)})
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// AssignISBN attaches a generated ISBN to one of the title's formats
func (t *Title) AssignISBN(format royalty.Format, isbn string) error {
	if err := ValidateISBN13(isbn); err != nil {
		return err
	}

	for i, f := range t.Formats {
		if f.Format != format {
			continue
		}
		if f.ISBN != "" {
			return shared.NewDomainError("ISBN_ALREADY_ASSIGNED", fmt.Sprintf("Format %s already carries ISBN %s", format, f.ISBN))
		}
		t.Formats[i].ISBN = isbn
		t.UpdatedAt = time.Now()
		t.IncrementVersion()
		return nil
	}

	return shared.NewDomainError("FORMAT_NOT_LISTED", fmt.Sprintf("Title does not list format %s", format))
}

// ListPriceFor returns the list price of a format, or an error if unlisted
func (t *Title) ListPriceFor(format royalty.Format) (decimal.Decimal, error) {
	for _, f := range t.Formats {
		if f.Format == format {
			return f.ListPrice, nil
		}
	}
	return decimal.Decimal{}, shared.NewDomainError("FORMAT_NOT_LISTED", fmt.Sprintf("Title does not list format %s", format))
}

// Publish moves a draft title into the published state. A published title
// must list at least one format.
func (t *Title) Publish() error {
	if t.Status != TitleStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot publish from status %s", t.Status))
	}
	if len(t.Formats) == 0 {
		return shared.NewDomainError("NO_FORMATS", "Cannot publish a title without formats")
	}

	t.Status = TitleStatusPublished
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTitlePublishedEvent(t))

	return nil
}

// Archive retires the title from active sale
func (t *Title) Archive() error {
	if t.Status == TitleStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Title is already archived")
	}

	t.Status = TitleStatusArchived
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}
